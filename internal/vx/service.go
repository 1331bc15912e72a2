package vx

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/vxverify/vxverify/internal/vx"

// Fetcher retrieves the oracle's signed message for a round index under a
// commitment. It returns an error wrapping ErrNoRecord when nothing has been
// published for the index yet; any other error is a transport failure.
type Fetcher interface {
	FetchSignedMessage(ctx context.Context, index int64, commitment string) (*SignedMessage, error)
}

// Observer receives per-round outcomes. metrics.Recorder implements it.
type Observer interface {
	ObserveRound(outcome string)
	ObserveFetch(d time.Duration, err error)
}

// Service runs the fetch, rebuild and verify pipeline for single rounds.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	params   Params
	fetcher  Fetcher
	verifier *Verifier
	observer Observer
	logger   *zap.Logger
	tracer   trace.Tracer
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithObserver reports outcomes to o.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service for the game series described by p.
func NewService(p Params, f Fetcher, opts ...ServiceOption) (*Service, error) {
	if f == nil {
		return nil, errors.New("vx: nil fetcher")
	}
	v, err := NewVerifier(p)
	if err != nil {
		return nil, err
	}
	s := &Service{
		params:   p,
		fetcher:  f,
		verifier: v,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Params returns the parameters the service verifies against.
func (s *Service) Params() Params {
	return s.params
}

// VerifyRound verifies the oracle signature for round index using the
// revealed round hash. Inputs are validated before any network call.
//
// Errors are *VerificationError values: ErrInvalidInput, ErrNoRecord,
// ErrTransport or ErrMalformedSignature. A returned Result may still be
// unverified; check Result.Verified or Result.Status.
func (s *Service) VerifyRound(ctx context.Context, index int64, roundHashHex string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "vx.VerifyRound", trace.WithAttributes(
		attribute.Int64("vx.round", index),
	))
	defer span.End()

	res, err := s.verifyRound(ctx, index, roundHashHex)
	if err != nil {
		kind := KindOf(err)
		span.SetStatus(codes.Error, kind.String())
		span.RecordError(err)
		s.observe(kind.String())
		s.logger.Debug("round not verified",
			zap.Int64("round", index),
			zap.Stringer("kind", kind),
			zap.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("vx.message_matches", res.MessageMatches),
		attribute.Bool("vx.signature_valid", res.SignatureValid),
	)
	s.observe(string(res.Status()))
	s.logger.Debug("round checked",
		zap.Int64("round", index),
		zap.Bool("message_matches", res.MessageMatches),
		zap.Bool("signature_valid", res.SignatureValid),
	)
	return res, nil
}

func (s *Service) verifyRound(ctx context.Context, index int64, roundHashHex string) (*Result, error) {
	if index < 0 || index > MaxRoundIndex {
		return nil, invalidInput(index, "round index must be between 0 and %d", MaxRoundIndex)
	}
	roundHash, err := decodeRoundHash(roundHashHex)
	if err != nil {
		return nil, withRound(err, index)
	}

	start := time.Now()
	rec, err := s.fetcher.FetchSignedMessage(ctx, index, s.params.Commitment())
	if s.observer != nil {
		s.observer.ObserveFetch(time.Since(start), err)
	}
	switch {
	case errors.Is(err, ErrNoRecord):
		return nil, &VerificationError{Kind: KindNoRecordYet, Round: index, Err: err}
	case err != nil:
		return nil, &VerificationError{Kind: KindTransportFailure, Round: index, Err: err}
	case rec == nil:
		return nil, &VerificationError{Kind: KindNoRecordYet, Round: index}
	}

	msg := buildMessage(s.params, roundHash)
	res, err := s.verifier.Check(msg, *rec)
	if err != nil {
		return nil, withRound(err, index)
	}
	res.Round = index
	res.RoundHash = normalizeHex(roundHashHex)
	return &res, nil
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveRound(outcome)
	}
}

func withRound(err error, index int64) error {
	var verr *VerificationError
	if errors.As(err, &verr) {
		out := *verr
		out.Round = index
		return &out
	}
	return err
}
