package vx

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per ErrorKind. A *VerificationError unwraps to the
// sentinel of its kind, so callers can use errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoRecord           = errors.New("no signed message published for this round yet")
	ErrMalformedSignature = errors.New("malformed signature")
	ErrTransport          = errors.New("transport failure")
)

// ErrorKind classifies why a round could not be verified.
type ErrorKind int

const (
	KindInvalidInput ErrorKind = iota + 1
	KindNoRecordYet
	KindMalformedSignature
	KindTransportFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNoRecordYet:
		return "no_record_yet"
	case KindMalformedSignature:
		return "malformed_signature"
	case KindTransportFailure:
		return "transport_failure"
	}
	return "unknown"
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindNoRecordYet:
		return ErrNoRecord
	case KindMalformedSignature:
		return ErrMalformedSignature
	case KindTransportFailure:
		return ErrTransport
	}
	return nil
}

// VerificationError is returned by VerifyRound when no Result could be
// produced. Round is -1 when the failure is not tied to a round index.
type VerificationError struct {
	Kind  ErrorKind
	Round int64
	Err   error
}

func (e *VerificationError) Error() string {
	prefix := "vx"
	if e.Round >= 0 {
		prefix = fmt.Sprintf("vx: round %d", e.Round)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", prefix, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %s: %v", prefix, e.Kind.sentinel(), e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *VerificationError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the ErrorKind carried by err, or 0 if err is not a
// verification error.
func KindOf(err error) ErrorKind {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNoRecord):
		return KindNoRecordYet
	case errors.Is(err, ErrMalformedSignature):
		return KindMalformedSignature
	case errors.Is(err, ErrTransport):
		return KindTransportFailure
	}
	return 0
}

func invalidInput(round int64, format string, args ...any) error {
	return &VerificationError{Kind: KindInvalidInput, Round: round, Err: fmt.Errorf(format, args...)}
}
