package vx

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// RoundInput names one round to verify.
type RoundInput struct {
	Index int64
	Hash  string
}

// BatchItem is the outcome for one RoundInput. Exactly one of Result and
// Err is set.
type BatchItem struct {
	Input  RoundInput
	Result *Result
	Err    error
}

// BatchVerifier verifies many rounds with bounded concurrency.
type BatchVerifier struct {
	svc         *Service
	concurrency int
	limiter     *rate.Limiter
}

// NewBatchVerifier returns a BatchVerifier running at most concurrency
// rounds at once. perSecond > 0 also caps how many fetches start per second.
func NewBatchVerifier(svc *Service, concurrency int, perSecond float64) *BatchVerifier {
	if concurrency <= 0 {
		concurrency = 1
	}
	b := &BatchVerifier{svc: svc, concurrency: concurrency}
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return b
}

// Run verifies every input and returns the items in input order. A failed
// round does not stop the others; only ctx cancellation does, in which case
// the remaining items carry ctx.Err().
func (b *BatchVerifier) Run(ctx context.Context, inputs []RoundInput) []BatchItem {
	items := make([]BatchItem, len(inputs))

	g := new(errgroup.Group)
	g.SetLimit(b.concurrency)
	for i, in := range inputs {
		items[i].Input = in
		g.Go(func() error {
			if b.limiter != nil {
				if err := b.limiter.Wait(ctx); err != nil {
					items[i].Err = err
					return nil
				}
			}
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Result, items[i].Err = b.svc.VerifyRound(ctx, in.Index, in.Hash)
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// BatchSummary counts batch outcomes by status or error kind.
type BatchSummary struct {
	Total            int `json:"total"`
	Verified         int `json:"verified"`
	MessageMismatch  int `json:"message_mismatch"`
	InvalidSignature int `json:"invalid_signature"`
	Failed           int `json:"failed"`
	NoRecordYet      int `json:"no_record_yet"`
	Errors           int `json:"errors"`
}

// Summarize tallies items.
func Summarize(items []BatchItem) BatchSummary {
	s := BatchSummary{Total: len(items)}
	for _, it := range items {
		if it.Err != nil {
			if KindOf(it.Err) == KindNoRecordYet {
				s.NoRecordYet++
			} else {
				s.Errors++
			}
			continue
		}
		switch it.Result.Status() {
		case StatusVerified:
			s.Verified++
		case StatusMessageMismatch:
			s.MessageMismatch++
		case StatusInvalidSignature:
			s.InvalidSignature++
		default:
			s.Failed++
		}
	}
	return s
}

// AllVerified reports whether every round in the batch verified.
func (s BatchSummary) AllVerified() bool {
	return s.Total > 0 && s.Verified == s.Total
}
