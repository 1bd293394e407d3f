// Package retry provides a bounded retry executor whose continue/abort
// decisions are driven by a per-call-site classification of Kafka protocol
// errors. The same error code can be retriable for one operation and fatal
// for another, so classification lives with the caller, not here.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
)

// Policy bounds a retry loop by attempts and total elapsed time.
type Policy struct {
	MaxAttempts    int
	MaxElapsed     time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultPolicy matches the broker-facing defaults used across the admin
// layer: a handful of attempts with doubling backoff.
var DefaultPolicy = Policy{
	MaxAttempts:    5,
	MaxElapsed:     30 * time.Second,
	InitialBackoff: 300 * time.Millisecond,
	MaxBackoff:     4 * time.Second,
}

// Strategy classifies protocol errors for one operation. Errors listed in
// Retriable are retried after a metadata-refreshing backoff; errors listed
// in Tolerated are non-error outcomes (the operation resolves to its zero
// value); everything else is fatal.
type Strategy struct {
	Retriable []*kerr.Error
	Tolerated []*kerr.Error

	// RetriableIf optionally classifies non-protocol errors as retriable,
	// for operations whose retry unit is an aggregate (partial-failure)
	// error rather than a single protocol error.
	RetriableIf func(error) bool
}

// Classification is the retry decision for a single error.
type Classification int

const (
	Fatal Classification = iota
	Retriable
	Tolerated
)

// Classify decides how the loop treats err.
func (s Strategy) Classify(err error) Classification {
	var bail *bailError
	if errors.As(err, &bail) {
		return Fatal
	}
	var ke *kerr.Error
	if errors.As(err, &ke) {
		for _, t := range s.Tolerated {
			if ke == t {
				return Tolerated
			}
		}
		for _, r := range s.Retriable {
			if ke == r {
				return Retriable
			}
		}
		return Fatal
	}
	if s.RetriableIf != nil && s.RetriableIf(err) {
		return Retriable
	}
	return Fatal
}

// Attempt describes the state of the current try, mirroring the retry
// context handed to each operation invocation.
type Attempt struct {
	Number  int
	Elapsed time.Duration
}

type bailError struct{ err error }

func (b *bailError) Error() string { return b.err.Error() }
func (b *bailError) Unwrap() error { return b.err }

// Bail marks err as fatal regardless of the strategy, short-circuiting the
// loop. The wrapper is transparent to errors.Is/As on the original error.
func Bail(err error) error {
	if err == nil {
		return nil
	}
	return &bailError{err: err}
}

type toleratedError struct{ err error }

func (t *toleratedError) Error() string { return t.err.Error() }
func (t *toleratedError) Unwrap() error { return t.err }

// WasTolerated reports whether Do resolved by classifying the last error as
// a tolerated outcome rather than by the operation succeeding.
func WasTolerated(err error) bool {
	var te *toleratedError
	return errors.As(err, &te)
}

// Do runs op until it succeeds, fails fatally, resolves to a tolerated
// outcome, or the policy is exhausted. A tolerated outcome returns the zero
// value and an error for which WasTolerated reports true; call sites
// translate that into their sentinel result. On exhaustion the last error
// is propagated wrapped with the attempt count.
func Do[T any](ctx context.Context, desc string, policy Policy, strategy Strategy, op func(ctx context.Context, a Attempt) (T, error)) (T, error) {
	var zero T

	backoff := policy.InitialBackoff
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		v, err := op(ctx, Attempt{Number: attempt, Elapsed: time.Since(start)})
		if err == nil {
			return v, nil
		}
		lastErr = err

		switch strategy.Classify(err) {
		case Tolerated:
			return zero, &toleratedError{err: err}
		case Fatal:
			var bail *bailError
			if errors.As(err, &bail) {
				return zero, bail.err
			}
			return zero, err
		}

		if attempt == policy.MaxAttempts {
			break
		}
		if policy.MaxElapsed > 0 && time.Since(start)+backoff > policy.MaxElapsed {
			break
		}

		slog.Warn("retrying after transient error",
			"operation", desc,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%s: %w (last error: %w)", desc, ctx.Err(), lastErr)
		case <-time.After(backoff):
		}

		backoff *= 2
		if policy.MaxBackoff > 0 && backoff > policy.MaxBackoff {
			backoff = policy.MaxBackoff
		}
	}

	return zero, fmt.Errorf("%s: retries exhausted: %w", desc, lastErr)
}
