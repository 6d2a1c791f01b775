// Package retry implements the bounded-attempt loop shared by slot
// discovery ("poll until found") and booking ("attempt until booked").
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy configures one bounded retry loop.
type Policy[T any] struct {
	// MaxAttempts is the total attempt budget, including the first call.
	MaxAttempts int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
	// Acceptable decides whether a returned value ends the loop. A nil
	// predicate accepts every non-error value.
	Acceptable func(T) bool
}

// ExhaustedError reports that the attempt budget ran out without an
// acceptable result. Cause is the outcome of the last attempt.
type ExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("exhausted after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *ExhaustedError) Unwrap() error { return e.Cause }

// ErrNoResult is the cause recorded when attempts kept returning values
// the policy did not accept (e.g. an empty search result).
var ErrNoResult = errors.New("no acceptable result")

// recoverable wraps an error that should consume one attempt and be
// retried, optionally after an extra server-specified wait.
type recoverable struct {
	err  error
	wait time.Duration
}

func (r *recoverable) Error() string { return r.err.Error() }
func (r *recoverable) Unwrap() error { return r.err }

// Recoverable marks err as retryable: the loop waits the policy delay
// and tries again, consuming one attempt.
func Recoverable(err error) error {
	return &recoverable{err: err}
}

// RecoverableAfter marks err as retryable with an extra wait honored
// before the policy's normal delay.
func RecoverableAfter(err error, wait time.Duration) error {
	return &recoverable{err: err, wait: wait}
}

// Run executes op up to policy.MaxAttempts times. Errors not marked via
// Recoverable abort immediately without consuming further attempts.
// Unacceptable values and recoverable errors consume one attempt each;
// once the budget is spent the last cause is surfaced wrapped in an
// ExhaustedError.
func Run[T any](ctx context.Context, policy Policy[T], op func(context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxAttempts <= 0 {
		return zero, fmt.Errorf("retry: invalid max attempts %d", policy.MaxAttempts)
	}

	var lastCause error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			if policy.Acceptable == nil || policy.Acceptable(result) {
				return result, nil
			}
			lastCause = ErrNoResult
		} else {
			var rec *recoverable
			if !errors.As(err, &rec) {
				return zero, err
			}
			lastCause = rec.err
			if attempt < policy.MaxAttempts && rec.wait > 0 {
				if err := sleep(ctx, rec.wait); err != nil {
					return zero, err
				}
			}
		}

		if attempt < policy.MaxAttempts {
			if err := sleep(ctx, policy.Delay); err != nil {
				return zero, err
			}
		}
	}

	return zero, &ExhaustedError{Attempts: policy.MaxAttempts, Cause: lastCause}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
