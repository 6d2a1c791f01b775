package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRun_ReturnsAcceptableResultImmediately(t *testing.T) {
	calls := 0
	policy := Policy[int]{MaxAttempts: 5, Delay: time.Millisecond, Acceptable: func(v int) bool { return v > 0 }}

	got, err := Run(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

func TestRun_ExhaustsAttemptsOnUnacceptableResults(t *testing.T) {
	calls := 0
	policy := Policy[[]string]{MaxAttempts: 5, Delay: time.Millisecond, Acceptable: func(v []string) bool { return len(v) > 0 }}

	_, err := Run(context.Background(), policy, func(ctx context.Context) ([]string, error) {
		calls++
		return nil, nil
	})

	if calls != 5 {
		t.Errorf("op called %d times, want exactly 5", calls)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("want ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", exhausted.Attempts)
	}
	if !errors.Is(err, ErrNoResult) {
		t.Errorf("cause should be ErrNoResult, got %v", exhausted.Cause)
	}
}

func TestRun_RecoverableErrorConsumesAttempts(t *testing.T) {
	cause := errors.New("transient")
	calls := 0
	policy := Policy[int]{MaxAttempts: 3, Delay: time.Millisecond}

	_, err := Run(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, Recoverable(cause)
	})

	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("want ExhaustedError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("ExhaustedError should wrap the last cause, got %v", exhausted.Cause)
	}
}

func TestRun_FatalErrorAbortsImmediately(t *testing.T) {
	fatal := errors.New("boom")
	calls := 0
	policy := Policy[int]{MaxAttempts: 5, Delay: time.Millisecond}

	_, err := Run(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, fatal
	})

	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
	if !errors.Is(err, fatal) {
		t.Errorf("want the fatal error surfaced as-is, got %v", err)
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		t.Errorf("fatal errors must not be wrapped in ExhaustedError")
	}
}

func TestRun_RecoverableAfterHonorsExtraWait(t *testing.T) {
	const extraWait = 30 * time.Millisecond
	calls := 0
	policy := Policy[int]{MaxAttempts: 2, Delay: time.Millisecond}

	start := time.Now()
	_, err := Run(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, RecoverableAfter(errors.New("rate limited"), extraWait)
		}
		return 7, nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("op called %d times, want 2", calls)
	}
	if elapsed < extraWait {
		t.Errorf("elapsed %v, want at least the extra wait %v", elapsed, extraWait)
	}
}

func TestRun_RecoverAfterFailures(t *testing.T) {
	calls := 0
	policy := Policy[string]{MaxAttempts: 5, Delay: time.Millisecond, Acceptable: func(v string) bool { return v != "" }}

	got, err := Run(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", Recoverable(errors.New("not yet"))
		}
		return "done", nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != "done" {
		t.Errorf("got %q, want %q", got, "done")
	}
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
}

func TestRun_ContextCancellationStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy[int]{MaxAttempts: 5, Delay: time.Minute}

	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, policy, func(ctx context.Context) (int, error) {
			return 0, Recoverable(errors.New("transient"))
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("want context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRun_InvalidMaxAttempts(t *testing.T) {
	policy := Policy[int]{MaxAttempts: 0, Delay: time.Millisecond}
	_, err := Run(context.Background(), policy, func(ctx context.Context) (int, error) {
		t.Fatal("op must not be called")
		return 0, nil
	})
	if err == nil {
		t.Fatal("want error for zero max attempts")
	}
}
