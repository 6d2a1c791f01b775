package classify

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		expect Class
	}{
		{&APIError{Op: "search", Status: 401}, AuthExpired},
		{&APIError{Op: "schedule", Status: 409}, Conflict},
		{&APIError{Op: "search", Status: 429}, RateLimited},
		{&APIError{Op: "search", Status: 500}, Fatal},
		{&APIError{Op: "schedule", Status: 400}, Fatal},
		{&APIError{Op: "search", Status: 403}, Fatal},
		{errors.New("connection reset by peer"), Fatal},
		{ErrMalformedResponse, Fatal},
		{fmt.Errorf("search: %w", &APIError{Op: "search", Status: 401}), AuthExpired},
		{fmt.Errorf("center 12: no fee entry: %w", ErrMalformedResponse), Fatal},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.expect {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}

func TestRetryAfterOf(t *testing.T) {
	err := fmt.Errorf("schedule: %w", &APIError{Op: "schedule", Status: 429, RetryAfter: 7 * time.Second})
	wait, ok := RetryAfterOf(err)
	if !ok || wait != 7*time.Second {
		t.Errorf("RetryAfterOf = (%v, %v), want (7s, true)", wait, ok)
	}

	// 429 without a server-specified wait
	if _, ok := RetryAfterOf(&APIError{Status: 429}); ok {
		t.Error("RetryAfterOf should report absent wait")
	}

	// wait on a non-429 is ignored
	if _, ok := RetryAfterOf(&APIError{Status: 500, RetryAfter: time.Second}); ok {
		t.Error("RetryAfterOf should ignore non-429 statuses")
	}
}

func TestClassString(t *testing.T) {
	tests := []struct {
		class  Class
		expect string
	}{
		{AuthExpired, "auth_expired"},
		{RateLimited, "rate_limited"},
		{Conflict, "conflict"},
		{Fatal, "fatal"},
	}
	for _, tt := range tests {
		if got := tt.class.String(); got != tt.expect {
			t.Errorf("%v.String() = %q, want %q", tt.class, got, tt.expect)
		}
	}
}
