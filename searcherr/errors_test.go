package searcherr

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsMatchesWrappedKind(t *testing.T) {
	err := Wrap(NonceError, "stale nonce", errors.New("out of sync"))
	if !Is(err, NonceError) {
		t.Fatalf("expected Is to match NonceError")
	}
	if Is(err, Timeout) {
		t.Fatalf("expected Is not to match Timeout")
	}
}

func TestRetryableAndOperatorAlert(t *testing.T) {
	if !ConnectionError.Retryable() {
		t.Fatalf("expected ConnectionError to be retryable")
	}
	if InvalidInput.Retryable() {
		t.Fatalf("expected InvalidInput not to be retryable")
	}
	if !Fatal.OperatorAlert() {
		t.Fatalf("expected Fatal to page an operator")
	}
	if !RelayRejected.OperatorAlert() {
		t.Fatalf("expected RelayRejected to page an operator")
	}
	if SimulationFailed.OperatorAlert() {
		t.Fatalf("expected SimulationFailed not to page an operator")
	}
}

func TestRetryPolicyStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	err := DefaultRetryPolicy.Do(context.Background(), func() error {
		attempts++
		return New(InvalidInput, "bad calldata")
	})
	if attempts != 1 {
		t.Fatalf("expected exactly one attempt, got %d", attempts)
	}
	if !Is(err, InvalidInput) {
		t.Fatalf("expected InvalidInput to propagate")
	}
}

func TestRetryPolicyRetriesConnectionErrors(t *testing.T) {
	attempts := 0
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	err := policy.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return New(ConnectionError, "dial failed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	attempts := 0
	policy := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	err := policy.Do(context.Background(), func() error {
		attempts++
		return New(RateLimited, "too many requests")
	})
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if !Is(err, RateLimited) {
		t.Fatalf("expected RateLimited to surface after exhausting retries")
	}
}
