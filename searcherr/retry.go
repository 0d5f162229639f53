package searcherr

import (
	"context"
	"time"
)

// RetryPolicy bounds the local exponential backoff applied to Retryable
// error kinds before the error is surfaced to the caller.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy matches the propagation policy's default: 3 attempts,
// 1 second base delay.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

// Do invokes fn up to policy.MaxAttempts times, backing off exponentially
// between attempts as long as fn returns a Retryable *Error. Any other
// error, or a nil error, stops the loop immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultRetryPolicy.BaseDelay
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var se *Error
		if !As(lastErr, &se) || !se.Kind.Retryable() {
			return lastErr
		}
		if attempt == maxAttempts-1 {
			break
		}
		delay := base << attempt
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// As is a thin errors.As wrapper kept local to avoid importing "errors" in
// every caller that just wants to pull out a *Error.
func As(err error, target **Error) bool {
	for err != nil {
		if se, ok := err.(*Error); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
