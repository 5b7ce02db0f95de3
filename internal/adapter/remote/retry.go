package remote

import (
	"context"
	"errors"
	"time"
)

// attemptKind classifies the outcome of a single mutating call
type attemptKind int

const (
	attemptSucceeded attemptKind = iota
	attemptRetryable
	attemptCancelled
)

// classifyAttempt turns a call error into an attempt kind.
// Every non-cancellation error is retryable: the policy does not try to tell
// transient failures from permanent ones.
func classifyAttempt(ctx context.Context, err error) attemptKind {
	switch {
	case err == nil:
		return attemptSucceeded
	case ctx.Err() != nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return attemptCancelled
	default:
		return attemptRetryable
	}
}

// RetryPolicy bounds attempts and sets a linear backoff: attempt n waits n*BaseDelay
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy is 3 attempts with 1s, 2s between them
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

// retryAction is what the loop does after an attempt
type retryAction int

const (
	actionReturnSuccess retryAction = iota
	actionReturnCancelled
	actionBackoff
	actionReturnFailed
)

// decide is the retry decision table
func (p RetryPolicy) decide(kind attemptKind, attempt int) retryAction {
	switch kind {
	case attemptSucceeded:
		return actionReturnSuccess
	case attemptCancelled:
		return actionReturnCancelled
	}
	if attempt >= p.MaxAttempts {
		return actionReturnFailed
	}
	return actionBackoff
}

// Delay returns the wait after a failed attempt (1-based)
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

// sleepContext waits for d or until ctx ends
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
