// Package retry provides a generic exponential-backoff executor that
// distinguishes transient failures (worth retrying) from permanent ones
// (surfaced immediately).
package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"syscall"
	"time"
)

// TransientError marks an error as retryable regardless of its shape.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err so the policy treats it as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Policy retries transient failures with exponential backoff.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// BaseDelay is the delay before the first retry; it doubles per attempt.
	BaseDelay time.Duration
}

// NewPolicy creates a retry policy.
func NewPolicy(maxRetries int, baseDelay time.Duration) *Policy {
	return &Policy{MaxRetries: maxRetries, BaseDelay: baseDelay}
}

// Execute runs fn, retrying transient failures up to MaxRetries additional
// times with delays of BaseDelay * 2^(attempt-1). Permanent failures and
// context cancellation propagate immediately; retry exhaustion returns the
// last transient error.
func (p *Policy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if attempt > 0 {
			delay := p.BaseDelay << (attempt - 1)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// IsTransient classifies err as retryable. Timeouts, connectivity errors
// and explicit TransientError markers are transient, wherever they sit in
// a wrap chain or joined aggregate; everything else is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var marker *TransientError
	if errors.As(err, &marker) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return IsTransient(urlErr.Err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	// errors.Join aggregates expose Unwrap() []error; a single transient
	// member makes the aggregate transient.
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			if IsTransient(inner) {
				return true
			}
		}
	}

	return false
}
