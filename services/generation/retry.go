package generation

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// RetryPolicy describes bounded retry with exponential backoff.
// Attempt i (0-indexed) waits BaseDelay * Multiplier^i before retrying.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	Jitter      float64 // fraction of the delay, e.g. 0.1 for ±10%
}

// DefaultRetryPolicy mirrors the production generator settings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Multiplier:  2,
	}
}

// Delay returns the backoff before retrying after attempt (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
	}
	if p.Jitter > 0 {
		span := d * p.Jitter
		d = d - span + rand.Float64()*2*span
	}
	return time.Duration(d)
}

// APIError is an error returned by the language-model service.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return e.Status + ": " + e.Message
	}
	return e.Message
}

// IsRateLimit reports whether err is a rate-limit-class failure worth
// backing off exponentially for.
func IsRateLimit(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
