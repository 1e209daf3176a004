package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	errs "igharvest/pkg/errors"
)

// BackoffStrategy computes the pause before retry number attempt (1-based)
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0 to 1.0
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// ErrorTypeBackoff picks a strategy from the type of the failure.
// Rate limit answers from Instagram need far longer pauses than network blips.
type ErrorTypeBackoff struct {
	Network   BackoffStrategy
	RateLimit BackoffStrategy
	Server    BackoffStrategy
	Default   BackoffStrategy
}

// NewErrorTypeBackoff derives per-type strategies from a base backoff
func NewErrorTypeBackoff(base *ExponentialBackoff) *ErrorTypeBackoff {
	return &ErrorTypeBackoff{
		Network: base,
		RateLimit: &ExponentialBackoff{
			BaseDelay:    30 * time.Second,
			MaxDelay:     5 * time.Minute,
			Multiplier:   1.5,
			JitterFactor: 0.3,
		},
		Server: &ExponentialBackoff{
			BaseDelay:    base.BaseDelay * 2,
			MaxDelay:     base.MaxDelay,
			Multiplier:   base.Multiplier,
			JitterFactor: base.JitterFactor,
		},
		Default: base,
	}
}

// For returns the strategy matching err
func (etb *ErrorTypeBackoff) For(err error) BackoffStrategy {
	switch {
	case errs.IsType(err, errs.ErrorTypeRateLimit):
		return etb.RateLimit
	case errs.IsType(err, errs.ErrorTypeServerError):
		return etb.Server
	case errs.IsType(err, errs.ErrorTypeNetwork):
		return etb.Network
	default:
		return etb.Default
	}
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
