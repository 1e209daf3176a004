package ratelimit

import (
	"context"
	"sync"
	"time"

	"igharvest/pkg/config"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed now and consumes a slot if so
	Allow() bool
	// Wait blocks until a request is allowed or ctx is done
	Wait(ctx context.Context) error
	// Reset restores the initial state
	Reset()
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity     int           // Maximum number of tokens
	tokens       int           // Current number of tokens
	refillPeriod time.Duration // Period after which bucket is refilled
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for !tb.Allow() {
		tb.mu.Lock()
		pause := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if pause <= 0 {
			pause = 100 * time.Millisecond
		}
		if err := sleep(ctx, pause); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// Remaining returns the tokens left in the current period
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return tb.tokens
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// SlidingWindow implements a sliding window rate limiter
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// Allow checks if a request can proceed
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}
	return false
}

// Wait blocks until a request is allowed
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		sw.mu.Lock()
		pause := 100 * time.Millisecond
		if len(sw.requests) > 0 {
			if d := sw.windowSize - time.Since(sw.requests[0]); d > 0 {
				pause = d
			}
		}
		sw.mu.Unlock()

		if err := sleep(ctx, pause); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && sw.requests[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kind identifies a class of request that is throttled separately
type Kind string

const (
	KindGraphQL Kind = "graphql"
	KindAPI     Kind = "api"
	KindMedia   Kind = "media"
)

// Controller holds one limiter per request kind
type Controller struct {
	limiters map[Kind]Limiter
}

// NewController builds limiters from the rate_limit configuration section.
// GraphQL and private API calls share the request budget; media downloads use their own.
func NewController(cfg config.RateLimitConfig) *Controller {
	return &Controller{
		limiters: map[Kind]Limiter{
			KindGraphQL: NewSlidingWindow(cfg.RequestsPerMinute, time.Minute),
			KindAPI:     NewSlidingWindow(cfg.RequestsPerMinute, time.Minute),
			KindMedia:   NewTokenBucket(cfg.MediaPerMinute, time.Minute),
		},
	}
}

// NewControllerWith uses the given limiters; kinds without one are unthrottled
func NewControllerWith(limiters map[Kind]Limiter) *Controller {
	return &Controller{limiters: limiters}
}

// Wait blocks until a request of the given kind may proceed
func (c *Controller) Wait(ctx context.Context, kind Kind) error {
	if c == nil {
		return nil
	}
	l, ok := c.limiters[kind]
	if !ok || l == nil {
		return nil
	}
	return l.Wait(ctx)
}

// Reset resets every limiter
func (c *Controller) Reset() {
	for _, l := range c.limiters {
		l.Reset()
	}
}
