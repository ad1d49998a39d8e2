package crawler

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/neighborhood/internal/common"
	"golang.org/x/time/rate"
)

// RateLimiter spaces requests to the same domain by a fixed delay
type RateLimiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.Mutex
	defaultDelay time.Duration
}

// NewRateLimiter creates a new rate limiter with the specified default delay
func NewRateLimiter(defaultDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultDelay: defaultDelay,
	}
}

// newCollectorLimiter applies the configured per-domain overrides on top of delay
func newCollectorLimiter(delay time.Duration, overrides map[string]common.Duration) *RateLimiter {
	rl := NewRateLimiter(delay)
	for domain, d := range overrides {
		rl.SetDomainDelay(domain, d.Duration())
	}
	return rl
}

// Wait blocks until the domain of rawURL may be requested again, or ctx ends
func (rl *RateLimiter) Wait(ctx context.Context, rawURL string) error {
	domain := extractDomain(rawURL)
	if domain == "" {
		return nil
	}

	rl.mu.Lock()
	l, ok := rl.limiters[domain]
	rl.mu.Unlock()
	if !ok {
		if rl.defaultDelay <= 0 {
			return nil
		}
		l = rl.limiter(domain, rl.defaultDelay)
	}
	return l.Wait(ctx)
}

// SetDomainDelay overrides the delay for one domain
func (rl *RateLimiter) SetDomainDelay(domain string, delay time.Duration) {
	l := rl.limiter(NormalizeDomain(domain), delay)
	l.SetLimit(rate.Every(delay))
}

// GetDomainDelay returns the current delay for a domain
func (rl *RateLimiter) GetDomainDelay(domain string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[NormalizeDomain(domain)]
	if !ok || l.Limit() == 0 {
		return rl.defaultDelay
	}
	return time.Duration(float64(time.Second) / float64(l.Limit()))
}

func (rl *RateLimiter) limiter(domain string, delay time.Duration) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[domain]
	if !ok {
		l = rate.NewLimiter(rate.Every(delay), 1)
		rl.limiters[domain] = l
	}
	return l
}
