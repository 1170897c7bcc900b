package connectors

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter hands out a golang.org/x/time/rate.Limiter per host, enforcing
// a per-host minimum inter-request delay. One process-wide instance is
// shared by every connector.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

func NewHostLimiter(minInterval time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: minInterval,
	}
}

func (h *HostLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		// One token per interval, burst of 1: strict pacing rather than
		// bursty throughput, matching the "politeness" requirement.
		l = rate.NewLimiter(rate.Every(h.interval), 1)
		h.limiters[host] = l
	}
	return l
}

// Wait blocks until a request to rawURL's host is allowed to proceed, or
// until ctx is cancelled.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return h.limiterFor(u.Host).Wait(ctx)
}
