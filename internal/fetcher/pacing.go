package fetcher

import (
	"context"
	"math/rand/v2"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostPacing spaces out requests made to the same host, requests to
// different hosts do not wait on each other.
type hostPacing struct {
	minDelay time.Duration
	jitter   time.Duration

	mutex    sync.Mutex
	limiters map[string]*rate.Limiter
}

func newHostPacing(minDelay, maxDelay time.Duration) *hostPacing {
	return &hostPacing{
		minDelay: minDelay,
		jitter:   maxDelay - minDelay,
		limiters: map[string]*rate.Limiter{},
	}
}

func (p *hostPacing) limiter(host string) *rate.Limiter {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	limiter, ok := p.limiters[host]
	if !ok {
		// one request per minDelay, the first one goes through immediately
		limiter = rate.NewLimiter(rate.Every(p.minDelay), 1)
		p.limiters[host] = limiter
	}
	return limiter
}

func (p *hostPacing) wait(ctx context.Context, link string) error {
	if p.minDelay <= 0 && p.jitter <= 0 {
		return nil
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return err
	}

	limiter := p.limiter(parsed.Host)
	first := limiter.Tokens() >= 1
	err = limiter.Wait(ctx)
	if err != nil {
		return err
	}
	if first || p.jitter <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(rand.Int64N(int64(p.jitter) + 1)))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
