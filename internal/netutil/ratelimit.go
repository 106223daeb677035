// Package netutil provides outbound HTTP plumbing shared by the platform
// adapters: a per-host token-bucket limiter and an http.RoundTripper that
// waits on it before each request.
package netutil

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter rate-limits requests per destination host with lazily created
// token buckets sharing one rps/burst configuration.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewLimiter creates a limiter allowing rps requests per second with the
// given burst per host.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (l *Limiter) hostLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[host]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[host]; ok {
		return lim
	}
	lim = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[host] = lim
	return lim
}

// Allow reports whether a request to host may proceed right now.
func (l *Limiter) Allow(host string) bool {
	return l.hostLimiter(host).Allow()
}

// Wait blocks until a request to host is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	return l.hostLimiter(host).Wait(ctx)
}

// Tokens returns the tokens currently available for host.
func (l *Limiter) Tokens(host string) float64 {
	return l.hostLimiter(host).Tokens()
}

// Transport is an http.RoundTripper that waits on a Limiter before
// delegating. A nil Base falls back to http.DefaultTransport.
type Transport struct {
	Base    http.RoundTripper
	Limiter *Limiter
}

// RoundTrip waits for a per-host token and then performs the request.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context(), req.URL.Host); err != nil {
			return nil, err
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewHTTPClient builds an http.Client whose transport enforces the limiter.
func NewHTTPClient(limiter *Limiter) *http.Client {
	return &http.Client{
		Transport: &Transport{Limiter: limiter},
	}
}
