package collector

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/puwka/trand/internal/model"
)

// BreakerSet holds one circuit breaker per platform. A platform that keeps
// failing is skipped for a cool-down instead of burning its retry budget
// every cycle.
type BreakerSet struct {
	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerSet creates breakers for all known platforms.
func NewBreakerSet() *BreakerSet {
	s := &BreakerSet{breakers: make(map[string]*gobreaker.CircuitBreaker)}
	for _, platform := range []string{model.PlatformTikTok, model.PlatformReels, model.PlatformYouTube} {
		platform := platform
		s.breakers[platform] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        platform,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     5 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("platform", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("platform breaker state change")
			},
		})
	}
	return s
}

// Execute runs fn behind the platform's breaker. When the breaker is open
// the call is rejected immediately with gobreaker.ErrOpenState.
func (s *BreakerSet) Execute(platform string, fn func() ([]model.Video, error)) ([]model.Video, error) {
	s.mu.RLock()
	br, ok := s.breakers[platform]
	s.mu.RUnlock()
	if !ok {
		return fn()
	}
	result, err := br.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	videos, _ := result.([]model.Video)
	return videos, nil
}

// State returns the breaker state name for a platform.
func (s *BreakerSet) State(platform string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if br, ok := s.breakers[platform]; ok {
		return br.State().String()
	}
	return "unknown"
}
