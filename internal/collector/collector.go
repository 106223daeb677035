// Package collector fans fetches out across the platform adapters, isolates
// per-platform failures, and merges the results into one deduplicated batch.
package collector

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/adapters"
	"github.com/puwka/trand/internal/dedup"
	"github.com/puwka/trand/internal/model"
)

// platformOrder fixes the merge order so a cycle's output is deterministic
// for a given input.
var platformOrder = []string{model.PlatformTikTok, model.PlatformReels, model.PlatformYouTube}

// Collector coordinates the platform adapters.
type Collector struct {
	fetchers map[string]adapters.Fetcher
	breakers *BreakerSet
}

// New builds a collector over the given fetchers.
func New(fetchers []adapters.Fetcher) *Collector {
	byPlatform := make(map[string]adapters.Fetcher, len(fetchers))
	for _, f := range fetchers {
		byPlatform[f.Platform()] = f
	}
	return &Collector{fetchers: byPlatform, breakers: NewBreakerSet()}
}

// Platforms returns the platforms with a registered fetcher, in merge order.
func (c *Collector) Platforms() []string {
	var out []string
	for _, p := range platformOrder {
		if _, ok := c.fetchers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Collect fetches from every platform with sources, concurrently, and
// returns the merged deduplicated batch plus per-platform errors. An error
// on one platform never aborts another.
func (c *Collector) Collect(ctx context.Context, identifiersByPlatform map[string][]string) ([]model.Video, map[string]error) {
	return c.fanOut(identifiersByPlatform, func(f adapters.Fetcher, ids []string) ([]model.Video, error) {
		return f.FetchFromSources(ctx, ids)
	})
}

// CollectTrending fetches trending from every registered platform.
func (c *Collector) CollectTrending(ctx context.Context) ([]model.Video, map[string]error) {
	all := make(map[string][]string, len(c.fetchers))
	for p := range c.fetchers {
		all[p] = nil
	}
	return c.fanOut(all, func(f adapters.Fetcher, _ []string) ([]model.Video, error) {
		return f.FetchTrending(ctx)
	})
}

// CollectByKeywords fetches keyword search results from every platform.
func (c *Collector) CollectByKeywords(ctx context.Context, keywords []string) ([]model.Video, map[string]error) {
	all := make(map[string][]string, len(c.fetchers))
	for p := range c.fetchers {
		all[p] = keywords
	}
	return c.fanOut(all, func(f adapters.Fetcher, kws []string) ([]model.Video, error) {
		return f.FetchByKeywords(ctx, kws)
	})
}

func (c *Collector) fanOut(args map[string][]string, call func(adapters.Fetcher, []string) ([]model.Video, error)) ([]model.Video, map[string]error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		batches = make(map[string][]model.Video)
		errs    = make(map[string]error)
	)

	for platform, ids := range args {
		fetcher, ok := c.fetchers[platform]
		if !ok {
			log.Warn().Str("platform", platform).Msg("no fetcher registered, skipping")
			continue
		}
		wg.Add(1)
		go func(platform string, fetcher adapters.Fetcher, ids []string) {
			defer wg.Done()
			videos, err := c.breakers.Execute(platform, func() ([]model.Video, error) {
				return call(fetcher, ids)
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[platform] = err
				log.Error().Str("platform", platform).Err(err).Msg("platform fetch failed")
				return
			}
			batches[platform] = videos
		}(platform, fetcher, ids)
	}
	wg.Wait()

	var merged []model.Video
	for _, p := range platformOrder {
		merged = append(merged, batches[p]...)
	}

	deduped := dedup.Deduplicate(merged)
	log.Info().
		Int("fetched", len(merged)).
		Int("after_dedup", len(deduped)).
		Int("platform_errors", len(errs)).
		Msg("collection complete")
	return deduped, errs
}
