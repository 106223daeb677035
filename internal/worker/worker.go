// Package worker runs the detection cycle: load sources and topics, fetch
// per platform, rank through the pipeline, gate, and persist. One cycle runs
// at a time; a second invocation short-circuits.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/adapters"
	"github.com/puwka/trand/internal/collector"
	"github.com/puwka/trand/internal/gate"
	"github.com/puwka/trand/internal/model"
	"github.com/puwka/trand/internal/pipeline"
	"github.com/puwka/trand/internal/store"
	"github.com/puwka/trand/internal/store/rediscache"
	"github.com/puwka/trand/internal/telemetry"
)

// viralScoreThreshold marks a persisted video as viral.
const viralScoreThreshold = 1.5

// ErrCycleRunning is returned when a cycle is requested while one is active.
var ErrCycleRunning = errors.New("cycle already running")

// Worker owns the periodic detection cycle.
type Worker struct {
	store     store.Store
	seen      *rediscache.SeenCache
	collector *collector.Collector
	pipeline  *pipeline.Pipeline
	gateCfg   gate.Config
	interval  time.Duration
	dryRun    bool

	running atomic.Bool
}

// New builds a worker. seen may be nil (no cache).
func New(st store.Store, seen *rediscache.SeenCache, coll *collector.Collector, pipe *pipeline.Pipeline, gateCfg gate.Config, interval time.Duration, dryRun bool) *Worker {
	return &Worker{
		store:     st,
		seen:      seen,
		collector: coll,
		pipeline:  pipe,
		gateCfg:   gateCfg,
		interval:  interval,
		dryRun:    dryRun,
	}
}

// ParsingInProgress reports whether a cycle is currently executing.
func (w *Worker) ParsingInProgress() bool {
	return w.running.Load()
}

// Start runs an immediate cycle and then one per interval until ctx ends.
func (w *Worker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("worker started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runScheduled(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			w.runScheduled(ctx)
		}
	}
}

func (w *Worker) runScheduled(ctx context.Context) {
	stats, err := w.RunCycle(ctx)
	if err != nil {
		if errors.Is(err, ErrCycleRunning) {
			log.Warn().Msg("scheduled cycle skipped, previous still running")
			return
		}
		log.Error().Err(err).Msg("cycle failed")
		return
	}
	log.Info().
		Int("processed", stats.Processed).
		Int("viral", stats.Viral).
		Int("skipped", stats.Skipped).
		Int("errors", stats.Errors).
		Int("rejected_filter", stats.RejectedFilter).
		Msg("cycle complete")
}

// RunCycle executes one full cycle and returns its counters. Only one cycle
// runs at a time; concurrent callers get ErrCycleRunning.
func (w *Worker) RunCycle(ctx context.Context) (model.CycleStats, error) {
	if !w.running.CompareAndSwap(false, true) {
		telemetry.CyclesTotal.WithLabelValues("busy").Inc()
		return model.CycleStats{}, ErrCycleRunning
	}
	defer w.running.Store(false)

	start := time.Now()
	stats := w.runCycle(ctx)
	telemetry.CycleDuration.Observe(time.Since(start).Seconds())
	if stats.Errors > 0 {
		telemetry.CyclesTotal.WithLabelValues("error").Inc()
	} else {
		telemetry.CyclesTotal.WithLabelValues("ok").Inc()
	}
	return stats, nil
}

func (w *Worker) runCycle(ctx context.Context) model.CycleStats {
	var stats model.CycleStats

	topics, err := w.store.ListTopics(ctx)
	if err != nil {
		stats.Errors++
		stats.ErrorMessage = fmt.Sprintf("load topics: %v", err)
		return stats
	}
	if len(topics) == 0 {
		log.Info().Msg("no topics configured, skipping cycle")
		return stats
	}
	var keywords []string
	for _, t := range topics {
		if t.Keyword != "" {
			keywords = append(keywords, t.Keyword)
		}
	}

	sources, err := w.store.ListSources(ctx)
	if err != nil {
		stats.Errors++
		stats.ErrorMessage = fmt.Sprintf("load sources: %v", err)
		return stats
	}
	identifiers, sourceByPlatform := groupSources(sources)
	if len(identifiers) == 0 {
		log.Info().Msg("no active sources, skipping cycle")
		return stats
	}
	log.Info().Int("platforms", len(identifiers)).Msg("worker fetching")

	videos, platformErrs := w.collector.Collect(ctx, identifiers)
	for platform, ferr := range platformErrs {
		stats.Errors++
		telemetry.PlatformErrors.WithLabelValues(platform).Inc()
		if errors.Is(ferr, adapters.ErrCreditsExhausted) || adapters.IsCreditsMessage(ferr.Error()) {
			stats.ErrorMessage = fmt.Sprintf("%s: %v", platform, ferr)
		}
	}
	for _, v := range videos {
		telemetry.FetchedVideos.WithLabelValues(v.Platform).Inc()
	}
	if len(videos) == 0 {
		return stats
	}

	result := w.pipeline.Run(ctx, videos, keywords)
	stats.RejectedFilter = result.RejectedByFilter

	accepted := gate.Apply(result.Videos, w.gateCfg)
	for _, g := range accepted {
		telemetry.GateDecisions.WithLabelValues(g.Reason).Inc()
	}

	fallbackSource := firstSource(sources)
	for _, g := range accepted {
		w.persist(ctx, g, sourceByPlatform, fallbackSource, &stats)
	}
	return stats
}

// persist writes one gated result, mapping duplicates to skipped.
func (w *Worker) persist(ctx context.Context, g gate.Result, sourceByPlatform map[string]model.Source, fallback model.Source, stats *model.CycleStats) {
	externalID := g.Video.ExternalID()

	if w.seen.Seen(ctx, externalID) {
		stats.Skipped++
		return
	}
	exists, err := w.store.ExistsByExternalID(ctx, externalID)
	if err != nil {
		stats.Errors++
		log.Error().Err(err).Str("external_id", externalID).Msg("existence check failed")
		return
	}
	if exists {
		w.seen.Mark(ctx, externalID)
		stats.Skipped++
		telemetry.VideosSkipped.Inc()
		return
	}

	src, ok := sourceByPlatform[g.Video.Platform]
	if !ok {
		src = fallback
	}

	record := model.StoredVideo{
		SourceID:              src.ID,
		ExternalID:            externalID,
		Title:                 storedTitle(g.Video),
		Description:           truncate(g.Video.Description, 5000),
		AISummary:             truncate(g.Breakdown.Explanation, 2000),
		ViralityScore:         viralityScore(g.Breakdown.ViralScore, w.gateCfg.ViralityScale),
		IsViral:               g.Breakdown.ViralScore >= viralScoreThreshold,
		StoragePath:           g.Video.URL,
		QualityDecisionReason: g.Reason,
	}

	if w.dryRun {
		log.Info().
			Str("title", truncate(record.Title, 50)).
			Float64("score", g.Breakdown.ViralScore).
			Bool("viral", record.IsViral).
			Msg("dry run, would save")
		stats.Processed++
		if record.IsViral {
			stats.Viral++
		}
		return
	}

	if _, err := w.store.InsertVideo(ctx, record); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			w.seen.Mark(ctx, externalID)
			stats.Skipped++
			telemetry.VideosSkipped.Inc()
			return
		}
		stats.Errors++
		log.Error().Err(err).Str("external_id", externalID).Msg("insert failed")
		return
	}

	w.seen.Mark(ctx, externalID)
	stats.Processed++
	if record.IsViral {
		stats.Viral++
	}
	telemetry.VideosProcessed.WithLabelValues(strconv.FormatBool(record.IsViral)).Inc()
	log.Info().
		Str("title", truncate(record.Title, 50)).
		Float64("score", g.Breakdown.ViralScore).
		Bool("viral", record.IsViral).
		Str("explanation", g.Breakdown.Explanation).
		Msg("saved video")
}

// groupSources maps active sources to per-platform identifier lists plus a
// representative source per platform for attribution.
func groupSources(sources []model.Source) (map[string][]string, map[string]model.Source) {
	identifiers := make(map[string][]string)
	byPlatform := make(map[string]model.Source)
	for _, src := range sources {
		if src.Status != model.SourceActive {
			continue
		}
		platform := collector.NormalizePlatform(src.Platform)
		ident, ok := collector.ParseSourceIdentifier(src.Platform, src.URL)
		if !ok {
			continue
		}
		identifiers[platform] = append(identifiers[platform], ident)
		if _, seen := byPlatform[platform]; !seen {
			byPlatform[platform] = src
		}
	}
	return identifiers, byPlatform
}

func firstSource(sources []model.Source) model.Source {
	for _, src := range sources {
		if src.Status == model.SourceActive {
			return src
		}
	}
	return model.Source{}
}

func storedTitle(v model.Video) string {
	title := v.Title
	if title == "" {
		title = v.Description
	}
	title = truncate(title, 200)
	if title == "" {
		return "Video"
	}
	return title
}

func viralityScore(viralScore, scale float64) int {
	n := int(math.Round(viralScore * scale))
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

// truncate caps s at n runes so a cut never splits a multibyte character.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
