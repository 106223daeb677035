// Package gate implements the stable quality gate applied after scoring and
// before persistence. It maps viral scores onto a 0..10 quality scale,
// classifies each candidate into a zone, and guarantees the batch never
// collapses to empty when borderline candidates exist.
package gate

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/metrics"
	"github.com/puwka/trand/internal/model"
	"github.com/puwka/trand/internal/scoring"
)

// Decision reasons recorded per accepted video.
const (
	ReasonHighQuality          = "accepted_high_quality"
	ReasonBorderlineHighViral  = "accepted_borderline_high_viral"
	ReasonBorderlineEngagement = "accepted_borderline_engagement"
	ReasonFallbackFill         = "fallback_fill"
)

// Config holds the gate thresholds.
type Config struct {
	// ViralityScale maps raw viral score onto the 0..10 quality scale.
	ViralityScale float64 `yaml:"virality_scale"`

	// QualityThreshold is the HIGH_QUALITY floor on the 0..10 scale.
	QualityThreshold float64 `yaml:"quality_threshold"`

	// BorderlineThreshold is the BORDERLINE floor on the 0..10 scale.
	BorderlineThreshold float64 `yaml:"borderline_threshold"`

	// TopFractionBorderline admits borderline videos in the top fraction
	// of the batch by viral score.
	TopFractionBorderline float64 `yaml:"top_fraction_borderline"`

	// EngagementThreshold admits borderline videos with unweighted
	// engagement strictly above it.
	EngagementThreshold float64 `yaml:"engagement_threshold"`

	// MinResults is filled from the borderline pool when the accepted set
	// is smaller.
	MinResults int `yaml:"min_results"`
}

// DefaultConfig returns the production gate thresholds.
func DefaultConfig() Config {
	return Config{
		ViralityScale:         2.5,
		QualityThreshold:      7.0,
		BorderlineThreshold:   6.2,
		TopFractionBorderline: 0.30,
		EngagementThreshold:   0.08,
		MinResults:            15,
	}
}

// Result is one accepted video with its gate verdict.
type Result struct {
	Video        model.Video
	Breakdown    scoring.Breakdown
	QualityScore float64
	Reason       string
}

// Apply runs the gate over scored candidates and returns only accepted
// videos, each tagged with its decision reason. With any borderline or
// better candidates present the result is never empty.
func Apply(items []scoring.Scored, cfg Config) []Result {
	if len(items) == 0 {
		return nil
	}

	type classified struct {
		item         scoring.Scored
		qualityScore float64
		zone         int // 0 low, 1 borderline, 2 high
	}

	cls := make([]classified, len(items))
	for i, it := range items {
		q := clamp(it.Breakdown.ViralScore*cfg.ViralityScale, 0, 10)
		zone := 0
		switch {
		case q >= cfg.QualityThreshold:
			zone = 2
		case q >= cfg.BorderlineThreshold:
			zone = 1
		}
		cls[i] = classified{item: it, qualityScore: q, zone: zone}
	}

	// Top fraction of the batch by viral score, for borderline acceptance.
	order := make([]int, len(cls))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cls[order[a]].item.Breakdown.ViralScore > cls[order[b]].item.Breakdown.ViralScore
	})
	topCount := int(float64(len(cls)) * cfg.TopFractionBorderline)
	if topCount < 1 {
		topCount = 1
	}
	topSet := make(map[int]struct{}, topCount)
	for _, idx := range order[:topCount] {
		topSet[idx] = struct{}{}
	}

	var accepted []Result
	var borderlinePool []classified

	for i, c := range cls {
		switch c.zone {
		case 2:
			accepted = append(accepted, Result{c.item.Video, c.item.Breakdown, c.qualityScore, ReasonHighQuality})
		case 1:
			if _, top := topSet[i]; top {
				accepted = append(accepted, Result{c.item.Video, c.item.Breakdown, c.qualityScore, ReasonBorderlineHighViral})
			} else if metrics.RawEngagementRate(c.item.Video) > cfg.EngagementThreshold {
				accepted = append(accepted, Result{c.item.Video, c.item.Breakdown, c.qualityScore, ReasonBorderlineEngagement})
			} else {
				borderlinePool = append(borderlinePool, c)
			}
		}
	}

	sort.SliceStable(borderlinePool, func(a, b int) bool {
		return borderlinePool[a].item.Breakdown.ViralScore > borderlinePool[b].item.Breakdown.ViralScore
	})

	if len(accepted) < cfg.MinResults && len(borderlinePool) > 0 {
		needed := cfg.MinResults - len(accepted)
		if needed > len(borderlinePool) {
			needed = len(borderlinePool)
		}
		for _, c := range borderlinePool[:needed] {
			accepted = append(accepted, Result{c.item.Video, c.item.Breakdown, c.qualityScore, ReasonFallbackFill})
		}
	}

	var high, borderline, fallback int
	for _, r := range accepted {
		switch r.Reason {
		case ReasonHighQuality:
			high++
		case ReasonFallbackFill:
			fallback++
		default:
			borderline++
		}
	}
	log.Info().
		Int("accepted", len(accepted)).
		Int("high", high).
		Int("borderline", borderline).
		Int("fallback", fallback).
		Int("borderline_pool", len(borderlinePool)).
		Msg("quality gate applied")

	return accepted
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
