// Package pipeline orchestrates filter, scoring, and the quality classifier
// into a single ranking pass over a fetched batch. Non-empty input always
// yields non-empty output.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/filter"
	"github.com/puwka/trand/internal/model"
	"github.com/puwka/trand/internal/quality"
	"github.com/puwka/trand/internal/scoring"
)

// Config bundles the stage configurations.
type Config struct {
	Filter  filter.Config
	Weights scoring.Weights

	// The classifier only sees the top fraction of the ranked batch,
	// never fewer than MinForClassifier.
	TopFractionForClassifier float64
	MinForClassifier         int
}

// DefaultConfig returns the production pipeline settings.
func DefaultConfig() Config {
	return Config{
		Filter:                   filter.DefaultConfig(),
		Weights:                  scoring.DefaultWeights(),
		TopFractionForClassifier: 0.30,
		MinForClassifier:         5,
	}
}

// Result carries the ranked output plus per-stage counts.
type Result struct {
	Videos           []scoring.Scored
	TotalInput       int
	AfterFilter      int
	AfterClassifier  int
	RejectedByFilter int
}

// Pipeline runs the ranking stages with a fixed classifier.
type Pipeline struct {
	cfg        Config
	classifier quality.Classifier
}

// New builds a pipeline. A nil classifier means keep everything.
func New(cfg Config, classifier quality.Classifier) *Pipeline {
	if classifier == nil {
		classifier = quality.PassThrough{}
	}
	return &Pipeline{cfg: cfg, classifier: classifier}
}

// Run processes a batch:
//  1. age-aware soft filter with the batch safety floor
//  2. score every surviving candidate
//  3. multiply viral score by the filter penalty
//  4. sort by penalized score descending
//  5. send the top slice through the quality classifier
//  6. merge classifier survivors with the untouched rest and re-sort
func (p *Pipeline) Run(ctx context.Context, videos []model.Video, topicKeywords []string) Result {
	total := len(videos)
	if total == 0 {
		return Result{}
	}
	now := time.Now().UTC()

	candidates, rejected := filter.EvaluateBatch(videos, p.cfg.Filter, now)
	log.Info().
		Int("input", total).
		Int("candidates", len(candidates)).
		Int("rejected", rejected).
		Msg("age filter complete")

	scored := make([]scoring.Scored, 0, len(candidates))
	for _, c := range candidates {
		b := scoring.Compute(c.Video, topicKeywords, p.cfg.Weights, now)
		b.ViralScore *= c.Penalty
		scored = append(scored, scoring.Scored{Video: c.Video, Breakdown: b})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Breakdown.ViralScore > scored[j].Breakdown.ViralScore
	})

	nTop := int(float64(len(scored)) * p.cfg.TopFractionForClassifier)
	if nTop < p.cfg.MinForClassifier {
		nTop = p.cfg.MinForClassifier
	}
	if nTop > len(scored) {
		nTop = len(scored)
	}
	top := scored[:nTop]
	rest := scored[nTop:]

	var passed []scoring.Scored
	if len(top) > 0 {
		topVideos := make([]model.Video, len(top))
		for i, s := range top {
			topVideos[i] = s.Video
		}
		kept := p.classifier.Classify(ctx, topVideos)
		keptIDs := make(map[string]struct{}, len(kept))
		for _, v := range kept {
			keptIDs[v.ExternalID()] = struct{}{}
		}
		for _, s := range top {
			if _, ok := keptIDs[s.Video.ExternalID()]; ok {
				passed = append(passed, s)
			}
		}
		log.Info().
			Int("checked", len(top)).
			Int("kept", len(passed)).
			Int("discarded", len(top)-len(passed)).
			Msg("quality classifier complete")
	}

	out := append(passed, rest...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Breakdown.ViralScore > out[j].Breakdown.ViralScore
	})

	return Result{
		Videos:           out,
		TotalInput:       total,
		AfterFilter:      len(candidates),
		AfterClassifier:  len(passed),
		RejectedByFilter: rejected,
	}
}
