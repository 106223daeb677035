// Package filter implements the age-aware soft filter. It ranks rather than
// eliminates: each video gets a multiplicative penalty in (0,1] from
// age-dependent thresholds, and only collapses below 0.25 reject. Bad videos
// sink; the batch never empties.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/metrics"
	"github.com/puwka/trand/internal/model"
)

// Config holds the age-aware thresholds and penalty factors. Zero values are
// never used directly; construct with DefaultConfig.
type Config struct {
	// Reject when the accumulated penalty drops below this.
	MinPenaltyToKeep float64 `yaml:"min_penalty_to_keep"`

	// Early-age protection: under this age only views are checked.
	EarlyAgeHours    float64 `yaml:"early_age_hours"`
	EarlyAgeMinViews int64   `yaml:"early_age_min_views"`

	// Buckets must be ordered by ascending MaxHours; the last bucket's
	// MaxHours is ignored (catch-all).
	Buckets []Bucket `yaml:"buckets"`

	// Penalty multipliers applied per failed threshold.
	PenaltyViews      float64 `yaml:"penalty_views"`
	PenaltyLikes      float64 `yaml:"penalty_likes"`
	PenaltyVPH        float64 `yaml:"penalty_vph"`
	PenaltyEngagement float64 `yaml:"penalty_engagement"`

	// Optional penalties: never reject on their own.
	MaxDurationSeconds      int64   `yaml:"max_duration_seconds"`
	PenaltyDuration         float64 `yaml:"penalty_duration"`
	PenaltyCommentsDisabled float64 `yaml:"penalty_comments_disabled"`

	// Batch safety floor: promote top-penalty rejects until this many pass.
	MinKeep int `yaml:"min_keep"`
}

// Bucket is one age band of dynamic minimums.
type Bucket struct {
	MaxHours      float64 `yaml:"max_hours"`
	MinViews      int64   `yaml:"min_views"`
	MinLikes      int64   `yaml:"min_likes"`
	MinVPH        float64 `yaml:"min_vph"`
	MinEngagement float64 `yaml:"min_engagement"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MinPenaltyToKeep: 0.25,
		EarlyAgeHours:    2.0,
		EarlyAgeMinViews: 30,
		Buckets: []Bucket{
			{MaxHours: 1, MinViews: 50, MinLikes: 5, MinVPH: 10, MinEngagement: 0.010},
			{MaxHours: 6, MinViews: 300, MinLikes: 20, MinVPH: 25, MinEngagement: 0.020},
			{MaxHours: 24, MinViews: 1000, MinLikes: 60, MinVPH: 40, MinEngagement: 0.025},
			{MaxHours: 72, MinViews: 4000, MinLikes: 200, MinVPH: 60, MinEngagement: 0.030},
			{MaxHours: 0, MinViews: 10000, MinLikes: 400, MinVPH: 80, MinEngagement: 0.035},
		},
		PenaltyViews:            0.7,
		PenaltyLikes:            0.7,
		PenaltyVPH:              0.6,
		PenaltyEngagement:       0.6,
		MaxDurationSeconds:      120,
		PenaltyDuration:         0.5,
		PenaltyCommentsDisabled: 0.5,
		MinKeep:                 40,
	}
}

// Result is a single-video verdict.
type Result struct {
	Passed  bool
	Penalty float64
	Reason  string
}

// Candidate pairs a passing video with its penalty for downstream scoring.
type Candidate struct {
	Video   model.Video
	Penalty float64
}

// Evaluate applies the age-aware filter to one video at time now.
func Evaluate(v model.Video, cfg Config, now time.Time) Result {
	hours := metrics.HoursSincePublish(v.PublishTime, now)
	penalty := 1.0
	var reasons []string

	// Early-age protection: brand-new videos always reach scoring.
	if hours < cfg.EarlyAgeHours {
		if v.Views >= cfg.EarlyAgeMinViews {
			return Result{Passed: true, Penalty: 1.0, Reason: "early-age protection"}
		}
		penalty *= cfg.PenaltyViews
		return Result{Passed: true, Penalty: penalty, Reason: "low views (early age)"}
	}

	b := cfg.bucketFor(hours)
	eng := metrics.EngagementRate(v)
	vph := metrics.ViewsPerHour(v, hours)

	if v.Views < b.MinViews {
		penalty *= cfg.PenaltyViews
		reasons = append(reasons, fmt.Sprintf("views %d < %d (age %.0fh)", v.Views, b.MinViews, hours))
	}
	if v.Likes < b.MinLikes {
		penalty *= cfg.PenaltyLikes
		reasons = append(reasons, fmt.Sprintf("likes %d < %d (age %.0fh)", v.Likes, b.MinLikes, hours))
	}
	if vph < b.MinVPH {
		penalty *= cfg.PenaltyVPH
		reasons = append(reasons, fmt.Sprintf("vph %.1f < %.1f (age %.0fh)", vph, b.MinVPH, hours))
	}
	if eng < b.MinEngagement {
		penalty *= cfg.PenaltyEngagement
		reasons = append(reasons, fmt.Sprintf("engagement %.4f < %.4f (age %.0fh)", eng, b.MinEngagement, hours))
	}

	// Optional penalties, never a reject on their own.
	if v.Duration > cfg.MaxDurationSeconds {
		penalty *= cfg.PenaltyDuration
		reasons = append(reasons, "long duration")
	}
	if v.CommentsDisabled {
		penalty *= cfg.PenaltyCommentsDisabled
		reasons = append(reasons, "comments disabled")
	}

	passed := penalty >= cfg.MinPenaltyToKeep
	reason := "ok"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}
	return Result{Passed: passed, Penalty: penalty, Reason: reason}
}

// EvaluateBatch filters a batch and enforces the safety floor: when fewer
// than MinKeep pass and the batch is at least MinKeep, rejected videos with
// the highest penalties are promoted until MinKeep is reached. The returned
// count is the number rejected before promotion.
func EvaluateBatch(videos []model.Video, cfg Config, now time.Time) ([]Candidate, int) {
	var passed, rejected []Candidate
	for _, v := range videos {
		r := Evaluate(v, cfg, now)
		c := Candidate{Video: v, Penalty: r.Penalty}
		if r.Passed {
			passed = append(passed, c)
		} else {
			rejected = append(rejected, c)
			log.Debug().
				Str("video_id", v.VideoID).
				Str("platform", v.Platform).
				Float64("penalty", r.Penalty).
				Str("reason", r.Reason).
				Msg("age filter rejected")
		}
	}
	originallyRejected := len(rejected)

	if len(passed) < cfg.MinKeep && len(videos) >= cfg.MinKeep {
		sort.SliceStable(rejected, func(i, j int) bool {
			return rejected[i].Penalty > rejected[j].Penalty
		})
		needed := cfg.MinKeep - len(passed)
		if needed > len(rejected) {
			needed = len(rejected)
		}
		passed = append(passed, rejected[:needed]...)
		log.Debug().Int("promoted", needed).Int("floor", cfg.MinKeep).Msg("age filter safety floor applied")
	}

	return passed, originallyRejected
}

func (c Config) bucketFor(hours float64) Bucket {
	for i, b := range c.Buckets {
		if i == len(c.Buckets)-1 {
			return b
		}
		if hours <= b.MaxHours {
			return b
		}
	}
	return Bucket{}
}
