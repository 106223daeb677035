// Package scoring computes the multi-stage viral score. The score favors
// early momentum over raw popularity: log-normalized velocity and engagement
// weighted together, then shaped by creator size and freshness.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/metrics"
	"github.com/puwka/trand/internal/model"
)

// Weights are the stage-5 component weights of the final score.
type Weights struct {
	Velocity     float64 `yaml:"velocity"`
	Interaction  float64 `yaml:"interaction"`
	Discussion   float64 `yaml:"discussion"`
	KeywordMatch float64 `yaml:"keyword_match"`
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{Velocity: 0.45, Interaction: 0.30, Discussion: 0.15, KeywordMatch: 0.10}
}

// Breakdown retains every intermediate of the scoring stages plus a short
// human-readable explanation of which signals fired.
type Breakdown struct {
	ViralScore        float64 `json:"viral_score"`
	VelocityNorm      float64 `json:"velocity_norm"`
	InteractionNorm   float64 `json:"interaction_norm"`
	DiscussionNorm    float64 `json:"discussion_norm"`
	KeywordMatch      float64 `json:"keyword_match"`
	CreatorMultiplier float64 `json:"creator_multiplier"`
	Freshness         float64 `json:"freshness"`
	Explanation       string  `json:"explanation"`
}

// Scored pairs a video with its (possibly penalized) breakdown.
type Scored struct {
	Video     model.Video
	Breakdown Breakdown
}

// Compute runs the five scoring stages for one video at time now.
func Compute(v model.Video, topicKeywords []string, w Weights, now time.Time) Breakdown {
	hours := metrics.HoursSincePublish(v.PublishTime, now)

	// Stage 1: raw signals.
	velocityRaw := metrics.ViewsPerHour(v, hours)
	interactionRaw := metrics.EngagementRate(v)
	discussionRaw := metrics.DiscussionScore(v)

	// Stage 2: log normalization keeps outlier view counts from dominating.
	velocityNorm := math.Log(velocityRaw + 1)
	interactionNorm := math.Log(interactionRaw*100 + 1)
	discussionNorm := math.Log(discussionRaw*10 + 1)

	// Stage 3: creator multiplier surfaces small-creator breakouts.
	creatorMult := CreatorMultiplier(v.AuthorFollowers)

	// Stage 4: freshness weight.
	freshness := metrics.Freshness(hours)

	// Stage 5: keyword match and the final weighted score.
	kwMatch := KeywordMatch(v, topicKeywords)

	base := velocityNorm*w.Velocity +
		interactionNorm*w.Interaction +
		discussionNorm*w.Discussion +
		kwMatch*w.KeywordMatch
	viralScore := base * creatorMult * freshness

	var parts []string
	if velocityRaw > 50 {
		parts = append(parts, "high velocity")
	}
	if interactionRaw > 0.05 {
		parts = append(parts, "strong engagement")
	}
	if freshness >= 1.2 {
		parts = append(parts, "fresh")
	}
	if v.AuthorFollowers < 150_000 {
		parts = append(parts, "small creator")
	}
	if kwMatch > 0 {
		parts = append(parts, "keyword match")
	}
	explanation := "moderate metrics"
	if len(parts) > 0 {
		explanation = strings.Join(parts, " + ")
	}

	log.Debug().
		Str("video_id", v.VideoID).
		Float64("score", viralScore).
		Float64("v_norm", velocityNorm).
		Float64("i_norm", interactionNorm).
		Float64("d_norm", discussionNorm).
		Float64("kw", kwMatch).
		Float64("creator_mult", creatorMult).
		Float64("freshness", freshness).
		Str("explanation", explanation).
		Msg("viral score")

	return Breakdown{
		ViralScore:        viralScore,
		VelocityNorm:      velocityNorm,
		InteractionNorm:   interactionNorm,
		DiscussionNorm:    discussionNorm,
		KeywordMatch:      kwMatch,
		CreatorMultiplier: creatorMult,
		Freshness:         freshness,
		Explanation:       explanation,
	}
}

// CreatorMultiplier boosts small creators and discounts mega accounts.
func CreatorMultiplier(followers int64) float64 {
	switch {
	case followers < 50_000:
		return 1.35
	case followers < 150_000:
		return 1.20
	case followers < 500_000:
		return 1.05
	case followers > 2_000_000:
		return 0.85
	default:
		return 1.0
	}
}

// KeywordMatch returns 1.0 when any topic keyword occurs (case-insensitive
// substring) in the title, description, or hashtags; else 0.0.
func KeywordMatch(v model.Video, topicKeywords []string) float64 {
	if len(topicKeywords) == 0 {
		return 0.0
	}
	text := strings.ToLower(v.Title) + " " +
		strings.ToLower(v.Description) + " " +
		strings.ToLower(strings.Join(v.Hashtags, " "))
	for _, kw := range topicKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return 1.0
		}
	}
	return 0.0
}
