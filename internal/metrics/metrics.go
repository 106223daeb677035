// Package metrics computes raw growth signals over a single video: age,
// engagement, velocity, discussion, author power, freshness. It decides
// nothing about thresholds or ranking; that belongs to filter and scoring.
package metrics

import (
	"math"
	"time"

	"github.com/puwka/trand/internal/model"
)

// DefaultHoursUnknown is used when a video has no publish time. The filter
// and the scorer share this single default.
const DefaultHoursUnknown = 24.0

// minHours guards against clock skew producing zero or negative ages.
const minHours = 0.1

// HoursSincePublish returns the video age in hours at time now, floored at
// 0.1 to keep velocity denominators sane. All arithmetic is UTC.
func HoursSincePublish(publishTime *time.Time, now time.Time) float64 {
	if publishTime == nil {
		return DefaultHoursUnknown
	}
	hours := now.UTC().Sub(publishTime.UTC()).Hours()
	return math.Max(hours, minHours)
}

// EngagementRate is the weighted interaction rate: comments and shares are
// worth more than a plain like.
func EngagementRate(v model.Video) float64 {
	views := float64(v.Views)
	if views < 1 {
		views = 1
	}
	weighted := float64(v.Likes) + 2*float64(v.Comments) + 3*float64(v.Shares)
	return weighted / views
}

// RawEngagementRate is the unweighted interaction rate used by the quality
// gate's borderline check.
func RawEngagementRate(v model.Video) float64 {
	views := float64(v.Views)
	if views < 1 {
		views = 1
	}
	return (float64(v.Likes) + float64(v.Comments) + float64(v.Shares)) / views
}

// ViewsPerHour is the view velocity given an already-computed age.
func ViewsPerHour(v model.Video, hours float64) float64 {
	if hours <= 0 {
		return 0
	}
	return float64(v.Views) / hours
}

// DiscussionScore is the comments-to-likes ratio.
func DiscussionScore(v model.Video) float64 {
	likes := float64(v.Likes)
	if likes < 1 {
		likes = 1
	}
	return float64(v.Comments) / likes
}

// AuthorPower maps follower count to a log10 scale: the gap between 1k and
// 10k followers matters more than the gap between 1M and 2M.
func AuthorPower(followers int64) float64 {
	return math.Log10(float64(followers) + 1)
}

// Freshness is the scoring weight by age: newer videos get a boost, stale
// ones a discount.
func Freshness(hours float64) float64 {
	switch {
	case hours <= 2:
		return 1.6
	case hours <= 6:
		return 1.4
	case hours <= 18:
		return 1.2
	case hours <= 48:
		return 1.0
	default:
		return 0.7
	}
}
