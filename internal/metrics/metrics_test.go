package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/puwka/trand/internal/model"
)

func TestHoursSincePublish(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("known publish time", func(t *testing.T) {
		pub := now.Add(-3 * time.Hour)
		assert.InDelta(t, 3.0, HoursSincePublish(&pub, now), 1e-9)
	})

	t.Run("missing publish time defaults to 24h", func(t *testing.T) {
		assert.Equal(t, DefaultHoursUnknown, HoursSincePublish(nil, now))
	})

	t.Run("future publish time floors at 0.1", func(t *testing.T) {
		pub := now.Add(30 * time.Minute)
		assert.Equal(t, 0.1, HoursSincePublish(&pub, now))
	})

	t.Run("just published floors at 0.1", func(t *testing.T) {
		pub := now
		assert.Equal(t, 0.1, HoursSincePublish(&pub, now))
	})
}

func TestEngagementRate(t *testing.T) {
	v := model.Video{Views: 1000, Likes: 50, Comments: 10, Shares: 5}

	// comments weigh 2x, shares 3x
	assert.InDelta(t, (50.0+20.0+15.0)/1000.0, EngagementRate(v), 1e-9)

	// the raw rate is unweighted
	assert.InDelta(t, 65.0/1000.0, RawEngagementRate(v), 1e-9)
}

func TestEngagementRateZeroViews(t *testing.T) {
	v := model.Video{Views: 0, Likes: 10}
	assert.InDelta(t, 10.0, EngagementRate(v), 1e-9)
	assert.InDelta(t, 10.0, RawEngagementRate(v), 1e-9)
}

func TestViewsPerHour(t *testing.T) {
	v := model.Video{Views: 1200}
	assert.InDelta(t, 600.0, ViewsPerHour(v, 2.0), 1e-9)
	assert.Equal(t, 0.0, ViewsPerHour(v, 0))
}

func TestDiscussionScore(t *testing.T) {
	assert.InDelta(t, 0.5, DiscussionScore(model.Video{Likes: 100, Comments: 50}), 1e-9)
	// zero likes clamp to 1
	assert.InDelta(t, 7.0, DiscussionScore(model.Video{Likes: 0, Comments: 7}), 1e-9)
}

func TestFreshness(t *testing.T) {
	cases := []struct {
		hours float64
		want  float64
	}{
		{1, 1.6},
		{2, 1.6},
		{4, 1.4},
		{6, 1.4},
		{12, 1.2},
		{18, 1.2},
		{30, 1.0},
		{48, 1.0},
		{72, 0.7},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Freshness(tc.hours), "hours=%v", tc.hours)
	}
}

func TestAuthorPower(t *testing.T) {
	assert.InDelta(t, 0.0, AuthorPower(0), 1e-9)
	assert.InDelta(t, 3.0, AuthorPower(999), 1e-3)
}
