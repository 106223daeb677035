package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/puwka/trand/internal/model"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCreatorMultiplier(t *testing.T) {
	cases := []struct {
		followers int64
		want      float64
	}{
		{0, 1.35},
		{49_999, 1.35},
		{50_000, 1.20},
		{149_999, 1.20},
		{150_000, 1.05},
		{499_999, 1.05},
		{500_000, 1.0},
		{2_000_000, 1.0},
		{2_000_001, 0.85},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CreatorMultiplier(tc.followers), "followers=%d", tc.followers)
	}
}

func TestKeywordMatch(t *testing.T) {
	v := model.Video{
		Title:       "My Morning Routine",
		Description: "getting ready for the GYM today",
		Hashtags:    []string{"fitness", "vlog"},
	}
	assert.Equal(t, 1.0, KeywordMatch(v, []string{"gym"}))
	assert.Equal(t, 1.0, KeywordMatch(v, []string{"FITNESS"}))
	assert.Equal(t, 1.0, KeywordMatch(v, []string{"morning"}))
	assert.Equal(t, 0.0, KeywordMatch(v, []string{"cooking"}))
	assert.Equal(t, 0.0, KeywordMatch(v, nil))
	assert.Equal(t, 0.0, KeywordMatch(v, []string{""}))
}

func TestComputeBreakdown(t *testing.T) {
	pub := testNow.Add(-2 * time.Hour)
	v := model.Video{
		Platform:        model.PlatformTikTok,
		VideoID:         "1",
		Views:           10_000,
		Likes:           800,
		Comments:        200,
		Shares:          100,
		AuthorFollowers: 30_000,
		PublishTime:     &pub,
		Title:           "dance challenge",
	}
	w := DefaultWeights()
	b := Compute(v, []string{"dance"}, w, testNow)

	velocityNorm := math.Log(10_000/2.0 + 1)
	interactionNorm := math.Log(((800.0+400.0+300.0)/10_000.0)*100 + 1)
	discussionNorm := math.Log((200.0/800.0)*10 + 1)

	assert.InDelta(t, velocityNorm, b.VelocityNorm, 1e-9)
	assert.InDelta(t, interactionNorm, b.InteractionNorm, 1e-9)
	assert.InDelta(t, discussionNorm, b.DiscussionNorm, 1e-9)
	assert.Equal(t, 1.0, b.KeywordMatch)
	assert.Equal(t, 1.35, b.CreatorMultiplier)
	assert.Equal(t, 1.6, b.Freshness)

	base := velocityNorm*0.45 + interactionNorm*0.30 + discussionNorm*0.15 + 1.0*0.10
	assert.InDelta(t, base*1.35*1.6, b.ViralScore, 1e-9)
}

func TestComputeExplanation(t *testing.T) {
	pub := testNow.Add(-1 * time.Hour)
	hot := model.Video{
		Views:           50_000,
		Likes:           5_000,
		Comments:        500,
		AuthorFollowers: 10_000,
		PublishTime:     &pub,
		Title:           "cats compilation",
	}
	b := Compute(hot, []string{"cats"}, DefaultWeights(), testNow)
	assert.Contains(t, b.Explanation, "high velocity")
	assert.Contains(t, b.Explanation, "strong engagement")
	assert.Contains(t, b.Explanation, "fresh")
	assert.Contains(t, b.Explanation, "small creator")
	assert.Contains(t, b.Explanation, "keyword match")

	dull := model.Video{
		Views:           100,
		Likes:           1,
		AuthorFollowers: 5_000_000,
	}
	b = Compute(dull, nil, DefaultWeights(), testNow)
	assert.Equal(t, "moderate metrics", b.Explanation)
}

func TestComputeFreshnessOrdering(t *testing.T) {
	// identical stats, different ages: fresher scores at least as high
	mk := func(age time.Duration) model.Video {
		pub := testNow.Add(-age)
		return model.Video{Views: 10_000, Likes: 500, PublishTime: &pub}
	}
	w := DefaultWeights()
	fresh := Compute(mk(1*time.Hour), nil, w, testNow)
	stale := Compute(mk(100*time.Hour), nil, w, testNow)
	assert.Greater(t, fresh.ViralScore, stale.ViralScore)
}

func TestComputeUnknownPublishTime(t *testing.T) {
	v := model.Video{Views: 4_800, Likes: 100}
	b := Compute(v, nil, DefaultWeights(), testNow)
	// 24h default: velocity = views/24, freshness weight 1.0
	assert.InDelta(t, math.Log(4_800/24.0+1), b.VelocityNorm, 1e-9)
	assert.Equal(t, 1.0, b.Freshness)
}
