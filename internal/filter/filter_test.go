package filter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puwka/trand/internal/model"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ageVideo(age time.Duration, views, likes int64) model.Video {
	pub := testNow.Add(-age)
	return model.Video{
		Platform:    model.PlatformTikTok,
		VideoID:     "v",
		Views:       views,
		Likes:       likes,
		PublishTime: &pub,
		Duration:    30,
	}
}

func TestEvaluateEarlyAgeProtection(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("enough views passes clean", func(t *testing.T) {
		r := Evaluate(ageVideo(time.Hour, 30, 0), cfg, testNow)
		assert.True(t, r.Passed)
		assert.Equal(t, 1.0, r.Penalty)
	})

	t.Run("low views penalized but still passes", func(t *testing.T) {
		r := Evaluate(ageVideo(time.Hour, 5, 0), cfg, testNow)
		assert.True(t, r.Passed)
		assert.InDelta(t, 0.7, r.Penalty, 1e-9)
	})
}

func TestEvaluateBucketPenalties(t *testing.T) {
	cfg := DefaultConfig()

	// 12h old: bucket max 24h needs 1000 views, 60 likes, 40 vph, 0.025 eng.
	t.Run("all thresholds missed rejects", func(t *testing.T) {
		v := ageVideo(12*time.Hour, 10, 0)
		r := Evaluate(v, cfg, testNow)
		// 0.7 * 0.7 * 0.6 * 0.6 = 0.1764 < 0.25
		assert.False(t, r.Passed)
		assert.InDelta(t, 0.1764, r.Penalty, 1e-6)
	})

	t.Run("strong video passes clean", func(t *testing.T) {
		v := ageVideo(12*time.Hour, 5000, 200)
		v.Comments = 20
		r := Evaluate(v, cfg, testNow)
		assert.True(t, r.Passed)
		assert.Equal(t, 1.0, r.Penalty)
		assert.Equal(t, "ok", r.Reason)
	})

	t.Run("single miss keeps video", func(t *testing.T) {
		// plenty of views, vph, and engagement but weak likes
		v := ageVideo(12*time.Hour, 5000, 10)
		v.Comments = 60
		r := Evaluate(v, cfg, testNow)
		assert.True(t, r.Passed)
		assert.InDelta(t, 0.7, r.Penalty, 1e-9)
	})
}

func TestEvaluateOptionalPenalties(t *testing.T) {
	cfg := DefaultConfig()

	v := ageVideo(12*time.Hour, 5000, 200)
	v.Comments = 20
	v.Duration = 180
	r := Evaluate(v, cfg, testNow)
	assert.True(t, r.Passed)
	assert.InDelta(t, 0.5, r.Penalty, 1e-9)

	v.CommentsDisabled = true
	r = Evaluate(v, cfg, testNow)
	assert.True(t, r.Passed)
	assert.InDelta(t, 0.25, r.Penalty, 1e-9)
}

func TestEvaluateUnknownPublishTimeUses24h(t *testing.T) {
	cfg := DefaultConfig()
	v := model.Video{Platform: model.PlatformTikTok, VideoID: "v", Views: 5, Duration: 30}
	r := Evaluate(v, cfg, testNow)
	// 24h bucket applies, not early-age protection
	assert.False(t, r.Passed)
}

func TestEvaluateBatchSafetyFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinKeep = 5

	// 6 videos, only 1 passes on its own
	videos := []model.Video{ageVideo(time.Hour, 100, 10)}
	for i := 0; i < 5; i++ {
		v := ageVideo(12*time.Hour, 10, 0)
		v.VideoID = fmt.Sprintf("weak-%d", i)
		videos = append(videos, v)
	}

	kept, rejected := EvaluateBatch(videos, cfg, testNow)
	assert.Equal(t, 5, rejected, "rejected count reports pre-promotion rejects")
	require.Len(t, kept, 5, "floor promotes rejects back up to MinKeep")
}

func TestEvaluateBatchNoFloorForSmallBatches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinKeep = 5

	// batch smaller than the floor: no promotion
	videos := []model.Video{
		ageVideo(12*time.Hour, 10, 0),
		ageVideo(12*time.Hour, 11, 0),
	}
	kept, rejected := EvaluateBatch(videos, cfg, testNow)
	assert.Empty(t, kept)
	assert.Equal(t, 2, rejected)
}

func TestEvaluateBatchAllPass(t *testing.T) {
	cfg := DefaultConfig()
	videos := []model.Video{
		ageVideo(time.Hour, 500, 50),
		ageVideo(time.Hour, 800, 60),
	}
	kept, rejected := EvaluateBatch(videos, cfg, testNow)
	assert.Len(t, kept, 2)
	assert.Zero(t, rejected)
}
