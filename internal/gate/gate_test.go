package gate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puwka/trand/internal/model"
	"github.com/puwka/trand/internal/scoring"
)

func scored(id string, viralScore float64, v model.Video) scoring.Scored {
	v.Platform = model.PlatformTikTok
	v.VideoID = id
	return scoring.Scored{Video: v, Breakdown: scoring.Breakdown{ViralScore: viralScore}}
}

func reasonsByID(results []Result) map[string]string {
	m := make(map[string]string)
	for _, r := range results {
		m[r.Video.VideoID] = r.Reason
	}
	return m
}

func TestApplyHighQuality(t *testing.T) {
	cfg := DefaultConfig()
	// 3.0 * 2.5 = 7.5 >= 7.0
	out := Apply([]scoring.Scored{scored("a", 3.0, model.Video{})}, cfg)
	require.Len(t, out, 1)
	assert.Equal(t, ReasonHighQuality, out[0].Reason)
	assert.InDelta(t, 7.5, out[0].QualityScore, 1e-9)
}

func TestApplyQualityScoreClamped(t *testing.T) {
	cfg := DefaultConfig()
	out := Apply([]scoring.Scored{scored("a", 99.0, model.Video{})}, cfg)
	require.Len(t, out, 1)
	assert.Equal(t, 10.0, out[0].QualityScore)
}

func TestApplyBorderlineTopFraction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinResults = 0

	// ten candidates; the top 3 by viral score form the top-30% set. The
	// highest is borderline (2.7*2.5=6.75) and is admitted by rank alone.
	items := []scoring.Scored{scored("top", 2.7, model.Video{})}
	for i := 0; i < 9; i++ {
		items = append(items, scored(fmt.Sprintf("low-%d", i), 1.0, model.Video{}))
	}

	out := Apply(items, cfg)
	require.Len(t, out, 1)
	assert.Equal(t, "top", out[0].Video.VideoID)
	assert.Equal(t, ReasonBorderlineHighViral, out[0].Reason)
}

func TestApplyBorderlineEngagement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinResults = 0

	// three borderline candidates with equal scores: all are outside the
	// top-30% set except one; only engaged ones among the rest survive.
	engaged := model.Video{Views: 1000, Likes: 70, Comments: 20, Shares: 10}
	flat := model.Video{Views: 1000, Likes: 10}

	items := []scoring.Scored{
		scored("first", 2.6, flat),
		scored("engaged", 2.5, engaged),
		scored("flat", 2.5, flat),
	}
	out := Apply(items, cfg)
	reasons := reasonsByID(out)

	// topCount = max(1, int(3*0.3)) = 1, stable sort keeps "first" on top
	assert.Equal(t, ReasonBorderlineHighViral, reasons["first"])
	assert.Equal(t, ReasonBorderlineEngagement, reasons["engaged"])
	assert.NotContains(t, reasons, "flat")
}

func TestApplyFallbackFill(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinResults = 3

	flat := model.Video{Views: 1000, Likes: 10}
	items := []scoring.Scored{
		scored("first", 2.6, flat),
		scored("pool-a", 2.55, flat),
		scored("pool-b", 2.5, flat),
		scored("low", 0.5, flat),
	}
	out := Apply(items, cfg)
	reasons := reasonsByID(out)

	require.Len(t, out, 3)
	assert.Equal(t, ReasonBorderlineHighViral, reasons["first"])
	assert.Equal(t, ReasonFallbackFill, reasons["pool-a"])
	assert.Equal(t, ReasonFallbackFill, reasons["pool-b"])
	assert.NotContains(t, reasons, "low")
}

func TestApplyRejectsLowQuality(t *testing.T) {
	cfg := DefaultConfig()
	out := Apply([]scoring.Scored{scored("a", 0.5, model.Video{})}, cfg)
	assert.Empty(t, out)
}

func TestApplyEmptyInput(t *testing.T) {
	assert.Empty(t, Apply(nil, DefaultConfig()))
}

func TestApplyNeverEmptyWithBorderline(t *testing.T) {
	cfg := DefaultConfig()
	flat := model.Video{Views: 1000, Likes: 10}
	var items []scoring.Scored
	for i := 0; i < 5; i++ {
		items = append(items, scored(fmt.Sprintf("b-%d", i), 2.5, flat))
	}
	out := Apply(items, cfg)
	assert.NotEmpty(t, out)
}
