package apify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puwka/trand/internal/model"
)

func TestNormalizeTikTok(t *testing.T) {
	item := map[string]any{
		"id":            "7312345",
		"text":          "crazy skateboard trick #skate",
		"createTimeISO": "2026-03-01T10:00:00Z",
		"playCount":     float64(150_000),
		"diggCount":     float64(12_000),
		"commentCount":  float64(900),
		"shareCount":    float64(400),
		"webVideoUrl":   "https://www.tiktok.com/@skater/video/7312345",
		"hashtags":      []any{map[string]any{"name": "skate"}},
		"authorMeta": map[string]any{
			"id":       "u-1",
			"name":     "skater",
			"nickName": "Skater Person",
			"fans":     float64(42_000),
		},
		"videoMeta": map[string]any{
			"duration": float64(23),
			"coverUrl": "https://cdn.example.com/cover.jpg",
		},
	}

	v, ok := NormalizeTikTok(item)
	require.True(t, ok)

	assert.Equal(t, model.PlatformTikTok, v.Platform)
	assert.Equal(t, "7312345", v.VideoID)
	assert.Equal(t, "https://www.tiktok.com/@skater/video/7312345", v.URL)
	assert.Equal(t, "Skater Person", v.AuthorName)
	assert.Equal(t, int64(42_000), v.AuthorFollowers)
	assert.Equal(t, int64(150_000), v.Views)
	assert.Equal(t, int64(12_000), v.Likes)
	assert.Equal(t, int64(900), v.Comments)
	assert.Equal(t, int64(400), v.Shares)
	assert.Equal(t, int64(23), v.Duration)
	assert.Equal(t, []string{"skate"}, v.Hashtags)
	assert.Equal(t, "https://cdn.example.com/cover.jpg", v.ThumbnailURL)
	require.NotNil(t, v.PublishTime)
	assert.Equal(t, 2026, v.PublishTime.Year())
}

func TestNormalizeTikTokFallbackFields(t *testing.T) {
	item := map[string]any{
		"videoId":    "999",
		"desc":       "fallback description",
		"createTime": float64(1_740_000_000),
		"views":      float64(500),
		"likes":      float64(50),
		"channel": map[string]any{
			"username":  "fallbackuser",
			"followers": float64(1_000),
		},
	}

	v, ok := NormalizeTikTok(item)
	require.True(t, ok)
	assert.Equal(t, "999", v.VideoID)
	assert.Equal(t, "fallbackuser", v.AuthorName)
	assert.Equal(t, int64(1_000), v.AuthorFollowers)
	assert.Equal(t, int64(500), v.Views)
	// no page url in the payload: one gets constructed
	assert.Equal(t, "https://www.tiktok.com/@fallbackuser/video/999", v.URL)
	require.NotNil(t, v.PublishTime)
	assert.Equal(t, int64(1_740_000_000), v.PublishTime.Unix())
}

func TestNormalizeTikTokMissingID(t *testing.T) {
	_, ok := NormalizeTikTok(map[string]any{"text": "no id here"})
	assert.False(t, ok)
}

func TestNormalizeReel(t *testing.T) {
	item := map[string]any{
		"type":           "Video",
		"shortCode":      "Cxyz123",
		"caption":        "sunset at the beach #sunset",
		"url":            "https://www.instagram.com/reel/Cxyz123/",
		"ownerUsername":  "traveler",
		"ownerFullName":  "The Traveler",
		"ownerId":        "owner-9",
		"videoViewCount": float64(88_000),
		"likesCount":     float64(7_000),
		"commentsCount":  float64(300),
		"videoDuration":  float64(15),
		"timestamp":      "2026-03-01T08:00:00Z",
		"displayUrl":     "https://cdn.example.com/thumb.jpg",
	}

	v, ok := NormalizeReel(item)
	require.True(t, ok)
	assert.Equal(t, model.PlatformReels, v.Platform)
	assert.Equal(t, "Cxyz123", v.VideoID)
	assert.Equal(t, "The Traveler", v.AuthorName)
	assert.Equal(t, int64(88_000), v.Views)
	assert.Equal(t, int64(15), v.Duration)
	assert.Equal(t, "https://cdn.example.com/thumb.jpg", v.ThumbnailURL)
	require.NotNil(t, v.PublishTime)
}

func TestNormalizeReelSkipsImagePosts(t *testing.T) {
	_, ok := NormalizeReel(map[string]any{"type": "Image", "id": "img-1"})
	assert.False(t, ok)

	_, ok = NormalizeReel(map[string]any{"type": "Sidecar", "shortCode": "abc"})
	assert.False(t, ok)
}

func TestNormalizeReelIDFallback(t *testing.T) {
	v, ok := NormalizeReel(map[string]any{"type": "clips", "id": "raw-id-1"})
	require.True(t, ok)
	assert.Equal(t, "raw-id-1", v.VideoID)
	assert.Equal(t, "https://www.instagram.com/reel/raw-id-1/", v.URL)

	_, ok = NormalizeReel(map[string]any{"type": "reel"})
	assert.False(t, ok)
}
