package tiktok

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puwka/trand/internal/model"
)

func sampleItem() Item {
	var it Item
	it.ID = "7311111"
	it.Desc = "morning run through the city #running"
	it.CreateTime = 1_740_000_000
	it.Video.Duration = 28
	it.Video.Cover = "https://cdn.example.com/cover.jpg"
	it.Stats.PlayCount = 12_000
	it.Stats.DiggCount = 1_100
	it.Stats.CommentCount = 80
	it.Stats.ShareCount = 40
	it.Author.ID = "u-1"
	it.Author.UniqueID = "runner"
	it.Author.Nickname = "City Runner"
	it.AuthorStats.FollowerCount = 25_000
	it.Music.ID = "sound-7"
	it.Challenges = []struct {
		Title string `json:"title"`
	}{{Title: "running"}, {Title: ""}}
	return it
}

func TestNormalize(t *testing.T) {
	v, ok := Normalize(sampleItem())
	require.True(t, ok)

	assert.Equal(t, model.PlatformTikTok, v.Platform)
	assert.Equal(t, "7311111", v.VideoID)
	assert.Equal(t, "https://www.tiktok.com/@runner/video/7311111", v.URL)
	assert.Equal(t, "City Runner", v.AuthorName)
	assert.Equal(t, int64(25_000), v.AuthorFollowers)
	assert.Equal(t, int64(12_000), v.Views)
	assert.Equal(t, int64(1_100), v.Likes)
	assert.Equal(t, int64(80), v.Comments)
	assert.Equal(t, int64(40), v.Shares)
	assert.Equal(t, int64(28), v.Duration)
	assert.Equal(t, "sound-7", v.SoundID)
	assert.Equal(t, []string{"running"}, v.Hashtags, "empty challenge titles are dropped")
	require.NotNil(t, v.PublishTime)
	assert.Equal(t, int64(1_740_000_000), v.PublishTime.Unix())
}

func TestNormalizeNicknameFallback(t *testing.T) {
	it := sampleItem()
	it.Author.Nickname = ""
	v, ok := Normalize(it)
	require.True(t, ok)
	assert.Equal(t, "runner", v.AuthorName)
}

func TestNormalizeMillisecondDuration(t *testing.T) {
	it := sampleItem()
	it.Video.Duration = 28_000
	v, ok := Normalize(it)
	require.True(t, ok)
	assert.Equal(t, int64(28), v.Duration)
}

func TestNormalizeMissingID(t *testing.T) {
	it := sampleItem()
	it.ID = ""
	_, ok := Normalize(it)
	assert.False(t, ok)
}
