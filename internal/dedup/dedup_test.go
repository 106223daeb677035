package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/puwka/trand/internal/model"
)

func vid(platform, id, title string) model.Video {
	return model.Video{Platform: platform, VideoID: id, Title: title}
}

func TestDeduplicateSameID(t *testing.T) {
	in := []model.Video{
		vid(model.PlatformTikTok, "1", "first dance challenge clip"),
		vid(model.PlatformTikTok, "1", "totally different words entirely"),
	}
	out := Deduplicate(in)
	assert.Len(t, out, 1)
	assert.Equal(t, "first dance challenge clip", out[0].Title)
}

func TestDeduplicateSamePlatformIDAcrossPlatforms(t *testing.T) {
	// same video_id on different platforms is not a duplicate
	in := []model.Video{
		vid(model.PlatformTikTok, "1", "morning espresso routine vlog"),
		vid(model.PlatformYouTube, "1", "weekend hiking trail review"),
	}
	assert.Len(t, Deduplicate(in), 2)
}

func TestDeduplicateTikTokSoundReuse(t *testing.T) {
	a := vid(model.PlatformTikTok, "1", "alpha beta gamma delta")
	a.SoundID = "snd-9"
	b := vid(model.PlatformTikTok, "2", "epsilon zeta eta theta")
	b.SoundID = "snd-9"
	out := Deduplicate([]model.Video{a, b})
	assert.Len(t, out, 1)
	assert.Equal(t, "1", out[0].VideoID)
}

func TestDeduplicateSoundReuseOtherPlatformsIgnored(t *testing.T) {
	a := vid(model.PlatformReels, "1", "alpha beta gamma delta")
	a.SoundID = "snd-9"
	b := vid(model.PlatformReels, "2", "epsilon zeta eta theta")
	b.SoundID = "snd-9"
	assert.Len(t, Deduplicate([]model.Video{a, b}), 2)
}

func TestDeduplicateNearIdenticalTitles(t *testing.T) {
	a := vid(model.PlatformTikTok, "1", "crazy cat jumps over dog")
	b := vid(model.PlatformYouTube, "2", "crazy cat jumps over dog")
	out := Deduplicate([]model.Video{a, b})
	assert.Len(t, out, 1)
}

func TestDeduplicateDurationAndTitle(t *testing.T) {
	a := vid(model.PlatformTikTok, "1", "sunset beach timelapse italy summer")
	a.Duration = 30
	// three of five words match (cosine 0.6) and duration within 2s
	b := vid(model.PlatformYouTube, "2", "sunset beach timelapse ocean waves")
	b.Duration = 31
	out := Deduplicate([]model.Video{a, b})
	assert.Len(t, out, 1)

	// same titles but far apart in duration and cosine < 0.80 stay distinct
	c := vid(model.PlatformYouTube, "3", "sunset beach timelapse ocean waves")
	c.Duration = 90
	out = Deduplicate([]model.Video{a, c})
	assert.Len(t, out, 2)
}

func TestDeduplicateOrderPreservingAndIdempotent(t *testing.T) {
	in := []model.Video{
		vid(model.PlatformTikTok, "1", "one two three four"),
		vid(model.PlatformReels, "2", "completely unrelated caption here"),
		vid(model.PlatformYouTube, "3", "another separate topic words"),
	}
	out := Deduplicate(in)
	assert.Equal(t, []string{"1", "2", "3"}, []string{out[0].VideoID, out[1].VideoID, out[2].VideoID})

	again := Deduplicate(out)
	assert.Equal(t, out, again)
}

func TestDeduplicateEmpty(t *testing.T) {
	assert.Empty(t, Deduplicate(nil))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity("hello world", "world hello"), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity("", "hello"))
	assert.Equal(t, 0.0, CosineSimilarity("abc def", "ghi jkl"))
	// two of four words shared, sets of size 3 and 3: 2/3
	assert.InDelta(t, 2.0/3.0, CosineSimilarity("a b c", "a b d"), 1e-9)
}
