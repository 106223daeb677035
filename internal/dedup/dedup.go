// Package dedup collapses cross-platform duplicates and reposts from a
// merged fetch batch. Order-preserving: the first occurrence wins.
package dedup

import (
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/model"
)

const (
	titleSimilarityThreshold  = 0.80
	repostSimilarityThreshold = 0.50
	durationToleranceSeconds  = 2
)

// Deduplicate removes duplicate videos from a merged batch:
//   - same (platform, video_id) — keep first
//   - TikTok sound reuse: same non-empty sound_id on the platform
//   - near-identical titles (cosine >= 0.80)
//   - duration within ±2s with similar title (cosine >= 0.50)
//
// The pairwise repost scan is O(n²); n is bounded by the per-cycle result
// budget, which keeps it in the low hundreds.
func Deduplicate(videos []model.Video) []model.Video {
	if len(videos) == 0 {
		return nil
	}

	type key struct{ platform, id string }
	seenIDs := make(map[key]struct{}, len(videos))
	seenSounds := make(map[key]struct{})
	result := make([]model.Video, 0, len(videos))

	for _, v := range videos {
		k := key{v.Platform, v.VideoID}
		if _, ok := seenIDs[k]; ok {
			continue
		}
		seenIDs[k] = struct{}{}

		if v.Platform == model.PlatformTikTok && v.SoundID != "" {
			sk := key{v.Platform, v.SoundID}
			if _, ok := seenSounds[sk]; ok {
				continue
			}
			seenSounds[sk] = struct{}{}
		}

		dupe := false
		for _, r := range result {
			if isRepost(v, r) {
				dupe = true
				break
			}
		}
		if dupe {
			continue
		}

		result = append(result, v)
	}

	log.Debug().Int("in", len(videos)).Int("out", len(result)).Msg("deduplicated batch")
	return result
}

// isRepost reports whether v is likely a repost of an already-emitted video.
func isRepost(v, existing model.Video) bool {
	if v.SameIdentity(existing) {
		return true
	}
	if v.Platform == model.PlatformTikTok && v.SoundID != "" && v.SoundID == existing.SoundID {
		return true
	}
	sim := CosineSimilarity(v.Title, existing.Title)
	if sim >= titleSimilarityThreshold {
		return true
	}
	if absInt64(v.Duration-existing.Duration) <= durationToleranceSeconds && sim >= repostSimilarityThreshold {
		return true
	}
	return false
}

// CosineSimilarity computes word-set cosine similarity between two strings:
// |A∩B| / sqrt(|A|·|B|) over lowercase whitespace-split word sets. Empty
// inputs produce 0.
func CosineSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	common := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			common++
		}
	}
	return float64(common) / math.Sqrt(float64(len(wa))*float64(len(wb)))
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}

func absInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
