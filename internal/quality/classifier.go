// Package quality holds the pluggable keep/discard classifier applied to the
// top slice of scored candidates. Implementations filter, never rank; on a
// per-item error the item is kept so good content is not lost to flakiness.
package quality

import (
	"context"

	"github.com/puwka/trand/internal/model"
)

// Classifier decides which of the given videos to keep. The returned slice
// is a subset of the input in input order. Implementations must be stable:
// the same input yields the same keep/drop partition.
type Classifier interface {
	Classify(ctx context.Context, videos []model.Video) []model.Video
}

// PassThrough keeps everything. Used when no LLM backend is configured.
type PassThrough struct{}

// Classify returns the input unchanged.
func (PassThrough) Classify(_ context.Context, videos []model.Video) []model.Video {
	return videos
}
