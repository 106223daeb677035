package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puwka/trand/internal/model"
	"github.com/puwka/trand/internal/quality"
)

// discardAll drops every video it is shown.
type discardAll struct{}

func (discardAll) Classify(_ context.Context, _ []model.Video) []model.Video { return nil }

// recorder remembers what it was asked to classify and keeps everything.
type recorder struct {
	seen []model.Video
}

func (r *recorder) Classify(_ context.Context, videos []model.Video) []model.Video {
	r.seen = append(r.seen, videos...)
	return videos
}

func testBatch(n int) []model.Video {
	now := time.Now().UTC()
	videos := make([]model.Video, 0, n)
	for i := 0; i < n; i++ {
		pub := now.Add(-time.Duration(i+1) * time.Hour)
		videos = append(videos, model.Video{
			Platform:    model.PlatformTikTok,
			VideoID:     fmt.Sprintf("v-%d", i),
			Views:       int64(1000 * (i + 1)),
			Likes:       int64(100 * (i + 1)),
			Comments:    int64(10 * (i + 1)),
			PublishTime: &pub,
			Title:       fmt.Sprintf("unique clip number %d with words %d", i, i),
			Duration:    int64(20 + i),
		})
	}
	return videos
}

func TestRunEmptyInput(t *testing.T) {
	p := New(DefaultConfig(), nil)
	res := p.Run(context.Background(), nil, nil)
	assert.Zero(t, res.TotalInput)
	assert.Empty(t, res.Videos)
}

func TestRunNonEmptyInputYieldsOutput(t *testing.T) {
	p := New(DefaultConfig(), quality.PassThrough{})
	res := p.Run(context.Background(), testBatch(10), []string{"clip"})
	assert.Equal(t, 10, res.TotalInput)
	assert.NotEmpty(t, res.Videos)
	assert.Equal(t, len(res.Videos), res.AfterFilter)
}

func TestRunOutputSortedDescending(t *testing.T) {
	p := New(DefaultConfig(), quality.PassThrough{})
	res := p.Run(context.Background(), testBatch(12), nil)
	require.NotEmpty(t, res.Videos)
	for i := 1; i < len(res.Videos); i++ {
		assert.GreaterOrEqual(t,
			res.Videos[i-1].Breakdown.ViralScore,
			res.Videos[i].Breakdown.ViralScore)
	}
}

func TestRunClassifierSeesTopSliceOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinForClassifier = 2
	cfg.TopFractionForClassifier = 0.25

	rec := &recorder{}
	p := New(cfg, rec)
	res := p.Run(context.Background(), testBatch(12), nil)

	// 12 candidates: max(2, 12*0.25) = 3 go to the classifier
	assert.Len(t, rec.seen, 3)
	assert.Equal(t, 3, res.AfterClassifier)
}

func TestRunDiscardingClassifierKeepsRest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinForClassifier = 2
	cfg.TopFractionForClassifier = 0.25

	p := New(cfg, discardAll{})
	res := p.Run(context.Background(), testBatch(12), nil)

	assert.Zero(t, res.AfterClassifier)
	// the untouched rest below the top slice survives
	assert.Len(t, res.Videos, res.AfterFilter-3)
}

func TestRunNilClassifierKeepsEverything(t *testing.T) {
	p := New(DefaultConfig(), nil)
	res := p.Run(context.Background(), testBatch(8), nil)
	assert.Len(t, res.Videos, res.AfterFilter)
}
