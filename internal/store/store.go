// Package store defines the persistence contract for sources, topics, and
// detected videos. The pipeline core only touches four operations:
// ListTopics, ListSources, ExistsByExternalID, InsertVideo. The rest serve
// the HTTP API.
package store

import (
	"context"
	"errors"

	"github.com/puwka/trand/internal/model"
)

// ErrDuplicate reports an insert that collided with the external-ID unique
// key. The worker converts it to a skipped counter.
var ErrDuplicate = errors.New("duplicate record")

// ErrNotFound reports a lookup or delete against a missing row.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract.
type Store interface {
	ListTopics(ctx context.Context) ([]model.Topic, error)
	CreateTopic(ctx context.Context, keyword, description string) (model.Topic, error)
	UpdateTopic(ctx context.Context, id string, keyword, description *string) (model.Topic, error)
	DeleteTopic(ctx context.Context, id string) error

	ListSources(ctx context.Context) ([]model.Source, error)
	CreateSource(ctx context.Context, platform, url, status string) (model.Source, error)
	UpdateSource(ctx context.Context, id string, platform, url, status *string) (model.Source, error)
	DeleteSource(ctx context.Context, id string) error

	// InsertVideo persists one pipeline result. Returns ErrDuplicate when
	// the external ID already exists.
	InsertVideo(ctx context.Context, video model.StoredVideo) (model.StoredVideo, error)
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	ListVideos(ctx context.Context, viralOnly bool) ([]model.StoredVideo, error)
	DeleteVideo(ctx context.Context, id string) error
}
