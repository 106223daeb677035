package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/puwka/trand/internal/model"
	"github.com/puwka/trand/internal/store"
)

const uniqueViolation = "23505"

// InsertVideo persists one detected video. A unique-key collision on
// external_id maps to store.ErrDuplicate.
func (s *Store) InsertVideo(ctx context.Context, video model.StoredVideo) (model.StoredVideo, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO videos (source_id, external_id, title, description, ai_summary,
		                    virality_score, is_viral, storage_path, quality_decision_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		video.SourceID, video.ExternalID, video.Title, video.Description, video.AISummary,
		video.ViralityScore, video.IsViral, video.StoragePath, video.QualityDecisionReason).
		Scan(&video.ID, &video.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return model.StoredVideo{}, fmt.Errorf("%w: %s", store.ErrDuplicate, video.ExternalID)
		}
		return model.StoredVideo{}, fmt.Errorf("insert video: %w", err)
	}
	return video, nil
}

// ExistsByExternalID reports whether a video with the key is persisted.
func (s *Store) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM videos WHERE external_id = $1)`, externalID)
	if err != nil {
		return false, fmt.Errorf("exists by external id: %w", err)
	}
	return exists, nil
}

// ListVideos returns stored videos newest first, optionally viral only.
func (s *Store) ListVideos(ctx context.Context, viralOnly bool) ([]model.StoredVideo, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	query := `
		SELECT id, source_id, external_id, title, description, ai_summary,
		       virality_score, is_viral, storage_path, quality_decision_reason, created_at
		FROM videos`
	if viralOnly {
		query += ` WHERE is_viral`
	}
	query += ` ORDER BY created_at DESC`

	videos := []model.StoredVideo{}
	if err := s.db.SelectContext(ctx, &videos, query); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// DeleteVideo removes one video by primary key.
func (s *Store) DeleteVideo(ctx context.Context, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: video %s", store.ErrNotFound, id)
	}
	return nil
}
