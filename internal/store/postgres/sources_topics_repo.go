package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/puwka/trand/internal/model"
	"github.com/puwka/trand/internal/store"
)

// ListTopics returns all topics newest first.
func (s *Store) ListTopics(ctx context.Context) ([]model.Topic, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	topics := []model.Topic{}
	err := s.db.SelectContext(ctx, &topics,
		`SELECT id, keyword, COALESCE(description, '') AS description, created_at
		 FROM topics ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// CreateTopic inserts a topic.
func (s *Store) CreateTopic(ctx context.Context, keyword, description string) (model.Topic, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var t model.Topic
	err := s.db.GetContext(ctx, &t,
		`INSERT INTO topics (keyword, description) VALUES ($1, $2)
		 RETURNING id, keyword, COALESCE(description, '') AS description, created_at`,
		keyword, description)
	if err != nil {
		return model.Topic{}, fmt.Errorf("create topic: %w", err)
	}
	return t, nil
}

// UpdateTopic patches the non-nil fields of a topic.
func (s *Store) UpdateTopic(ctx context.Context, id string, keyword, description *string) (model.Topic, error) {
	sets, args := patchArgs(map[string]*string{"keyword": keyword, "description": description})
	if len(sets) == 0 {
		return model.Topic{}, fmt.Errorf("update topic: no fields to update")
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE topics SET %s WHERE id = $%d
		 RETURNING id, keyword, COALESCE(description, '') AS description, created_at`,
		strings.Join(sets, ", "), len(args))

	var t model.Topic
	if err := s.db.GetContext(ctx, &t, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Topic{}, fmt.Errorf("%w: topic %s", store.ErrNotFound, id)
		}
		return model.Topic{}, fmt.Errorf("update topic: %w", err)
	}
	return t, nil
}

// DeleteTopic removes a topic by id.
func (s *Store) DeleteTopic(ctx context.Context, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: topic %s", store.ErrNotFound, id)
	}
	return nil
}

// ListSources returns all sources newest first. Callers filter by status.
func (s *Store) ListSources(ctx context.Context) ([]model.Source, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	sources := []model.Source{}
	err := s.db.SelectContext(ctx, &sources,
		`SELECT id, platform, url, status, created_at
		 FROM sources ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// CreateSource inserts a source. Empty status defaults to active.
func (s *Store) CreateSource(ctx context.Context, platform, url, status string) (model.Source, error) {
	if status == "" {
		status = model.SourceActive
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var src model.Source
	err := s.db.GetContext(ctx, &src,
		`INSERT INTO sources (platform, url, status) VALUES ($1, $2, $3)
		 RETURNING id, platform, url, status, created_at`,
		platform, url, status)
	if err != nil {
		return model.Source{}, fmt.Errorf("create source: %w", err)
	}
	return src, nil
}

// UpdateSource patches the non-nil fields of a source.
func (s *Store) UpdateSource(ctx context.Context, id string, platform, url, status *string) (model.Source, error) {
	sets, args := patchArgs(map[string]*string{"platform": platform, "url": url, "status": status})
	if len(sets) == 0 {
		return model.Source{}, fmt.Errorf("update source: no fields to update")
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE sources SET %s WHERE id = $%d
		 RETURNING id, platform, url, status, created_at`,
		strings.Join(sets, ", "), len(args))

	var src model.Source
	if err := s.db.GetContext(ctx, &src, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Source{}, fmt.Errorf("%w: source %s", store.ErrNotFound, id)
		}
		return model.Source{}, fmt.Errorf("update source: %w", err)
	}
	return src, nil
}

// DeleteSource removes a source by id.
func (s *Store) DeleteSource(ctx context.Context, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: source %s", store.ErrNotFound, id)
	}
	return nil
}

// patchArgs builds SET clauses for the non-nil fields in deterministic
// column order.
func patchArgs(fields map[string]*string) ([]string, []any) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	// map order is random; sort for stable SQL
	sort.Strings(cols)

	var sets []string
	var args []any
	for _, col := range cols {
		if v := fields[col]; v != nil {
			args = append(args, *v)
			sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
		}
	}
	return sets, args
}
