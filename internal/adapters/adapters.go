// Package adapters defines the platform fetcher contract plus the shared
// retry, timeout, and normalization helpers every platform implementation
// uses. Adapters swallow their own failures and return empty batches; the
// single error allowed across the boundary is ErrCreditsExhausted.
package adapters

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/model"
)

// ErrCreditsExhausted signals that the upstream scraping account has run out
// of paid quota. The orchestrator skips the platform for the rest of the
// cycle and surfaces the message to the user.
var ErrCreditsExhausted = errors.New("scraper credits exhausted")

// Fetcher is the per-platform ingestion contract. The worker only calls
// FetchFromSources; FetchTrending and FetchByKeywords back the fetch CLI.
type Fetcher interface {
	Platform() string
	FetchFromSources(ctx context.Context, identifiers []string) ([]model.Video, error)
	FetchTrending(ctx context.Context) ([]model.Video, error)
	FetchByKeywords(ctx context.Context, keywords []string) ([]model.Video, error)
}

// Options bounds every adapter's network behavior.
type Options struct {
	MaxResults int
	Timeout    time.Duration
	RetryCount int
	RetryDelay time.Duration
}

// DefaultOptions returns the production bounds.
func DefaultOptions() Options {
	return Options{
		MaxResults: 20,
		Timeout:    30 * time.Second,
		RetryCount: 3,
		RetryDelay: 2 * time.Second,
	}
}

// Retry runs fn up to opts.RetryCount times with linearly increasing backoff
// (base delay times attempt number). ErrCreditsExhausted aborts immediately.
func Retry(ctx context.Context, platform string, opts Options, fn func(context.Context) ([]model.Video, error)) ([]model.Video, error) {
	var lastErr error
	for attempt := 1; attempt <= opts.RetryCount; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		videos, err := fn(callCtx)
		cancel()
		if err == nil {
			return videos, nil
		}
		if errors.Is(err, ErrCreditsExhausted) {
			return nil, err
		}
		lastErr = err
		if attempt < opts.RetryCount {
			delay := opts.RetryDelay * time.Duration(attempt)
			log.Warn().
				Str("platform", platform).
				Int("attempt", attempt).
				Dur("retry_in", delay).
				Err(err).
				Msg("fetch attempt failed")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// SafeFetch wraps Retry with the adapter error policy: generic failures log
// and yield an empty batch, only credits exhaustion propagates.
func SafeFetch(ctx context.Context, platform string, opts Options, fn func(context.Context) ([]model.Video, error)) ([]model.Video, error) {
	start := time.Now()
	videos, err := Retry(ctx, platform, opts, fn)
	if err != nil {
		if errors.Is(err, ErrCreditsExhausted) {
			return nil, err
		}
		log.Error().Str("platform", platform).Err(err).Msg("fetch failed")
		return nil, nil
	}
	log.Debug().
		Str("platform", platform).
		Int("videos", len(videos)).
		Dur("elapsed", time.Since(start)).
		Msg("fetch complete")
	return videos, nil
}

var creditsKeywords = []string{"credit", "usage limit", "quota", "exceeded", "plan limit", "insufficient"}

// IsCreditsMessage reports whether an upstream error message indicates an
// exhausted account rather than a transient failure.
func IsCreditsMessage(msg string) bool {
	m := strings.ToLower(msg)
	for _, kw := range creditsKeywords {
		if strings.Contains(m, kw) {
			return true
		}
	}
	return false
}

// ParseTimestamp coerces the timestamp shapes platforms emit: RFC 3339,
// naive ISO-8601 (promoted to UTC), epoch seconds, or epoch milliseconds.
// Unparseable input yields nil, meaning unknown publish time.
func ParseTimestamp(raw any) *time.Time {
	switch v := raw.(type) {
	case nil:
		return nil
	case time.Time:
		t := v.UTC()
		return &t
	case float64:
		return epochToTime(int64(v))
	case int64:
		return epochToTime(v)
	case int:
		return epochToTime(int64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epochToTime(n)
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			t = t.UTC()
			return &t
		}
		// Some payloads carry naive ISO-8601 with no zone offset.
		if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
			t = t.UTC()
			return &t
		}
		return nil
	default:
		return nil
	}
}

func epochToTime(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	// Millisecond epochs are 13 digits for any modern date.
	if n > 1e12 {
		n /= 1000
	}
	t := time.Unix(n, 0).UTC()
	return &t
}

// NormalizeDuration converts a raw duration to seconds: values over 1000
// are assumed to be milliseconds.
func NormalizeDuration(d int64) int64 {
	if d < 0 {
		return 0
	}
	if d > 1000 {
		return d / 1000
	}
	return d
}

// TruncateTitle caps a title at 500 characters. The cut counts runes, not
// bytes, so multibyte titles stay valid UTF-8.
func TruncateTitle(s string) string {
	const maxTitle = 500
	if utf8.RuneCountInString(s) <= maxTitle {
		return s
	}
	return string([]rune(s)[:maxTitle])
}
