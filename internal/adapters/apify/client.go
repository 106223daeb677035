// Package apify holds a reusable client for the Apify actor API plus the
// TikTok and Reels adapters built on hosted scraper actors.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/adapters"
)

const (
	apiBase        = "https://api.apify.com/v2"
	datasetLimit   = 500
	defaultTimeout = 60 * time.Second
	clientRetries  = 2
)

// Client runs Apify actors synchronously and returns their dataset items.
type Client struct {
	token   string
	timeout time.Duration
	http    *http.Client
}

// NewClient builds a client. An empty token disables it: RunActor then
// returns empty with a warning.
func NewClient(token string, timeout time.Duration, httpClient *http.Client) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{token: token, timeout: timeout, http: httpClient}
}

// RunActor runs the actor with the given input and returns its dataset
// items. Failures are logged and yield an empty slice; the only error
// returned is adapters.ErrCreditsExhausted.
func (c *Client) RunActor(ctx context.Context, actorID string, input map[string]any) ([]map[string]any, error) {
	if c.token == "" {
		log.Warn().Msg("apify: APIFY_TOKEN not set, skipping")
		return nil, nil
	}

	var lastErr error
	for attempt := 0; attempt <= clientRetries; attempt++ {
		log.Info().Str("actor", actorID).Int("attempt", attempt+1).Msg("apify run started")
		items, err := c.runOnce(ctx, actorID, input)
		if err == nil {
			log.Info().Str("actor", actorID).Int("items", len(items)).Msg("apify run finished")
			return items, nil
		}
		if adapters.IsCreditsMessage(err.Error()) {
			return nil, fmt.Errorf("%w: %v", adapters.ErrCreditsExhausted, err)
		}
		lastErr = err
		log.Warn().Str("actor", actorID).Err(err).Msg("apify run failed")
		if attempt < clientRetries {
			select {
			case <-time.After(2 * time.Second * time.Duration(attempt+1)):
			case <-ctx.Done():
				return nil, nil
			}
		}
	}
	log.Warn().Str("actor", actorID).Err(lastErr).Msg("apify run gave up")
	return nil, nil
}

func (c *Client) runOnce(ctx context.Context, actorID string, input map[string]any) ([]map[string]any, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	// The path form of an actor id uses "~" instead of "/".
	actorPath := strings.ReplaceAll(actorID, "/", "~")
	q := url.Values{
		"token":   {c.token},
		"timeout": {strconv.Itoa(int(c.timeout.Seconds()))},
		"limit":   {strconv.Itoa(datasetLimit)},
	}
	endpoint := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items?%s", apiBase, actorPath, q.Encode())

	callCtx, cancel := context.WithTimeout(ctx, c.timeout+10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("apify status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var items []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("apify dataset decode: %w", err)
	}
	return items, nil
}
