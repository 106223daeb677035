package quality

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/model"
)

// LLMConfig configures the chat-completions backend used for classification.
// Any OpenAI-compatible endpoint works.
type LLMConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	SSLVerify bool
	Timeout   time.Duration
}

// LLM classifies videos as spam / repost / low-effort template / real trend
// format via a chat-completions call per video. Keep-or-discard only; ranking
// stays with the scorer. Per-video errors default to keep.
type LLM struct {
	cfg    LLMConfig
	client *http.Client
}

// NewLLM builds a classifier against the configured endpoint.
func NewLLM(cfg LLMConfig) *LLM {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	transport := http.DefaultTransport
	if !cfg.SSLVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &LLM{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// Classify returns the subset of videos the model keeps, in input order.
func (c *LLM) Classify(ctx context.Context, videos []model.Video) []model.Video {
	kept := make([]model.Video, 0, len(videos))
	for _, v := range videos {
		if c.keep(ctx, v) {
			kept = append(kept, v)
		} else {
			log.Debug().Str("video_id", v.VideoID).Str("platform", v.Platform).Msg("quality classifier discarded")
		}
	}
	return kept
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

func (c *LLM) keep(ctx context.Context, v model.Video) bool {
	prompt := buildPrompt(v)

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	})
	if err != nil {
		return true
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Str("video_id", v.VideoID).Msg("quality classifier request build failed, keeping")
		return true
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("video_id", v.VideoID).Msg("quality classifier call failed, keeping")
		return true
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("video_id", v.VideoID).Msg("quality classifier non-200, keeping")
		return true
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Choices) == 0 {
		log.Warn().Err(err).Str("video_id", v.VideoID).Msg("quality classifier bad response, keeping")
		return true
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if m := jsonObjectRe.FindString(content); m != "" {
		content = m
	}
	var verdict struct {
		Keep bool `json:"keep"`
	}
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		log.Warn().Err(err).Str("video_id", v.VideoID).Msg("quality classifier unparsable verdict, keeping")
		return true
	}
	return verdict.Keep
}

func buildPrompt(v model.Video) string {
	title := truncate(v.Title, 500)
	desc := truncate(v.Description, 800)
	hashtags := v.Hashtags
	if len(hashtags) > 20 {
		hashtags = hashtags[:20]
	}
	return fmt.Sprintf(`Classify this video content. Categories:
- spam: promotional, unrelated, clickbait with no substance
- repost: likely reupload/duplicate of existing viral content
- low-effort template: generic template, low originality
- real trend format: original or creative take on a trend, worth keeping

Video:
Title: %s
Description: %s
Hashtags: %s

Return ONLY valid JSON: {"keep": true} or {"keep": false}
Do not rank. Only filter quality: keep real trend format, discard spam/repost/low-effort.
`, title, desc, strings.Join(hashtags, " "))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
