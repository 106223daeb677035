package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puwka/trand/internal/model"
)

func TestPassThroughKeepsEverything(t *testing.T) {
	videos := []model.Video{
		{Platform: model.PlatformTikTok, VideoID: "1"},
		{Platform: model.PlatformReels, VideoID: "2"},
	}
	assert.Equal(t, videos, PassThrough{}.Classify(context.Background(), videos))
}

// chatServer answers every chat-completions call with the given body.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestLLM(baseURL string) *LLM {
	return NewLLM(LLMConfig{
		APIKey:    "test-key",
		BaseURL:   baseURL,
		Model:     "gpt-4o-mini",
		SSLVerify: true,
	})
}

func TestLLMClassifyKeeps(t *testing.T) {
	srv := chatServer(t, `{"keep": true}`)
	defer srv.Close()

	videos := []model.Video{{Platform: model.PlatformTikTok, VideoID: "1", Title: "original trend"}}
	kept := newTestLLM(srv.URL).Classify(context.Background(), videos)
	assert.Equal(t, videos, kept)
}

func TestLLMClassifyDiscards(t *testing.T) {
	srv := chatServer(t, `{"keep": false}`)
	defer srv.Close()

	videos := []model.Video{{Platform: model.PlatformTikTok, VideoID: "1", Title: "obvious spam"}}
	kept := newTestLLM(srv.URL).Classify(context.Background(), videos)
	assert.Empty(t, kept)
}

func TestLLMClassifyExtractsEmbeddedJSON(t *testing.T) {
	srv := chatServer(t, "Sure, here is my verdict:\n```json\n{\"keep\": false}\n```")
	defer srv.Close()

	kept := newTestLLM(srv.URL).Classify(context.Background(), []model.Video{{VideoID: "1"}})
	assert.Empty(t, kept)
}

func TestLLMClassifyKeepsOnUnparsableVerdict(t *testing.T) {
	srv := chatServer(t, "I cannot decide.")
	defer srv.Close()

	videos := []model.Video{{VideoID: "1"}}
	kept := newTestLLM(srv.URL).Classify(context.Background(), videos)
	assert.Equal(t, videos, kept)
}

func TestLLMClassifyKeepsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	videos := []model.Video{{VideoID: "1"}}
	kept := newTestLLM(srv.URL).Classify(context.Background(), videos)
	assert.Equal(t, videos, kept)
}

func TestLLMClassifyKeepsOnUnreachableBackend(t *testing.T) {
	videos := []model.Video{{VideoID: "1"}}
	kept := newTestLLM("http://127.0.0.1:1").Classify(context.Background(), videos)
	assert.Equal(t, videos, kept)
}

func TestLLMClassifyPreservesOrder(t *testing.T) {
	// keep every second video by id parity
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		keep := false
		for i := 0; i < 10; i += 2 {
			if len(req.Messages) > 0 &&
				strings.Contains(req.Messages[0].Content, fmt.Sprintf("Title: clip %d\n", i)) {
				keep = true
			}
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": fmt.Sprintf(`{"keep": %t}`, keep)}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	var videos []model.Video
	for i := 0; i < 6; i++ {
		videos = append(videos, model.Video{VideoID: fmt.Sprint(i), Title: fmt.Sprintf("clip %d", i)})
	}
	kept := newTestLLM(srv.URL).Classify(context.Background(), videos)
	require.Len(t, kept, 3)
	assert.Equal(t, "0", kept[0].VideoID)
	assert.Equal(t, "2", kept[1].VideoID)
	assert.Equal(t, "4", kept[2].VideoID)
}
