// Package youtube ingests YouTube Shorts through the Data API v3: a search
// call to collect candidate video IDs, then a videos.list call for
// statistics and content details.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/adapters"
	"github.com/puwka/trand/internal/model"
)

const apiBase = "https://www.googleapis.com/youtube/v3"

// Adapter fetches YouTube Shorts via the Data API v3.
type Adapter struct {
	apiKey string
	opts   adapters.Options
	client *http.Client
}

// New builds the adapter. An empty apiKey disables it: every fetch returns
// an empty batch with a warning.
func New(apiKey string, opts adapters.Options, client *http.Client) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Adapter{apiKey: apiKey, opts: opts, client: client}
}

func (a *Adapter) Platform() string { return model.PlatformYouTube }

// FetchTrending searches for generic shorts.
func (a *Adapter) FetchTrending(ctx context.Context) ([]model.Video, error) {
	if a.apiKey == "" {
		log.Warn().Msg("youtube: YOUTUBE_API_KEY not set, skipping")
		return nil, nil
	}
	return adapters.SafeFetch(ctx, a.Platform(), a.opts, func(ctx context.Context) ([]model.Video, error) {
		return a.searchShorts(ctx, "shorts")
	})
}

// FetchByKeywords searches shorts for up to five keywords.
func (a *Adapter) FetchByKeywords(ctx context.Context, keywords []string) ([]model.Video, error) {
	if a.apiKey == "" {
		log.Warn().Msg("youtube: YOUTUBE_API_KEY not set, skipping")
		return nil, nil
	}
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	var results []model.Video
	for _, kw := range keywords {
		batch, err := adapters.SafeFetch(ctx, a.Platform(), a.opts, func(ctx context.Context) ([]model.Video, error) {
			return a.searchShorts(ctx, kw)
		})
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	if limit := a.opts.MaxResults * 2; len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FetchFromSources pulls recent shorts from up to ten channels, identified
// by channel ID, @handle, or plain name.
func (a *Adapter) FetchFromSources(ctx context.Context, identifiers []string) ([]model.Video, error) {
	if a.apiKey == "" {
		log.Warn().Msg("youtube: YOUTUBE_API_KEY not set, skipping")
		return nil, nil
	}
	if len(identifiers) > 10 {
		identifiers = identifiers[:10]
	}
	var results []model.Video
	for _, id := range identifiers {
		id := strings.TrimSpace(id)
		batch, err := adapters.SafeFetch(ctx, a.Platform(), a.opts, func(ctx context.Context) ([]model.Video, error) {
			return a.fetchFromChannel(ctx, id)
		})
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID   string `json:"videoId"`
			ChannelID string `json:"channelId"`
		} `json:"id"`
		Snippet struct {
			ChannelID string `json:"channelId"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		PublishedAt  string `json:"publishedAt"`
		ChannelID    string `json:"channelId"`
		ChannelTitle string `json:"channelTitle"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		Thumbnails   struct {
			High struct {
				URL string `json:"url"`
			} `json:"high"`
		} `json:"thumbnails"`
	} `json:"snippet"`
	Statistics     map[string]string `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

func (a *Adapter) searchShorts(ctx context.Context, query string) ([]model.Video, error) {
	maxResults := a.opts.MaxResults
	if maxResults > 25 {
		maxResults = 25
	}
	q := url.Values{
		"part":          {"snippet"},
		"q":             {query + " shorts"},
		"type":          {"video"},
		"videoDuration": {"short"},
		"maxResults":    {strconv.Itoa(maxResults)},
	}
	var search searchResponse
	if err := a.get(ctx, "/search", q, &search); err != nil {
		return nil, err
	}
	var ids []string
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	return a.lookupVideos(ctx, ids)
}

func (a *Adapter) fetchFromChannel(ctx context.Context, identifier string) ([]model.Video, error) {
	channelID := identifier
	if !(strings.HasPrefix(identifier, "UC") && len(identifier) >= 24) {
		resolved, err := a.resolveChannel(ctx, strings.TrimPrefix(identifier, "@"))
		if err != nil {
			return nil, err
		}
		if resolved == "" {
			return nil, nil
		}
		channelID = resolved
	}

	maxResults := a.opts.MaxResults
	if maxResults > 25 {
		maxResults = 25
	}
	q := url.Values{
		"part":          {"snippet"},
		"channelId":     {channelID},
		"type":          {"video"},
		"videoDuration": {"short"},
		"order":         {"date"},
		"maxResults":    {strconv.Itoa(maxResults)},
	}
	var search searchResponse
	if err := a.get(ctx, "/search", q, &search); err != nil {
		return nil, err
	}
	var ids []string
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	return a.lookupVideos(ctx, ids)
}

func (a *Adapter) resolveChannel(ctx context.Context, name string) (string, error) {
	q := url.Values{
		"part": {"snippet"},
		"q":    {name},
		"type": {"channel"},
	}
	var search searchResponse
	if err := a.get(ctx, "/search", q, &search); err != nil {
		return "", err
	}
	for _, item := range search.Items {
		if item.Snippet.ChannelID != "" {
			return item.Snippet.ChannelID, nil
		}
		if item.ID.ChannelID != "" {
			return item.ID.ChannelID, nil
		}
	}
	return "", nil
}

func (a *Adapter) lookupVideos(ctx context.Context, ids []string) ([]model.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := url.Values{
		"part": {"snippet,statistics,contentDetails"},
		"id":   {strings.Join(ids, ",")},
	}
	var resp videosResponse
	if err := a.get(ctx, "/videos", q, &resp); err != nil {
		return nil, err
	}
	videos := make([]model.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if v, ok := normalize(item); ok {
			videos = append(videos, v)
		}
	}
	return videos, nil
}

func (a *Adapter) get(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("key", a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusForbidden {
		// Quota errors come back as 403 with a reason in the body.
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if adapters.IsCreditsMessage(apiErr.Error.Message) {
			return fmt.Errorf("%w: %s", adapters.ErrCreditsExhausted, apiErr.Error.Message)
		}
		return fmt.Errorf("youtube api forbidden: %s", apiErr.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("youtube api status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func normalize(item videoItem) (model.Video, bool) {
	if item.ID == "" {
		return model.Video{}, false
	}
	stats := item.Statistics

	// The API omits commentCount entirely when comments are disabled.
	_, hasComments := stats["commentCount"]

	return model.Video{
		Platform:         model.PlatformYouTube,
		VideoID:          item.ID,
		URL:              "https://www.youtube.com/shorts/" + item.ID,
		AuthorID:         item.Snippet.ChannelID,
		AuthorName:       item.Snippet.ChannelTitle,
		Views:            statInt(stats, "viewCount"),
		Likes:            statInt(stats, "likeCount"),
		Comments:         statInt(stats, "commentCount"),
		PublishTime:      adapters.ParseTimestamp(item.Snippet.PublishedAt),
		Duration:         parseISO8601Duration(item.ContentDetails.Duration),
		Title:            adapters.TruncateTitle(item.Snippet.Title),
		Description:      item.Snippet.Description,
		ThumbnailURL:     item.Snippet.Thumbnails.High.URL,
		CommentsDisabled: !hasComments,
	}, true
}

func statInt(stats map[string]string, key string) int64 {
	n, err := strconv.ParseInt(stats[key], 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

var iso8601Re = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

func parseISO8601Duration(s string) int64 {
	m := iso8601Re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	part := func(g string) int64 {
		n, _ := strconv.ParseInt(g, 10, 64)
		return n
	}
	return part(m[1])*3600 + part(m[2])*60 + part(m[3])
}
