// Package tiktok ingests TikTok videos through the unauthenticated web API:
// the profile page is scraped for the account secUid, then the item_list
// endpoint returns recent posts. An msToken from tiktok.com cookies makes
// the endpoint markedly more reliable.
package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/adapters"
	"github.com/puwka/trand/internal/model"
)

const (
	webBase    = "https://www.tiktok.com"
	webAppID   = "1988"
	maxSources = 10
)

// Adapter fetches TikTok videos via the web API.
type Adapter struct {
	msToken string
	opts    adapters.Options
	client  *http.Client
}

// New builds the adapter. msToken may be empty; fetches then rely on the
// endpoint accepting anonymous requests.
func New(msToken string, opts adapters.Options, client *http.Client) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	if msToken == "" {
		log.Warn().Msg("tiktok: TIKTOK_MS_TOKEN not set, fetches may be unreliable")
	}
	return &Adapter{msToken: msToken, opts: opts, client: client}
}

func (a *Adapter) Platform() string { return model.PlatformTikTok }

// FetchTrending is not served by the anonymous web API; the Apify adapter
// covers trending when enabled.
func (a *Adapter) FetchTrending(ctx context.Context) ([]model.Video, error) {
	return nil, nil
}

// FetchByKeywords searches up to five keywords via the web search endpoint.
func (a *Adapter) FetchByKeywords(ctx context.Context, keywords []string) ([]model.Video, error) {
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	var results []model.Video
	for _, kw := range keywords {
		batch, err := adapters.SafeFetch(ctx, a.Platform(), a.opts, func(ctx context.Context) ([]model.Video, error) {
			return a.search(ctx, kw)
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

// FetchFromSources pulls recent posts from up to ten user profiles.
func (a *Adapter) FetchFromSources(ctx context.Context, identifiers []string) ([]model.Video, error) {
	if len(identifiers) > maxSources {
		identifiers = identifiers[:maxSources]
	}
	var results []model.Video
	for _, ident := range identifiers {
		username := strings.TrimPrefix(strings.TrimSpace(ident), "@")
		if username == "" {
			continue
		}
		batch, err := adapters.SafeFetch(ctx, a.Platform(), a.opts, func(ctx context.Context) ([]model.Video, error) {
			return a.fetchUser(ctx, username)
		})
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

// Item is the web API post shape. Exported for normalization tests.
type Item struct {
	ID         string `json:"id"`
	Desc       string `json:"desc"`
	CreateTime int64  `json:"createTime"`
	Video      struct {
		Duration int64  `json:"duration"`
		Cover    string `json:"cover"`
	} `json:"video"`
	Stats struct {
		PlayCount    int64 `json:"playCount"`
		DiggCount    int64 `json:"diggCount"`
		CommentCount int64 `json:"commentCount"`
		ShareCount   int64 `json:"shareCount"`
	} `json:"stats"`
	Author struct {
		ID       string `json:"id"`
		UniqueID string `json:"uniqueId"`
		Nickname string `json:"nickname"`
	} `json:"author"`
	AuthorStats struct {
		FollowerCount int64 `json:"followerCount"`
	} `json:"authorStats"`
	Music struct {
		ID string `json:"id"`
	} `json:"music"`
	Challenges []struct {
		Title string `json:"title"`
	} `json:"challenges"`
}

type itemListResponse struct {
	ItemList   []Item          `json:"itemList"`
	StatusCode int             `json:"statusCode"`
	StatusMsg  string          `json:"statusMsg"`
	RawItems   json.RawMessage `json:"-"`
}

var secUIDRe = regexp.MustCompile(`"secUid"\s*:\s*"([^"]+)"`)

func (a *Adapter) fetchUser(ctx context.Context, username string) ([]model.Video, error) {
	secUID, err := a.resolveSecUID(ctx, username)
	if err != nil {
		return nil, err
	}
	if secUID == "" {
		log.Warn().Str("username", username).Msg("tiktok: secUid not found on profile page")
		return nil, nil
	}

	count := a.opts.MaxResults
	if count > 20 {
		count = 20
	}
	q := url.Values{
		"aid":    {webAppID},
		"secUid": {secUID},
		"count":  {strconv.Itoa(count)},
		"cursor": {"0"},
	}
	if a.msToken != "" {
		q.Set("msToken", a.msToken)
	}

	var resp itemListResponse
	if err := a.getJSON(ctx, webBase+"/api/post/item_list/?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.StatusCode != 0 {
		return nil, fmt.Errorf("tiktok item_list status %d: %s", resp.StatusCode, resp.StatusMsg)
	}
	return a.normalizeAll(resp.ItemList), nil
}

func (a *Adapter) search(ctx context.Context, keyword string) ([]model.Video, error) {
	count := a.opts.MaxResults
	if count > 20 {
		count = 20
	}
	q := url.Values{
		"aid":     {webAppID},
		"keyword": {keyword},
		"count":   {strconv.Itoa(count)},
	}
	if a.msToken != "" {
		q.Set("msToken", a.msToken)
	}

	var resp struct {
		Data []struct {
			Item Item `json:"item"`
		} `json:"data"`
		StatusCode int `json:"status_code"`
	}
	if err := a.getJSON(ctx, webBase+"/api/search/item/full/?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.StatusCode != 0 {
		return nil, fmt.Errorf("tiktok search status %d", resp.StatusCode)
	}
	items := make([]Item, 0, len(resp.Data))
	for _, d := range resp.Data {
		items = append(items, d.Item)
	}
	return a.normalizeAll(items), nil
}

func (a *Adapter) resolveSecUID(ctx context.Context, username string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, webBase+"/@"+url.PathEscape(username), nil)
	if err != nil {
		return "", err
	}
	setBrowserHeaders(req)
	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tiktok profile page status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if m := secUIDRe.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	return "", nil
}

func (a *Adapter) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	setBrowserHeaders(req)
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tiktok api status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Referer", webBase+"/")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

func (a *Adapter) normalizeAll(items []Item) []model.Video {
	videos := make([]model.Video, 0, len(items))
	for _, item := range items {
		if v, ok := Normalize(item); ok {
			videos = append(videos, v)
		} else {
			log.Warn().Msg("tiktok: skipping item without id")
		}
		if len(videos) >= a.opts.MaxResults {
			break
		}
	}
	return videos
}

// Normalize converts a web API item to the canonical record.
func Normalize(item Item) (model.Video, bool) {
	if item.ID == "" {
		return model.Video{}, false
	}

	hashtags := make([]string, 0, len(item.Challenges))
	for _, c := range item.Challenges {
		if c.Title != "" {
			hashtags = append(hashtags, c.Title)
		}
	}

	shareURL := fmt.Sprintf("%s/@%s/video/%s", webBase, item.Author.UniqueID, item.ID)
	name := item.Author.Nickname
	if name == "" {
		name = item.Author.UniqueID
	}

	return model.Video{
		Platform:        model.PlatformTikTok,
		VideoID:         item.ID,
		URL:             shareURL,
		AuthorID:        item.Author.ID,
		AuthorName:      name,
		AuthorFollowers: item.AuthorStats.FollowerCount,
		Views:           item.Stats.PlayCount,
		Likes:           item.Stats.DiggCount,
		Comments:        item.Stats.CommentCount,
		Shares:          item.Stats.ShareCount,
		PublishTime:     adapters.ParseTimestamp(item.CreateTime),
		Duration:        adapters.NormalizeDuration(item.Video.Duration),
		Title:           adapters.TruncateTitle(item.Desc),
		Description:     item.Desc,
		Hashtags:        hashtags,
		SoundID:         item.Music.ID,
		ThumbnailURL:    item.Video.Cover,
	}, true
}
