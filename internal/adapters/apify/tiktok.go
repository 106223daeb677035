package apify

import (
	"context"
	"fmt"
	"strings"

	"github.com/puwka/trand/internal/adapters"
	"github.com/puwka/trand/internal/model"
)

// TikTokAdapter ingests TikTok through a hosted scraper actor. It accepts
// the output shapes of the common TikTok scraper actors.
type TikTokAdapter struct {
	client  *Client
	actorID string
	opts    adapters.Options
}

// NewTikTokAdapter builds the adapter for the given actor.
func NewTikTokAdapter(client *Client, actorID string, opts adapters.Options) *TikTokAdapter {
	return &TikTokAdapter{client: client, actorID: actorID, opts: opts}
}

func (a *TikTokAdapter) Platform() string { return model.PlatformTikTok }

// FetchTrending scrapes the viral/fyp hashtags as a trending proxy.
func (a *TikTokAdapter) FetchTrending(ctx context.Context) ([]model.Video, error) {
	perPage := a.opts.MaxResults
	if perPage > 15 {
		perPage = 15
	}
	items, err := a.client.RunActor(ctx, a.actorID, map[string]any{
		"hashtags":       []string{"viral", "fyp"},
		"resultsPerPage": perPage,
	})
	if err != nil {
		return nil, err
	}
	return capVideos(a.normalizeAll(items), a.opts.MaxResults), nil
}

// FetchByKeywords scrapes by search term; only the first keyword is used,
// the actor fans out internally.
func (a *TikTokAdapter) FetchByKeywords(ctx context.Context, keywords []string) ([]model.Video, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	perPage := a.opts.MaxResults * 2
	if perPage > 30 {
		perPage = 30
	}
	items, err := a.client.RunActor(ctx, a.actorID, map[string]any{
		"search":         strings.TrimSpace(keywords[0]),
		"resultsPerPage": perPage,
	})
	if err != nil {
		return nil, err
	}
	return capVideos(a.normalizeAll(items), a.opts.MaxResults*2), nil
}

// FetchFromSources scrapes up to ten user profiles.
func (a *TikTokAdapter) FetchFromSources(ctx context.Context, identifiers []string) ([]model.Video, error) {
	var profiles []string
	for _, ident := range identifiers {
		if u := strings.TrimPrefix(strings.TrimSpace(ident), "@"); u != "" {
			profiles = append(profiles, u)
		}
		if len(profiles) == 10 {
			break
		}
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	perPage := a.opts.MaxResults * 2
	if perPage > 20 {
		perPage = 20
	}
	items, err := a.client.RunActor(ctx, a.actorID, map[string]any{
		"profiles":              profiles,
		"resultsPerPage":        perPage,
		"profileScrapeSections": []string{"videos"},
	})
	if err != nil {
		return nil, err
	}
	return capVideos(a.normalizeAll(items), a.opts.MaxResults*5), nil
}

func (a *TikTokAdapter) normalizeAll(items []map[string]any) []model.Video {
	videos := make([]model.Video, 0, len(items))
	for _, item := range items {
		if v, ok := NormalizeTikTok(item); ok {
			videos = append(videos, v)
		}
	}
	return videos
}

// NormalizeTikTok converts a scraper dataset item to the canonical record.
func NormalizeTikTok(d map[string]any) (model.Video, bool) {
	videoID := strField(d, "id", "videoId")
	if videoID == "" {
		return model.Video{}, false
	}

	authorMeta := mapField(d, "authorMeta")
	channel := mapField(d, "channel")
	if len(channel) == 0 {
		channel = authorMeta
	}
	videoInfo := mapField(d, "videoMeta", "video")

	publishTime := adapters.ParseTimestamp(d["createTimeISO"])
	if publishTime == nil {
		publishTime = adapters.ParseTimestamp(d["createTime"])
	}
	if publishTime == nil {
		publishTime = adapters.ParseTimestamp(d["uploadedAt"])
	}

	text := strField(d, "text", "title", "desc")
	authorUser := strField(channel, "name", "username")
	if authorUser == "" {
		authorUser = strField(authorMeta, "name")
	}
	authorName := strField(channel, "nickName")
	if authorName == "" {
		authorName = strField(authorMeta, "nickName")
	}
	if authorName == "" {
		authorName = authorUser
	}

	pageURL := strField(d, "webVideoUrl", "postPage", "url")
	if pageURL == "" {
		if authorUser != "" {
			pageURL = fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", authorUser, videoID)
		} else {
			pageURL = "https://www.tiktok.com/video/" + videoID
		}
	}

	return model.Video{
		Platform:        model.PlatformTikTok,
		VideoID:         videoID,
		URL:             pageURL,
		AuthorID:        strField(channel, "id"),
		AuthorName:      authorName,
		AuthorFollowers: intField(channel, "fans", "followers"),
		Views:           intField(d, "playCount", "views"),
		Likes:           intField(d, "diggCount", "likes"),
		Comments:        intField(d, "commentCount", "comments"),
		Shares:          intField(d, "shareCount", "shares"),
		PublishTime:     publishTime,
		Duration:        adapters.NormalizeDuration(intField(videoInfo, "duration")),
		Title:           adapters.TruncateTitle(text),
		Description:     text,
		Hashtags:        stringList(d, "hashtags"),
		ThumbnailURL:    strField(videoInfo, "coverUrl", "originalCoverUrl", "cover", "thumbnail"),
		RawPayload:      d,
	}, true
}

func capVideos(videos []model.Video, n int) []model.Video {
	if len(videos) > n {
		return videos[:n]
	}
	return videos
}
