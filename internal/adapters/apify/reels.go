package apify

import (
	"context"
	"strings"

	"github.com/puwka/trand/internal/adapters"
	"github.com/puwka/trand/internal/model"
)

// ReelsAdapter ingests Instagram Reels through a hosted Instagram scraper
// actor. Image posts in the dataset are skipped.
type ReelsAdapter struct {
	client  *Client
	actorID string
	opts    adapters.Options
}

// NewReelsAdapter builds the adapter for the given actor.
func NewReelsAdapter(client *Client, actorID string, opts adapters.Options) *ReelsAdapter {
	return &ReelsAdapter{client: client, actorID: actorID, opts: opts}
}

func (a *ReelsAdapter) Platform() string { return model.PlatformReels }

// FetchTrending returns empty: Reels has no global trending surface.
func (a *ReelsAdapter) FetchTrending(ctx context.Context) ([]model.Video, error) {
	return nil, nil
}

// FetchByKeywords scrapes a hashtag; only the first keyword is used.
func (a *ReelsAdapter) FetchByKeywords(ctx context.Context, keywords []string) ([]model.Video, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	tag := strings.TrimPrefix(strings.TrimSpace(keywords[0]), "#")
	if tag == "" {
		tag = "viral"
	}
	limit := a.opts.MaxResults * 2
	if limit > 50 {
		limit = 50
	}
	items, err := a.client.RunActor(ctx, a.actorID, map[string]any{
		"search":       tag,
		"searchType":   "hashtag",
		"searchLimit":  3,
		"resultsType":  "posts",
		"resultsLimit": limit,
	})
	if err != nil {
		return nil, err
	}
	return capVideos(a.normalizeAll(items), a.opts.MaxResults*2), nil
}

// FetchFromSources scrapes up to ten profiles by direct URL.
func (a *ReelsAdapter) FetchFromSources(ctx context.Context, identifiers []string) ([]model.Video, error) {
	var urls []string
	for _, ident := range identifiers {
		if u := strings.TrimPrefix(strings.TrimSpace(ident), "@"); u != "" {
			urls = append(urls, "https://www.instagram.com/"+u+"/")
		}
		if len(urls) == 10 {
			break
		}
	}
	if len(urls) == 0 {
		return nil, nil
	}
	limit := a.opts.MaxResults * 5
	if limit > 100 {
		limit = 100
	}
	items, err := a.client.RunActor(ctx, a.actorID, map[string]any{
		"directUrls":   urls,
		"resultsType":  "posts",
		"resultsLimit": limit,
	})
	if err != nil {
		return nil, err
	}
	return capVideos(a.normalizeAll(items), a.opts.MaxResults*5), nil
}

func (a *ReelsAdapter) normalizeAll(items []map[string]any) []model.Video {
	videos := make([]model.Video, 0, len(items))
	for _, item := range items {
		if v, ok := NormalizeReel(item); ok {
			videos = append(videos, v)
		}
	}
	return videos
}

var reelTypes = map[string]struct{}{"video": {}, "reel": {}, "clips": {}}

// NormalizeReel converts a scraper dataset item to the canonical record.
// Non-video items and items without an id are dropped.
func NormalizeReel(d map[string]any) (model.Video, bool) {
	if t := strings.ToLower(strings.TrimSpace(strField(d, "type"))); t != "" {
		if _, ok := reelTypes[t]; !ok {
			return model.Video{}, false
		}
	}

	shortCode := strField(d, "shortCode")
	videoID := shortCode
	if videoID == "" {
		videoID = strField(d, "id")
	}
	if videoID == "" {
		return model.Video{}, false
	}

	caption := strField(d, "caption")
	pageURL := strField(d, "url")
	if pageURL == "" {
		pageURL = "https://www.instagram.com/reel/" + videoID + "/"
	}

	ownerUser := strField(d, "ownerUsername")
	ownerName := strField(d, "ownerFullName")
	if ownerName == "" {
		ownerName = ownerUser
	}

	thumb := ""
	if imgs, ok := d["images"].([]any); ok && len(imgs) > 0 {
		thumb, _ = imgs[0].(string)
	}
	if thumb == "" {
		thumb = strField(d, "displayUrl")
	}

	publishTime := adapters.ParseTimestamp(d["timestamp"])
	if publishTime == nil {
		publishTime = adapters.ParseTimestamp(d["takenAt"])
	}

	return model.Video{
		Platform:         model.PlatformReels,
		VideoID:          videoID,
		URL:              pageURL,
		AuthorID:         strField(d, "ownerId"),
		AuthorName:       ownerName,
		Views:            intField(d, "videoViewCount", "playCount", "viewCount", "video_view_count"),
		Likes:            intField(d, "likesCount", "likeCount"),
		Comments:         intField(d, "commentsCount", "commentCount"),
		Shares:           intField(d, "sharesCount", "shareCount"),
		PublishTime:      publishTime,
		Duration:         adapters.NormalizeDuration(intField(d, "videoDuration", "duration")),
		Title:            adapters.TruncateTitle(caption),
		Description:      caption,
		Hashtags:         stringList(d, "hashtags"),
		ThumbnailURL:     thumb,
		CommentsDisabled: boolField(d, "commentsDisabled"),
		RawPayload:       d,
	}, true
}
