// Package reels ingests Instagram Reels through the web profile endpoint.
// Instagram exposes no anonymous trending or keyword search; those fetches
// return empty and the Apify adapter covers keyword search when enabled.
package reels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/puwka/trand/internal/adapters"
	"github.com/puwka/trand/internal/model"
)

const (
	profileInfoURL = "https://www.instagram.com/api/v1/users/web_profile_info/"

	// Public web app id Instagram requires on API calls.
	igAppID = "936619743392459"

	maxSources = 10
)

// Adapter fetches Reels from user profiles.
type Adapter struct {
	opts   adapters.Options
	client *http.Client
}

// New builds the adapter.
func New(opts adapters.Options, client *http.Client) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Adapter{opts: opts, client: client}
}

func (a *Adapter) Platform() string { return model.PlatformReels }

// FetchTrending returns empty: Reels has no global trending surface.
func (a *Adapter) FetchTrending(ctx context.Context) ([]model.Video, error) {
	return nil, nil
}

// FetchByKeywords returns empty: keyword search requires a session.
func (a *Adapter) FetchByKeywords(ctx context.Context, keywords []string) ([]model.Video, error) {
	if len(keywords) > 0 {
		log.Warn().Msg("reels: keyword search requires a session, use the hosted scraper instead")
	}
	return nil, nil
}

// FetchFromSources pulls recent video posts from up to ten profiles.
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

type profileResponse struct {
	Data struct {
		User struct {
			ID       string `json:"id"`
			FullName string `json:"full_name"`
			Username string `json:"username"`
			EdgeFollowedBy struct {
				Count int64 `json:"count"`
			} `json:"edge_followed_by"`
			EdgeOwnerToTimelineMedia struct {
				Edges []struct {
					Node mediaNode `json:"node"`
				} `json:"edges"`
			} `json:"edge_owner_to_timeline_media"`
		} `json:"user"`
	} `json:"data"`
}

type mediaNode struct {
	ID               string  `json:"id"`
	Shortcode        string  `json:"shortcode"`
	IsVideo          bool    `json:"is_video"`
	VideoViewCount   int64   `json:"video_view_count"`
	VideoDuration    float64 `json:"video_duration"`
	TakenAtTimestamp int64   `json:"taken_at_timestamp"`
	DisplayURL       string  `json:"display_url"`
	CommentsDisabled bool    `json:"comments_disabled"`
	EdgeLikedBy      struct {
		Count int64 `json:"count"`
	} `json:"edge_liked_by"`
	EdgeMediaToComment struct {
		Count int64 `json:"count"`
	} `json:"edge_media_to_comment"`
	EdgeMediaToCaption struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`
}

func (a *Adapter) fetchUser(ctx context.Context, username string) ([]model.Video, error) {
	q := url.Values{"username": {username}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileInfoURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("X-IG-App-ID", igAppID)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("instagram profile status %d", resp.StatusCode)
	}

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}

	user := profile.Data.User
	videos := make([]model.Video, 0, a.opts.MaxResults)
	for _, edge := range user.EdgeOwnerToTimelineMedia.Edges {
		node := edge.Node
		if !node.IsVideo {
			continue
		}
		v, ok := normalize(node, user.ID, user.FullName, user.Username, user.EdgeFollowedBy.Count)
		if !ok {
			log.Warn().Str("username", username).Msg("reels: skipping media without id")
			continue
		}
		videos = append(videos, v)
		if len(videos) >= a.opts.MaxResults {
			break
		}
	}
	return videos, nil
}

func normalize(node mediaNode, userID, fullName, username string, followers int64) (model.Video, bool) {
	id := node.Shortcode
	if id == "" {
		id = node.ID
	}
	if id == "" {
		return model.Video{}, false
	}

	caption := ""
	if len(node.EdgeMediaToCaption.Edges) > 0 {
		caption = node.EdgeMediaToCaption.Edges[0].Node.Text
	}

	name := fullName
	if name == "" {
		name = username
	}

	return model.Video{
		Platform:         model.PlatformReels,
		VideoID:          id,
		URL:              "https://www.instagram.com/reel/" + id + "/",
		AuthorID:         userID,
		AuthorName:       name,
		AuthorFollowers:  followers,
		Views:            node.VideoViewCount,
		Likes:            node.EdgeLikedBy.Count,
		Comments:         node.EdgeMediaToComment.Count,
		PublishTime:      adapters.ParseTimestamp(node.TakenAtTimestamp),
		Duration:         adapters.NormalizeDuration(int64(node.VideoDuration)),
		Title:            adapters.TruncateTitle(caption),
		Description:      caption,
		Hashtags:         extractHashtags(caption),
		ThumbnailURL:     node.DisplayURL,
		CommentsDisabled: node.CommentsDisabled,
	}, true
}

func extractHashtags(caption string) []string {
	var tags []string
	for _, word := range strings.Fields(caption) {
		if strings.HasPrefix(word, "#") && len(word) > 1 {
			tags = append(tags, strings.TrimPrefix(word, "#"))
		}
	}
	return tags
}
