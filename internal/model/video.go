package model

import (
	"fmt"
	"time"
)

// Platform identifiers as persisted in sources and external IDs.
const (
	PlatformTikTok  = "tiktok"
	PlatformReels   = "reels"
	PlatformYouTube = "youtube"
)

// Video is the unified cross-platform video record. Every adapter converts
// platform-specific payloads into this shape; it lives in memory for one
// pipeline pass only. Identity is (Platform, VideoID).
type Video struct {
	Platform         string         `json:"platform"`
	VideoID          string         `json:"video_id"`
	URL              string         `json:"url"`
	AuthorID         string         `json:"author_id"`
	AuthorName       string         `json:"author_name"`
	AuthorFollowers  int64          `json:"author_followers"`
	Views            int64          `json:"views"`
	Likes            int64          `json:"likes"`
	Comments         int64          `json:"comments"`
	Shares           int64          `json:"shares"`
	PublishTime      *time.Time     `json:"publish_time,omitempty"`
	Duration         int64          `json:"duration"` // seconds
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Hashtags         []string       `json:"hashtags,omitempty"`
	SoundID          string         `json:"sound_id,omitempty"`
	ThumbnailURL     string         `json:"thumbnail_url,omitempty"`
	CommentsDisabled bool           `json:"comments_disabled"`
	RawPayload       map[string]any `json:"-"` // diagnostics only, never scored
}

// ExternalID returns the store uniqueness key "{platform}:{video_id}".
func (v Video) ExternalID() string {
	return fmt.Sprintf("%s:%s", v.Platform, v.VideoID)
}

// SameIdentity reports whether two videos share (platform, video_id).
func (v Video) SameIdentity(other Video) bool {
	return v.Platform == other.Platform && v.VideoID == other.VideoID
}
