package collector

import (
	"regexp"
	"strings"

	"github.com/puwka/trand/internal/model"
)

// NormalizePlatform maps user-facing platform names onto the canonical keys.
func NormalizePlatform(platform string) string {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "tiktok":
		return model.PlatformTikTok
	case "reels", "instagram":
		return model.PlatformReels
	case "shorts", "youtube":
		return model.PlatformYouTube
	default:
		return strings.ToLower(strings.TrimSpace(platform))
	}
}

var (
	tiktokUserRe    = regexp.MustCompile(`(?i)tiktok\.com/@([^/?]+)`)
	instagramUserRe = regexp.MustCompile(`(?i)instagram\.com/([^/?]+)`)
	youtubeChanRe   = regexp.MustCompile(`(?i)youtube\.com/channel/(UC[\w-]+)`)
	youtubeHandleRe = regexp.MustCompile(`(?i)youtube\.com/@([^/?]+)`)
	youtubeCustomRe = regexp.MustCompile(`(?i)youtube\.com/c/([^/?]+)`)
)

// ParseSourceIdentifier turns a user-entered source URL into the identifier
// its platform adapter expects. Empty input yields ok=false.
func ParseSourceIdentifier(platform, rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}

	switch NormalizePlatform(platform) {
	case model.PlatformTikTok:
		if m := tiktokUserRe.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
		return lastSegment(rawURL)
	case model.PlatformReels:
		if m := instagramUserRe.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
		return lastSegment(rawURL)
	case model.PlatformYouTube:
		if m := youtubeChanRe.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
		if m := youtubeHandleRe.FindStringSubmatch(rawURL); m != nil {
			return "@" + m[1], true
		}
		if m := youtubeCustomRe.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
		if strings.HasPrefix(rawURL, "UC") && len(rawURL) >= 24 {
			return rawURL, true
		}
		return rawURL, true
	default:
		return rawURL, true
	}
}

func lastSegment(rawURL string) (string, bool) {
	parts := strings.Split(strings.Trim(rawURL, "/"), "/")
	seg := parts[len(parts)-1]
	if seg == "" {
		return "", false
	}
	return seg, true
}
