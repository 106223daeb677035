package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlatform(t *testing.T) {
	assert.Equal(t, "tiktok", NormalizePlatform("TikTok"))
	assert.Equal(t, "reels", NormalizePlatform("instagram"))
	assert.Equal(t, "reels", NormalizePlatform("reels"))
	assert.Equal(t, "youtube", NormalizePlatform("shorts"))
	assert.Equal(t, "youtube", NormalizePlatform("YouTube"))
}

func TestParseSourceIdentifier(t *testing.T) {
	cases := []struct {
		platform string
		url      string
		want     string
		ok       bool
	}{
		{"tiktok", "https://www.tiktok.com/@charlidamelio", "charlidamelio", true},
		{"tiktok", "https://www.tiktok.com/@user123?lang=en", "user123", true},
		{"tiktok", "someuser", "someuser", true},
		{"tiktok", "", "", false},

		{"reels", "https://www.instagram.com/natgeo", "natgeo", true},
		{"reels", "https://www.instagram.com/natgeo/reels", "natgeo", true},
		{"instagram", "https://instagram.com/zuck?hl=en", "zuck", true},
		{"reels", "plainname", "plainname", true},

		{"shorts", "https://www.youtube.com/channel/UCabcdefghijklmnopqrstuv", "UCabcdefghijklmnopqrstuv", true},
		{"shorts", "https://www.youtube.com/@mkbhd", "@mkbhd", true},
		{"shorts", "https://www.youtube.com/c/SomeChannel", "SomeChannel", true},
		{"youtube", "UCabcdefghijklmnopqrstuv", "UCabcdefghijklmnopqrstuv", true},
		{"youtube", "weird-input", "weird-input", true},
	}
	for _, tc := range cases {
		got, ok := ParseSourceIdentifier(tc.platform, tc.url)
		assert.Equal(t, tc.ok, ok, "url=%q", tc.url)
		if tc.ok {
			assert.Equal(t, tc.want, got, "url=%q", tc.url)
		}
	}
}
