// Package config loads the runtime configuration from environment variables
// plus an optional YAML thresholds file overriding the scoring, filter, and
// gate defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/puwka/trand/internal/adapters"
	"github.com/puwka/trand/internal/filter"
	"github.com/puwka/trand/internal/gate"
	"github.com/puwka/trand/internal/pipeline"
	"github.com/puwka/trand/internal/scoring"
)

// Config is the full runtime configuration.
type Config struct {
	// Server
	ListenAddr  string
	DatabaseURL string
	RedisAddr   string

	// Worker
	IntervalMinutes int
	Debug           bool
	DryRun          bool

	// Ingestion
	Fetch         adapters.Options
	TikTokEnabled bool
	TikTokMSToken string
	YouTubeAPIKey string
	UseApify      bool
	ApifyToken    string
	ApifyTikTok   string
	ApifyReels    string
	ApifyTimeout  time.Duration

	// Quality classifier
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAISSLVerify bool

	// Pipeline thresholds (defaults, optionally overridden by YAML file).
	Pipeline pipeline.Config
	Gate     gate.Config
}

// Load reads configuration from the environment. When TRAND_CONFIG_FILE is
// set, its thresholds override the built-in defaults.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:      envStr("LISTEN_ADDR", ":8000"),
		DatabaseURL:     envStr("DATABASE_URL", "postgres://localhost:5432/trand?sslmode=disable"),
		RedisAddr:       envStr("REDIS_ADDR", ""),
		IntervalMinutes: envInt("WORKER_INTERVAL_MINUTES", 60),
		Debug:           envBool("DEBUG", false),
		DryRun:          envBool("DRY_RUN", false),
		Fetch: adapters.Options{
			MaxResults: envInt("MAX_RESULTS_PER_PLATFORM", 20),
			Timeout:    time.Duration(envInt("REQUEST_TIMEOUT", 30)) * time.Second,
			RetryCount: envInt("RETRY_COUNT", 3),
			RetryDelay: time.Duration(envFloat("RETRY_DELAY_SECONDS", 2.0) * float64(time.Second)),
		},
		TikTokEnabled:   envBool("TIKTOK_ENABLED", true),
		TikTokMSToken:   envStr("TIKTOK_MS_TOKEN", ""),
		YouTubeAPIKey:   envStr("YOUTUBE_API_KEY", ""),
		UseApify:        envBool("USE_APIFY", false),
		ApifyToken:      envStr("APIFY_TOKEN", ""),
		ApifyTikTok:     envStr("APIFY_TIKTOK_ACTOR", "clockworks/tiktok-scraper"),
		ApifyReels:      envStr("APIFY_REELS_ACTOR", "apify/instagram-scraper"),
		ApifyTimeout:    time.Duration(envInt("APIFY_TIMEOUT_SECS", 60)) * time.Second,
		OpenAIAPIKey:    envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   envStr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:     envStr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAISSLVerify: envBool("OPENAI_SSL_VERIFY", true),
		Pipeline:        pipeline.DefaultConfig(),
		Gate:            gate.DefaultConfig(),
	}

	if path := envStr("TRAND_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// fileConfig is the YAML thresholds override shape. Absent sections keep
// the defaults.
type fileConfig struct {
	Filter  *filter.Config   `yaml:"filter"`
	Weights *scoring.Weights `yaml:"weights"`
	Gate    *gate.Config     `yaml:"gate"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.Filter != nil {
		c.Pipeline.Filter = *fc.Filter
	}
	if fc.Weights != nil {
		c.Pipeline.Weights = *fc.Weights
	}
	if fc.Gate != nil {
		c.Gate = *fc.Gate
	}
	return nil
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
