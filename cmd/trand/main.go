package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/puwka/trand/internal/adapters"
	"github.com/puwka/trand/internal/adapters/apify"
	"github.com/puwka/trand/internal/adapters/reels"
	"github.com/puwka/trand/internal/adapters/tiktok"
	"github.com/puwka/trand/internal/adapters/youtube"
	"github.com/puwka/trand/internal/collector"
	"github.com/puwka/trand/internal/config"
	"github.com/puwka/trand/internal/httpapi"
	"github.com/puwka/trand/internal/model"
	"github.com/puwka/trand/internal/netutil"
	"github.com/puwka/trand/internal/pipeline"
	"github.com/puwka/trand/internal/quality"
	"github.com/puwka/trand/internal/store/postgres"
	"github.com/puwka/trand/internal/store/rediscache"
	"github.com/puwka/trand/internal/worker"
)

const (
	appName = "trand"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Short-video trend detector",
		Version: version,
		Long: `trand watches configured TikTok, Reels, and YouTube Shorts accounts,
scores fresh videos for viral momentum, and persists the winners.`,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and the background worker",
		RunE:  runServe,
	}
	addCycleFlags(serveCmd.Flags())

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one detection cycle and print its counters",
		RunE:  runScan,
	}
	addCycleFlags(scanCmd.Flags())

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Ad-hoc fetch without scoring or persistence",
	}
	var fetchKeywords string
	fetchTrendingCmd := &cobra.Command{
		Use:   "trending",
		Short: "Fetch trending videos from every enabled platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), nil)
		},
	}
	fetchSearchCmd := &cobra.Command{
		Use:   "search",
		Short: "Fetch videos matching the given keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			kws := splitKeywords(fetchKeywords)
			if len(kws) == 0 {
				return fmt.Errorf("provide --keywords")
			}
			return runFetch(cmd.Context(), kws)
		},
	}
	fetchSearchCmd.Flags().StringVar(&fetchKeywords, "keywords", "", "comma-separated search keywords")
	fetchCmd.AddCommand(fetchTrendingCmd, fetchSearchCmd)

	rootCmd.AddCommand(serveCmd, scanCmd, fetchCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	store  *postgres.Store
	seen   *rediscache.SeenCache
	coll   *collector.Collector
	worker *worker.Worker
}

// addCycleFlags registers the flags shared by serve and scan.
func addCycleFlags(fs *pflag.FlagSet) {
	fs.Bool("dry-run", false, "log would-be saves instead of writing to the store")
}

func buildApp(ctx context.Context, dryRun bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dryRun {
		cfg.DryRun = true
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	st, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	seen := rediscache.New(cfg.RedisAddr, 24*time.Hour)

	coll := collector.New(buildFetchers(cfg))

	var classifier quality.Classifier = quality.PassThrough{}
	if cfg.OpenAIAPIKey != "" {
		classifier = quality.NewLLM(quality.LLMConfig{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     cfg.OpenAIModel,
			SSLVerify: cfg.OpenAISSLVerify,
		})
	}
	pipe := pipeline.New(cfg.Pipeline, classifier)

	w := worker.New(st, seen, coll, pipe, cfg.Gate,
		time.Duration(cfg.IntervalMinutes)*time.Minute, cfg.DryRun)

	return &app{cfg: cfg, store: st, seen: seen, coll: coll, worker: w}, nil
}

// buildFetchers wires one fetcher per platform. Apify-hosted scrapers take
// precedence for TikTok and Reels when enabled.
func buildFetchers(cfg config.Config) []adapters.Fetcher {
	limiter := netutil.NewLimiter(2, 4)
	httpClient := netutil.NewHTTPClient(limiter)

	var fetchers []adapters.Fetcher

	useApify := cfg.UseApify && cfg.ApifyToken != ""
	if useApify {
		client := apify.NewClient(cfg.ApifyToken, cfg.ApifyTimeout, httpClient)
		fetchers = append(fetchers,
			apify.NewTikTokAdapter(client, cfg.ApifyTikTok, cfg.Fetch),
			apify.NewReelsAdapter(client, cfg.ApifyReels, cfg.Fetch),
		)
	} else {
		if cfg.TikTokEnabled {
			fetchers = append(fetchers, tiktok.New(cfg.TikTokMSToken, cfg.Fetch, httpClient))
		}
		fetchers = append(fetchers, reels.New(cfg.Fetch, httpClient))
	}
	fetchers = append(fetchers, youtube.New(cfg.YouTubeAPIKey, cfg.Fetch, httpClient))
	return fetchers
}

func (a *app) close() {
	a.seen.Close()
	a.store.Close()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	a, err := buildApp(ctx, dryRun)
	if err != nil {
		return err
	}
	defer a.close()

	go a.worker.Start(ctx)

	srv := httpapi.New(a.store, a.worker, a.cfg)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	return srv.ListenAndServe()
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	a, err := buildApp(ctx, dryRun)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.worker.RunCycle(ctx)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func runFetch(ctx context.Context, keywords []string) error {
	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	var videos []model.Video
	var errs map[string]error
	if len(keywords) == 0 {
		videos, errs = a.coll.CollectTrending(ctx)
	} else {
		videos, errs = a.coll.CollectByKeywords(ctx, keywords)
	}
	for platform, err := range errs {
		log.Error().Str("platform", platform).Err(err).Msg("fetch error")
	}
	return printJSON(videos)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitKeywords(s string) []string {
	var out []string
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
