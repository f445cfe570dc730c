package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pricesnap/config"
	"pricesnap/internal/monitoring"
	"pricesnap/internal/scraper"
	"pricesnap/logger"
	"pricesnap/services/cache"
	"pricesnap/services/sink"
	"pricesnap/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	sites, err := config.LoadSites(cfg.SitesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load site list")
	}
	if len(sites) == 0 {
		log.Fatal().Str("path", cfg.SitesPath).Msg("Site list is empty")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("sites", len(sites)).
		Int("workers", cfg.SiteWorkers).
		Int("record_limit", cfg.RecordLimit).
		Msg("Starting snapshot run")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Initialize sinks
	output, err := buildSink(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize output sinks")
	}
	defer output.Close()

	// Optional services
	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
		log.Info().Str("addr", cfg.MemcacheAddr).Msg("Connected to Memcache")
	}

	var metrics *monitoring.Metrics
	if cfg.MetricsAddr != "" {
		metrics = monitoring.NewMetrics()
		metrics.Serve(cfg.MetricsAddr)
		log.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
	}

	// Build one crawl job per site
	jobs := make([]worker.Job, 0, len(sites))
	for _, siteURL := range sites {
		domain := scraper.RegistrableDomain(siteURL)
		task := scraper.SiteTask{
			URL:      siteURL,
			Domain:   domain,
			Override: cfg.OverrideFor(domain),
		}
		jobs = append(jobs, scraper.NewSite(task, cfg, cacheSvc, output, metrics))
	}

	pool := worker.NewPool(ctx, jobs, cfg.SiteWorkers)
	if err := pool.Run(); err != nil {
		log.Fatal().Err(err).Msg("Snapshot run aborted")
	}

	log.Info().Msg("Snapshot run finished")
}

// buildSink assembles the configured output sinks. The JSONL and CSV files
// are always written; Redis and Postgres join in when configured.
func buildSink(ctx context.Context, cfg *config.Config) (*sink.MultiSink, error) {
	var sinks []sink.Sink

	jsonl, err := sink.NewJSONLSink(cfg.OutJSONL)
	if err != nil {
		return nil, err
	}
	sinks = append(sinks, jsonl)

	csv, err := sink.NewCSVSink(cfg.OutCSV)
	if err != nil {
		jsonl.Close()
		return nil, err
	}
	sinks = append(sinks, csv)

	if cfg.RedisAddr != "" {
		sinks = append(sinks, sink.NewRedisSink(ctx, cfg.RedisAddr, cfg.RedisDB,
			cfg.RedisStream, cfg.RedisStreamCount, cfg.RedisStreamMaxLength))
	}

	if cfg.PostgresURL != "" {
		pg, err := sink.NewPostgresSink(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, pg)
	}

	return sink.NewMultiSink(sinks...), nil
}
