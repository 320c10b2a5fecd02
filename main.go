package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"sjsage522/wuweimonitor/config"
	"sjsage522/wuweimonitor/helpers"
	"sjsage522/wuweimonitor/internal/crawler"
	"sjsage522/wuweimonitor/internal/monitor"
	"sjsage522/wuweimonitor/internal/server"
	"sjsage522/wuweimonitor/logger"
	"sjsage522/wuweimonitor/pkg/errors"
	"sjsage522/wuweimonitor/services/cache"
	"sjsage522/wuweimonitor/services/notifier"
	"sjsage522/wuweimonitor/services/publisher"
	"sjsage522/wuweimonitor/services/worker"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("addr", cfg.HTTPAddr).
		Dur("freshness_window", cfg.FreshnessWindow).
		Bool("discover_products", cfg.DiscoverProducts).
		Msg("Starting application")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	reg := prometheus.NewRegistry()

	opts := []monitor.Option{monitor.WithMetrics(monitor.NewMetrics(reg))}
	if services.Publisher != nil {
		n := notifier.New(services.Publisher, services.Cache, cfg.NotifyTTL)
		opts = append(opts, monitor.WithHooks(n.HandleRefresh))
	}
	mon := monitor.New(newCollector(cfg, services.Cache), cfg.FreshnessWindow, opts...)

	errCh := make(chan error, 2)

	if cfg.RefreshSchedule != "" {
		w, err := worker.NewWorker(ctx, mon, logger.ForWorker(), cfg.RefreshSchedule, cfg.IsProduction())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create refresh worker")
		}
		go func() {
			log.Info().Str("schedule", cfg.RefreshSchedule).Msg("Starting refresh worker")
			errCh <- w.Start()
		}()
	}

	srv := server.New(mon, cfg.Location(), cfg.PollInterval, reg)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting HTTP server")
		errCh <- server.Run(ctx, cfg.HTTPAddr, srv.Routes())
	}()

	// Wait for shutdown signal or a component exiting
	select {
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Component exited with error")
		}
		cancel()
	}

	log.Info().Msg("Shutting down gracefully...")
}

// newCollector wires the refresh pipeline: url source, fetcher, assembler
func newCollector(cfg *config.Config, cacheSvc cache.CacheService) *crawler.Collector {
	fetcher := crawler.NewHTTPFetcher(
		helpers.NewClient(cfg.FetchTimeout),
		cfg.ListingURL,
		cacheSvc,
		cfg.RateLimitBlock,
	)

	var source crawler.URLSource = crawler.StaticSource(cfg.ProductURLs)
	if cfg.DiscoverProducts {
		source = &crawler.ListingSource{
			ListingURL: cfg.ListingURL,
			Documents:  fetcher,
			Limit:      cfg.MaxProducts,
		}
	}

	return crawler.NewCollector(source, crawler.NewAssembler(fetcher, cfg.Location()), cfg.RequestDelay)
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		_ = s.Publisher.Close()
	}
}

// initializeServices initializes the cache and, when configured, the publisher
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{Cache: cache.New(cfg.MemcacheAddr)}

	if cfg.MemcacheAddr != "" {
		logger.Info("Using Memcache at %s", cfg.MemcacheAddr)
	} else {
		logger.Info("Using in-process cache")
	}

	if cfg.RedisAddr == "" {
		logger.Info("Redis address not set, target notifications disabled")
		return services, nil
	}

	redisPublisher := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
	if err := redisPublisher.Ping(ctx); err != nil {
		_ = redisPublisher.Close()
		return nil, errors.NewPublisher(cfg.RedisAddr, "failed to connect to redis", err)
	}
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	return services, nil
}
