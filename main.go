package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jakangroup/catalogworker/config"
	"jakangroup/catalogworker/internal/catalog"
	"jakangroup/catalogworker/logger"
	"jakangroup/catalogworker/services/cache"
	"jakangroup/catalogworker/services/publisher"
	"jakangroup/catalogworker/services/sink"
	"jakangroup/catalogworker/services/worker"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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

	log.Info().
		Str("environment", cfg.Environment).
		Int("targets", len(cfg.Targets)).
		Int("strategies", len(cfg.Strategies)).
		Msg("Starting catalog crawl")

	// Set up context cancelled by shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	metrics := catalog.NewMetrics()
	metricsServer := startMetricsServer(cfg.MetricsAddr, metrics)

	engine := catalog.NewEngine(
		catalog.NewHTTPFetcher(services.Cache, cfg.BlockTime),
		catalog.NewTileParser(config.DefaultSelectors()),
		cfg.Strategies,
	)
	engine.DelayMin = cfg.DelayMin
	engine.DelayMax = cfg.DelayMax
	engine.Metrics = metrics

	w := worker.NewWorker(engine, cfg.Targets, services.Sinks, services.Publisher)

	summary, err := w.Run(ctx)
	shutdownMetricsServer(metricsServer)
	if err != nil {
		log.Error().Err(err).Msg("Crawl run failed")
		services.Cleanup()
		os.Exit(1)
	}

	log.Info().
		Int("targets", summary.Targets).
		Int("failed_targets", summary.FailedTargets).
		Int("pages", summary.PagesFetched).
		Int("products", summary.Products).
		Dur("elapsed", summary.Elapsed).
		Msg("Crawl complete")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Sinks     []sink.Sink
	Publisher publisher.Publisher
}

// Cleanup closes all services
func (s *Services) Cleanup() {
	for _, snk := range s.Sinks {
		if err := snk.Close(); err != nil {
			logger.ForComponent("main").Error().Err(err).Msg("Sink close failed")
		}
	}
	s.Sinks = nil
	if s.Publisher != nil {
		s.Publisher.Close()
		s.Publisher = nil
	}
}

// initializeServices initializes the cache, sinks, and publisher from the
// configuration. At least one sink is guaranteed by config validation.
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}
	log := logger.ForComponent("main")

	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		log.Info().Str("addr", cfg.MemcacheAddr).Msg("Rate-limit cache enabled")
	}

	if cfg.OutputFile != "" {
		csvSink, err := sink.NewCSVSink(cfg.OutputFile)
		if err != nil {
			return nil, err
		}
		services.Sinks = append(services.Sinks, csvSink)
		log.Info().Str("file", cfg.OutputFile).Msg("CSV sink enabled")
	}

	if cfg.WarehouseDSN != "" {
		warehouseSink, err := sink.NewWarehouseSink(ctx, cfg.WarehouseDSN, cfg.WarehouseTable)
		if err != nil {
			services.Cleanup()
			return nil, err
		}
		services.Sinks = append(services.Sinks, warehouseSink)
		log.Info().Str("table", cfg.WarehouseTable).Msg("Warehouse sink enabled")
	}

	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		log.Info().
			Str("addr", cfg.RedisAddr).
			Str("stream", cfg.RedisStream).
			Msg("Stream publisher enabled")
	}

	return services, nil
}

func startMetricsServer(addr string, metrics *catalog.Metrics) *http.Server {
	if addr == "" {
		return nil
	}

	server := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ForComponent("metrics").Error().Err(err).Msg("Metrics server failed")
		}
	}()
	logger.ForComponent("metrics").Info().Str("addr", addr).Msg("Metrics server enabled")
	return server
}

func shutdownMetricsServer(server *http.Server) {
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.ForComponent("metrics").Error().Err(err).Msg("Metrics server shutdown failed")
	}
}
