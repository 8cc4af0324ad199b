package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/quantpulse/optionsengine/internal/api"
	"github.com/quantpulse/optionsengine/internal/api/handlers"
	"github.com/quantpulse/optionsengine/internal/cache"
	"github.com/quantpulse/optionsengine/internal/config"
	"github.com/quantpulse/optionsengine/internal/engine"
	"github.com/quantpulse/optionsengine/internal/indicators"
	"github.com/quantpulse/optionsengine/internal/logging"
	"github.com/quantpulse/optionsengine/internal/marketdata"
	"github.com/quantpulse/optionsengine/internal/monitor"
	"github.com/quantpulse/optionsengine/internal/telegram"
	"github.com/quantpulse/optionsengine/internal/telemetry"
	"github.com/quantpulse/optionsengine/internal/volatility"
)

func main() {
	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize tracing")
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("Tracer shutdown failed")
			}
		}()
	}

	// Optional Redis-backed signal cache.
	var signals *cache.RedisSignalCache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable, signal cache disabled")
		} else {
			signals = cache.NewRedisSignalCache(client, 2*cfg.MarketData.ScanIntervalDuration(), logger)
			defer client.Close()
		}
	}

	notifier, err := telegram.NewNotifier(cfg.Telegram, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize Telegram notifier")
	}

	fetcher := marketdata.NewHTTPFetcher(cfg.MarketData.QuoteURL, cfg.MarketData.TimeoutDuration(), logger)
	history := cache.NewHistoryCache(cfg.MarketData.HistoryCap)
	ind := indicators.NewEngine(cfg.Indicators, logger)
	vol := volatility.NewEstimator(cfg.Volatility, logger)
	gen := engine.NewGenerator(cfg, vol, nil, nil, logger)
	risk := engine.NewRiskManager(cfg.Risk, cfg.Scoring.MinConfidence, logger)

	var pipelineNotifier engine.Notifier
	if notifier.Enabled() {
		pipelineNotifier = notifier
	}
	mon := monitor.NewMonitor(logger)
	pipeline := engine.NewPipeline(cfg, fetcher, history, ind, gen, risk, signals, pipelineNotifier, mon, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background scan loop and performance logging.
	go func() {
		if err := pipeline.Run(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Scan loop stopped")
		}
	}()
	go mon.LogPeriodically(ctx, 5*time.Minute)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(telemetry.ServiceName))
	api.SetupRoutes(router, handlers.New(cfg, pipeline, history, ind, signals, mon, logger))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
