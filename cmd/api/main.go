package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wolfman30/voice-booking-agent/cmd/mainconfig"
	"github.com/wolfman30/voice-booking-agent/internal/api/router"
	"github.com/wolfman30/voice-booking-agent/internal/app/bootstrap"
	"github.com/wolfman30/voice-booking-agent/internal/calls"
	appconfig "github.com/wolfman30/voice-booking-agent/internal/config"
	"github.com/wolfman30/voice-booking-agent/internal/http/handlers"
	"github.com/wolfman30/voice-booking-agent/internal/llm"
	"github.com/wolfman30/voice-booking-agent/internal/observability/metrics"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting voice booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		awsCfg = &loaded
	}

	llmClient, err := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to configure completion provider", "error", err)
		os.Exit(1)
	}

	metricsHandler, callMetrics := setupMetrics()

	pool := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	dispatcher := bootstrap.BuildDispatcher(cfg, bootstrap.BuildAppointmentStore(pool, logger), awsCfg, callMetrics, logger)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	archive := bootstrap.BuildTranscriptArchive(redisClient, cfg.TranscriptTTL, logger)

	manager := calls.NewManager(llmClient, dispatcher, managerConfig(cfg), logger,
		calls.WithArchive(archive),
		calls.WithMetrics(callMetrics),
	)

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		CallsHandler:       handlers.NewCallsHandler(manager, logger),
		VoiceAIHandler:     handlers.NewVoiceAIHandler(manager, logger),
		StreamHandler:      handlers.NewStreamHandler(manager, cfg.CORSAllowedOrigins, logger),
		AdminAppointments:  handlers.NewAdminAppointmentsHandler(dispatcher, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		StartCallRate:      cfg.StartCallRate,
		StartCallBurst:     cfg.StartCallBurst,
	})

	// Create HTTP server. No write timeout: the stream endpoint holds
	// websockets open for the length of a call.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...", "active_calls", manager.ActiveCalls())

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (http.Handler, *metrics.CallMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), metrics.NewCallMetrics(registry)
}

func managerConfig(cfg *appconfig.Config) calls.Config {
	return calls.Config{
		ClinicName:  cfg.ClinicName,
		Greeting:    cfg.OpeningPrompt,
		Location:    cfg.Location(),
		MaxTokens:   clampTokens(cfg.LLMMaxTokens),
		Temperature: float32(cfg.LLMTemperature),
		LLMTimeout:  cfg.LLMTimeout,
	}
}

func clampTokens(n int) int32 {
	if n <= 0 {
		return llm.DefaultMaxTokens
	}
	if n > 4096 {
		return 4096
	}
	return int32(n)
}
