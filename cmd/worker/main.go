// Package main provides the entrypoint for the CivicAir ingestion worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/civicair/civicair/internal/aqi"
	"github.com/civicair/civicair/internal/database"
	"github.com/civicair/civicair/internal/location"
	"github.com/civicair/civicair/internal/provider/geocode"
	"github.com/civicair/civicair/internal/provider/openaq"
	"github.com/civicair/civicair/internal/provider/waqi"
	"github.com/civicair/civicair/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "civicair-worker"

	// Local development reads configuration from a .env file.
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CivicAir worker")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	intervalMinutes := 60
	if raw := os.Getenv("REFRESH_INTERVAL_MINUTES"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			log.Fatal().Str("value", raw).Msg("REFRESH_INTERVAL_MINUTES must be a positive integer")
		}
		intervalMinutes = parsed
	}

	// Connect to database
	ctx := context.Background()
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Upstream air-quality providers
	geocoder := geocode.NewClient(geocode.ClientConfig{})

	waqiClient := waqi.NewClient(waqi.ClientConfig{
		APIKey:   os.Getenv("WAQI_API_KEY"),
		Geocoder: geocoder,
		Logger:   log,
	})
	if os.Getenv("WAQI_API_KEY") == "" {
		log.Warn().Msg("WAQI_API_KEY not set - WAQI lookups will fail")
	}

	openaqClient := openaq.NewClient(openaq.ClientConfig{
		APIKey: os.Getenv("OPENAQ_API_KEY"),
		Logger: log,
	})
	if os.Getenv("OPENAQ_API_KEY") == "" {
		log.Warn().Msg("OPENAQ_API_KEY not set - OpenAQ lookups will fail")
	}

	readingRepo := aqi.NewPostgresReadingRepository(pool)
	aqiService := aqi.NewService(aqi.ServiceConfig{
		WAQI:     waqiClient,
		OpenAQ:   openaqClient,
		Readings: readingRepo,
		Logger:   log,
	})

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:    worker.DefaultRefreshConfig(),
		Logger:    log,
		Fetcher:   aqiService,
		Locations: location.NewPostgresRepository(pool),
		Readings:  readingRepo,
	})

	// Schedule the ingestion job. The first run fires immediately so a fresh
	// deploy does not wait a full interval for data.
	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Every(intervalMinutes).Minutes().StartImmediately().Do(func() {
		job.Run(ctx)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule ingestion job")
	}
	scheduler.StartAsync()
	log.Info().
		Int("interval_minutes", intervalMinutes).
		Msg("ingestion job scheduled")

	// Health endpoint for the container platform, with job metrics attached.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"job":     job.MetricsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("worker stopped")
}
