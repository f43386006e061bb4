// Package main provides the entrypoint for the CivicAir API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/civicair/civicair/internal/api"
	"github.com/civicair/civicair/internal/api/middleware"
	"github.com/civicair/civicair/internal/aqi"
	"github.com/civicair/civicair/internal/auth"
	"github.com/civicair/civicair/internal/database"
	"github.com/civicair/civicair/internal/incident"
	"github.com/civicair/civicair/internal/location"
	"github.com/civicair/civicair/internal/notification"
	"github.com/civicair/civicair/internal/provider/geocode"
	"github.com/civicair/civicair/internal/provider/openaq"
	"github.com/civicair/civicair/internal/provider/resilience"
	"github.com/civicair/civicair/internal/provider/waqi"
	"github.com/civicair/civicair/internal/telemetry"
	"github.com/civicair/civicair/internal/user"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "civicair-api"

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
		Msg("starting CivicAir API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
	})

	// Initialize the account service with the SMTP mailer. When SMTP is not
	// configured, codes are logged instead of mailed.
	smtpPort, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	mailer := user.NewSMTPMailer(user.SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     smtpPort,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}, log)

	userService := user.NewService(user.ServiceConfig{
		Users:  user.NewPostgresRepository(pool),
		Mailer: mailer,
		JWT:    jwtService,
		Logger: log,
	})
	log.Info().Msg("account service initialized")

	// Upstream air-quality providers share the global resilience registry so
	// the ops status endpoint can report their circuit state.
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
	log.Info().Msg("air quality service initialized")

	// Notification and incident services
	notificationService := notification.NewService(notification.ServiceConfig{
		Repository: notification.NewPostgresRepository(pool),
		Logger:     log,
	})

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}

	incidentService := incident.NewService(incident.ServiceConfig{
		Incidents:     incident.NewPostgresRepository(pool),
		Admins:        userService,
		Notifications: notificationService,
		Logger:        log,
	})
	log.Info().Msg("incident service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:             Version,
		BuildTime:           BuildTime,
		Logger:              log,
		ServiceName:         serviceName,
		Metrics:             metrics,
		JWTService:          jwtService,
		UserService:         userService,
		AQIService:          aqiService,
		IncidentService:     incidentService,
		NotificationService: notificationService,
		Locations:           location.NewPostgresRepository(pool),
		Images:              incident.NewImageStore(uploadsDir),
		DB:                  pool,
		ProviderRegistry:    resilience.GlobalRegistry,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
