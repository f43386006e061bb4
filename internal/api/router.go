// Package api provides the HTTP API for CivicAir.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/civicair/civicair/internal/api/handler"
	"github.com/civicair/civicair/internal/api/middleware"
	"github.com/civicair/civicair/internal/aqi"
	"github.com/civicair/civicair/internal/auth"
	"github.com/civicair/civicair/internal/incident"
	"github.com/civicair/civicair/internal/location"
	"github.com/civicair/civicair/internal/notification"
	"github.com/civicair/civicair/internal/provider/resilience"
	"github.com/civicair/civicair/internal/user"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version             string
	BuildTime           string
	Logger              zerolog.Logger
	ServiceName         string
	Metrics             *middleware.Metrics
	JWTService          *auth.JWTService
	UserService         *user.Service
	AQIService          *aqi.Service
	IncidentService     *incident.Service
	NotificationService *notification.Service
	Locations           location.Repository
	Images              *incident.ImageStore
	DB                  handler.Pinger
	ProviderRegistry    *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "civicair-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB, cfg.ProviderRegistry)
	authHandler := handler.NewAuthHandler(cfg.UserService)
	aqiHandler := handler.NewAQIHandler(cfg.AQIService)
	locationHandler := handler.NewLocationHandler(cfg.Locations)
	userHandler := handler.NewUserHandler(cfg.UserService)
	incidentHandler := handler.NewIncidentHandler(cfg.IncidentService, cfg.Images)
	notificationHandler := handler.NewNotificationHandler(cfg.NotificationService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.JWTService)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Post("/send-otp", authHandler.SendOTP)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Air quality endpoints (public)
		r.Route("/aqi", func(r chi.Router) {
			// Live lookups fan out to upstream providers
			r.With(expensiveRateLimit).Get("/current", aqiHandler.CurrentAQI)
			r.With(standardRateLimit).Get("/", aqiHandler.LatestForLocation)
			r.With(standardRateLimit).Get("/all", aqiHandler.LatestPerLocation)
		})

		// Monitored locations catalog (public) - standard rate limiting
		r.With(standardRateLimit).Get("/locations", locationHandler.ListLocations)

		// Profile endpoints (authenticated) - user-based rate limiting
		r.Route("/users/{userId}", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit)) // 100 req/min per user
			r.Get("/", userHandler.GetProfile)
			r.Put("/", userHandler.UpdateProfile)
		})

		// Incident endpoints (authenticated)
		r.Route("/incidents", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))
			r.Post("/", incidentHandler.Report)
			r.Get("/", incidentHandler.List)
			// Triage is for administrators only
			r.With(middleware.RequireAdmin).Put("/{incidentId}/status", incidentHandler.UpdateStatus)
		})

		// Notification feed (authenticated)
		r.Route("/notifications", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))
			r.Get("/", notificationHandler.List)
			r.Get("/unread-count", notificationHandler.UnreadCount)
			r.Put("/read-all", notificationHandler.MarkAllRead)
			r.Put("/{notificationId}/read", notificationHandler.MarkRead)
		})
	})

	return r
}
