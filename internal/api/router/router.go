package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/voice-booking-agent/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/voice-booking-agent/internal/http/middleware"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger            *logging.Logger
	CallsHandler      *handlers.CallsHandler
	VoiceAIHandler    *handlers.VoiceAIHandler
	StreamHandler     *handlers.StreamHandler
	AdminAppointments *handlers.AdminAppointmentsHandler
	AdminAuthSecret   string
	MetricsHandler    http.Handler

	CORSAllowedOrigins []string

	// StartCallRate limits new calls per client IP (calls/sec). Zero disables.
	StartCallRate  float64
	StartCallBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	// Public endpoints (health checks, metrics)
	r.Get("/health", handlers.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.CallsHandler != nil {
		r.Route("/calls", func(callRoutes chi.Router) {
			start := http.HandlerFunc(cfg.CallsHandler.StartCall)
			if cfg.StartCallRate > 0 {
				callRoutes.With(httpmiddleware.RateLimit(cfg.StartCallRate, cfg.StartCallBurst)).Post("/", start)
			} else {
				callRoutes.Post("/", start)
			}

			callRoutes.Route("/{callID}", func(c chi.Router) {
				c.Get("/", cfg.CallsHandler.GetCall)
				c.Delete("/", cfg.CallsHandler.EndCall)
				c.Post("/prompt-delivered", cfg.CallsHandler.PromptDelivered)
				c.Post("/messages", cfg.CallsHandler.SendMessage)
				c.Post("/mute", cfg.CallsHandler.Mute)
				c.Get("/draft", cfg.CallsHandler.Draft)
				c.Get("/transcript", cfg.CallsHandler.Transcript)
				if cfg.VoiceAIHandler != nil {
					c.Post("/events", cfg.VoiceAIHandler.HandleEvent)
				}
				if cfg.StreamHandler != nil {
					c.Get("/stream", cfg.StreamHandler.Stream)
				}
			})
		})
	}

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" && cfg.AdminAppointments != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/appointments", cfg.AdminAppointments.ListAppointments)
			admin.Get("/appointments/{appointmentID}", cfg.AdminAppointments.GetAppointment)
		})
	}

	return r
}
