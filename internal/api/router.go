package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hugh/leadhub/internal/api/handlers"
	"github.com/hugh/leadhub/internal/api/middleware"
	"github.com/hugh/leadhub/internal/auth"
	"github.com/hugh/leadhub/internal/database/models"
	"github.com/hugh/leadhub/internal/importer"
	"github.com/hugh/leadhub/internal/leads"
	"github.com/hugh/leadhub/pkg/config"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RouterConfig carries the dependencies the router wires into handlers.
type RouterConfig struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Config      *config.Config
	Logger      *slog.Logger
	AuthService auth.Authenticator
	JWTService  *auth.JWTService
	LeadService *leads.Service
	Pipeline    *importer.Pipeline
}

// NewRouter builds the HTTP routing tree.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.Config.RateLimit.Requests > 0 {
		r.Use(middleware.RateLimit(cfg.Config.RateLimit.Requests, cfg.Config.RateLimit.WindowSeconds))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	leadHandler := handlers.NewLeadHandler(cfg.DB, cfg.LeadService)
	userHandler := handlers.NewUserHandler(cfg.DB, cfg.AuthService)
	importHandler := handlers.NewImportHandler(cfg.Pipeline, cfg.Config.Import, cfg.Logger)
	dashboardHandler := handlers.NewDashboardHandler(cfg.DB, cfg.Redis, cfg.Logger)
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/me", userHandler.Me)

			r.Route("/leads", func(r chi.Router) {
				r.Get("/", leadHandler.List)
				r.Post("/", leadHandler.Create)

				r.Post("/import/analyze", importHandler.Analyze)
				r.Post("/import/mapping", importHandler.Mapping)
				r.Post("/import/preview", importHandler.Preview)
				r.Post("/import", importHandler.Import)
				r.Get("/import/template", importHandler.Template)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", leadHandler.Get)
					r.Put("/", leadHandler.Update)
					r.Put("/status", leadHandler.UpdateStatus)
					r.Post("/assign", leadHandler.Assign)
					r.Get("/notes", leadHandler.ListNotes)
					r.Post("/notes", leadHandler.AddNote)

					r.With(middleware.RequireRole(models.RoleAdmin)).Delete("/", leadHandler.Delete)
				})
			})

			r.Get("/dashboard/stats", dashboardHandler.Stats)

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))

				r.Get("/users", userHandler.List)
				r.Put("/users/{id}", userHandler.Update)
			})
		})
	})

	return r
}
