package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/velesk/marketplace-api/internal/auth"
	"github.com/velesk/marketplace-api/internal/config"
	"github.com/velesk/marketplace-api/internal/delivery/http/handler"
	"github.com/velesk/marketplace-api/internal/delivery/http/middleware"
	"github.com/velesk/marketplace-api/internal/delivery/http/response"
	"github.com/velesk/marketplace-api/internal/domain"
	"github.com/velesk/marketplace-api/internal/pkg/logger"
	"github.com/velesk/marketplace-api/internal/pkg/metrics"
)

// Router holds HTTP handlers and router configuration
type Router struct {
	authHandler     *handler.AuthHandler
	categoryHandler *handler.CategoryHandler
	productHandler  *handler.ProductHandler
	reviewHandler   *handler.ReviewHandler
	jwtManager      *auth.JWTManager
	metrics         *metrics.Metrics
	registry        *prometheus.Registry
	logger          *logger.Logger
	cfg             *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(
	authHandler *handler.AuthHandler,
	categoryHandler *handler.CategoryHandler,
	productHandler *handler.ProductHandler,
	reviewHandler *handler.ReviewHandler,
	jwtManager *auth.JWTManager,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	registry := prometheus.NewRegistry()

	return &Router{
		authHandler:     authHandler,
		categoryHandler: categoryHandler,
		productHandler:  productHandler,
		reviewHandler:   reviewHandler,
		jwtManager:      jwtManager,
		metrics:         metrics.New(registry),
		registry:        registry,
		logger:          log,
		cfg:             cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Metrics(rt.metrics))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Method("GET", "/metrics", metrics.Handler(rt.registry))
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	authenticate := middleware.Authenticate(rt.jwtManager, rt.logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", rt.authHandler.Register)
			r.Post("/login", rt.authHandler.Login)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", rt.categoryHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Post("/", rt.categoryHandler.Create)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", rt.productHandler.List)
			r.Get("/{id}", rt.productHandler.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequireRole(domain.RoleSeller))
				r.Post("/", rt.productHandler.Create)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequireRole(domain.RoleSeller, domain.RoleAdmin))
				r.Delete("/{id}", rt.productHandler.Delete)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", rt.reviewHandler.List)
			r.Get("/products/{product_id}", rt.reviewHandler.ListByProduct)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequireRole(domain.RoleBuyer))
				r.Post("/", rt.reviewHandler.Create)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequireRole(domain.RoleBuyer, domain.RoleAdmin))
				r.Delete("/{review_id}", rt.reviewHandler.Delete)
			})
		})
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
