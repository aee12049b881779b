package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tastebase/recipe-service/internal/service"
	"github.com/tastebase/recipe-service/pkg/health"
	"github.com/tastebase/recipe-service/pkg/middleware"
)

// RouterConfig holds the dependencies and settings for the HTTP router.
type RouterConfig struct {
	RecipeService *service.RecipeService
	ReviewService *service.ReviewService
	HealthHandler *health.Handler
	CORS          middleware.CORSConfig
	ServiceName   string
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all recipe service routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware. Identity only extracts X-User-ID; RequireUser
	// guards the mutating routes below.
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Identity())
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))

	// Health and metrics endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Recipe API endpoints
	recipeHandler := NewRecipeHandler(cfg.RecipeService, cfg.Logger)

	r.Route("/api/v1/recipes", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(middleware.CacheControl(60)).Get("/", recipeHandler.ListRecipes)

		// Detail responses render markdown per request and may carry the
		// viewer's own review, so intermediaries must not cache them.
		r.With(middleware.NoStore()).Get("/{idOrSlug}", recipeHandler.GetRecipe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser())

			r.Post("/", recipeHandler.CreateRecipe)
			r.Put("/{id}", recipeHandler.UpdateRecipe)
			r.Delete("/{id}", recipeHandler.DeleteRecipe)
		})
	})

	// Review API endpoints (nested under recipes)
	reviewHandler := NewReviewHandler(cfg.ReviewService, cfg.Logger)

	r.Route("/api/v1/recipes/{recipeId}/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(middleware.NoStore()).Get("/", reviewHandler.ListReviews)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser())

			r.Post("/", reviewHandler.CreateReview)
		})
	})

	return r
}

// ContentTypeJSON sets the response content type for API routes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
