package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/webshoplabs/catalog/internal/service"
	"github.com/webshoplabs/catalog/pkg/health"
	"github.com/webshoplabs/catalog/pkg/middleware"
)

const serviceName = "catalog-service"

// RouterConfig carries the tunables the router needs.
type RouterConfig struct {
	Environment    string
	RateLimitRPS   float64
	RateLimitBurst int
	// CacheMaxAge is the max-age, in seconds, advertised on GET responses.
	CacheMaxAge int
}

// NewRouter creates a chi router with all catalog service routes registered.
func NewRouter(
	catalogService *service.CatalogService,
	reviewService *service.ReviewService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.Environment = cfg.Environment

	// Global middleware. Order matters: the correlation ID and span must
	// exist before the request-scoped logger captures them.
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	productHandler := NewProductHandler(catalogService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)

	rateLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CacheMaxAge))
			r.Get("/", productHandler.ListProducts)
			r.Get("/{id}", productHandler.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(rateLimit)
			r.Post("/", productHandler.CreateProduct)
			r.Put("/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
			r.Post("/{productId}/reviews", reviewHandler.CreateReview)
		})
	})

	return r
}
