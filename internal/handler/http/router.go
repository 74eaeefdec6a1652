package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/EcommerceGo/storefront/internal/service"
	"github.com/utafrali/EcommerceGo/storefront/pkg/health"
	"github.com/utafrali/EcommerceGo/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig holds the router knobs that come from configuration.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration
	// InternalCIDRs guards /metrics and enables /debug/pprof. Empty leaves
	// /metrics open and pprof off.
	InternalCIDRs []string
	// DiscountLimit throttles discount attempts per session. A zero Every
	// disables it.
	DiscountLimit middleware.RateLimitConfig
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	if len(cfg.InternalCIDRs) > 0 {
		r.With(middleware.InternalOnly(cfg.InternalCIDRs, logger)).Handle("/metrics", promhttp.Handler())
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}
	middleware.RegisterPprof(r, cfg.InternalCIDRs, logger)

	cartHandler := NewCartHandler(cartService, logger)
	checkoutHandler := NewCheckoutHandler(checkoutService, logger)

	r.Route("/api/v1/storefront", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Session())
		r.Use(middleware.RequestLogger(logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/lines", cartHandler.AddLine)
			r.Patch("/lines", cartHandler.UpdateLine)
			r.Delete("/lines", cartHandler.RemoveLine)
			r.Delete("/products/{productId}", cartHandler.RemoveProduct)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.GetCheckout)
			if cfg.DiscountLimit.Every > 0 {
				r.With(middleware.RateLimit(cfg.DiscountLimit, logger)).Post("/discount", checkoutHandler.ApplyDiscount)
			} else {
				r.Post("/discount", checkoutHandler.ApplyDiscount)
			}
			r.Delete("/discount", checkoutHandler.RemoveDiscount)
			r.Put("/address", checkoutHandler.SetAddress)
			r.Get("/shipping-fee", checkoutHandler.QuoteShipping)
			r.Post("/draft", checkoutHandler.CreateDraft)
		})
	})

	return r
}
