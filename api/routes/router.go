package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mgiraldodev/templaria-backend/api/controllers"
	webhookcontrollers "github.com/mgiraldodev/templaria-backend/api/controllers/webhooks"
	"github.com/mgiraldodev/templaria-backend/api/middleware"
	"github.com/mgiraldodev/templaria-backend/internal/analytics/query"
	"github.com/mgiraldodev/templaria-backend/internal/bundles"
	"github.com/mgiraldodev/templaria-backend/internal/cart"
	"github.com/mgiraldodev/templaria-backend/internal/catalog"
	checkoutsvc "github.com/mgiraldodev/templaria-backend/internal/checkout"
	"github.com/mgiraldodev/templaria-backend/internal/coupons"
	"github.com/mgiraldodev/templaria-backend/internal/downloads"
	"github.com/mgiraldodev/templaria-backend/internal/orders"
	"github.com/mgiraldodev/templaria-backend/internal/reviews"
	squarewebhook "github.com/mgiraldodev/templaria-backend/internal/webhooks/square"
	"github.com/mgiraldodev/templaria-backend/pkg/config"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/metrics"
	"github.com/mgiraldodev/templaria-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs wired in.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         *redis.Client
	HTTPMetrics   *metrics.HTTPMetrics
	Readiness     []controllers.ReadinessDependency
	Catalog       catalog.Service
	Bundles       bundles.Service
	Coupons       coupons.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Downloads     downloads.Service
	Reviews       reviews.Service
	Revenue       query.RevenueService
	SquareWebhook webhookcontrollers.SquareWebhookService
	SquareSigner  interface{ SigningSecret() string }
	SquareGuard   *squarewebhook.IdempotencyGuard
}

// NewRouter assembles the full API surface: public catalog reads, the
// Square webhook, authenticated storefront routes, and the admin panel.
func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	// A typed-nil *redis.Client must not leak into the middleware
	// interfaces, so the conversions stay explicit.
	var limiter interface {
		FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	}
	var idempotencyStore redis.IdempotencyStore
	if deps.Redis != nil {
		limiter = deps.Redis
		idempotencyStore = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness...))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/square", webhookcontrollers.SquareWebhook(deps.SquareWebhook, deps.SquareSigner, deps.SquareGuard, logg))
	})

	// Storefront reads and token-gated download redemption need no login.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/{slug}", controllers.GetProductBySlug(deps.Catalog, logg))
		r.Get("/{slug}/reviews", controllers.ListProductReviews(deps.Reviews, deps.Catalog, logg))
	})
	r.Get("/api/v1/bundles", controllers.ListBundles(deps.Bundles, logg))
	r.Get("/api/v1/downloads/{linkId}", controllers.RedeemDownload(deps.Downloads, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(limiter, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Put("/", controllers.UpsertCart(deps.Cart, cfg.Pricing.TaxRateBasisPoints, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			r.Post("/quote", controllers.QuoteCart(deps.Cart, logg))
		})

		r.Post("/api/v1/checkout", controllers.BeginCheckout(deps.Checkout, logg))

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
		})

		r.Get("/api/v1/downloads", controllers.ListDownloads(deps.Downloads, logg))
		r.Post("/api/v1/reviews", controllers.CreateReview(deps.Reviews, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.RateLimit(limiter, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.Catalog, logg))
			r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
			r.Get("/{productId}", controllers.AdminGetProduct(deps.Catalog, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Catalog, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Catalog, logg))
		})

		r.Route("/bundles", func(r chi.Router) {
			r.Get("/", controllers.AdminListBundles(deps.Bundles, logg))
			r.Post("/", controllers.AdminCreateBundle(deps.Bundles, logg))
			r.Get("/{bundleId}", controllers.AdminGetBundle(deps.Bundles, logg))
			r.Put("/{bundleId}", controllers.AdminUpdateBundle(deps.Bundles, logg))
			r.Delete("/{bundleId}", controllers.AdminDeleteBundle(deps.Bundles, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.AdminListCoupons(deps.Coupons, logg))
			r.Post("/", controllers.AdminCreateCoupon(deps.Coupons, logg))
			r.Get("/{couponId}", controllers.AdminGetCoupon(deps.Coupons, logg))
			r.Put("/{couponId}", controllers.AdminUpdateCoupon(deps.Coupons, logg))
			r.Delete("/{couponId}", controllers.AdminDeleteCoupon(deps.Coupons, logg))
		})

		r.Get("/analytics/revenue", controllers.AdminRevenueSummary(deps.Revenue, logg))
	})

	return r
}
