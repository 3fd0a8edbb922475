package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/api/controllers"
	"github.com/mgiraldodev/templaria-backend/api/routes"
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
	"github.com/mgiraldodev/templaria-backend/pkg/bigquery"
	"github.com/mgiraldodev/templaria-backend/pkg/config"
	"github.com/mgiraldodev/templaria-backend/pkg/db"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/metrics"
	"github.com/mgiraldodev/templaria-backend/pkg/migrate"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox"
	"github.com/mgiraldodev/templaria-backend/pkg/redis"
	"github.com/mgiraldodev/templaria-backend/pkg/square"
	"github.com/mgiraldodev/templaria-backend/pkg/storage/gcs"
)

const webhookGuardTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(ctx, "error closing cloud storage", err)
		}
	}()

	bigqueryClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := bigqueryClient.Close(); err != nil {
			logg.Error(ctx, "error closing bigquery", err)
		}
	}()

	squareClient, err := square.NewClient(ctx, cfg.Square, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap square", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	catalogRepo := catalog.NewRepository(gormDB)

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		fatal(logg, ctx, "failed to build catalog service", err)
	}

	bundleService, err := bundles.NewService(bundles.NewRepository(gormDB), catalogRepo)
	if err != nil {
		fatal(logg, ctx, "failed to build bundle service", err)
	}

	couponService, err := coupons.NewService(coupons.NewRepository(gormDB))
	if err != nil {
		fatal(logg, ctx, "failed to build coupon service", err)
	}

	cartRepo := cart.NewRepository(gormDB)
	cartService, err := cart.NewService(cartRepo, dbClient, catalogRepo, bundleService, couponService, redisClient, logg)
	if err != nil {
		fatal(logg, ctx, "failed to build cart service", err)
	}

	ordersRepo := orders.NewRepository(gormDB)
	orderService, err := orders.NewService(ordersRepo, dbClient, outboxService, coupons.RedeemByCode, logg)
	if err != nil {
		fatal(logg, ctx, "failed to build order service", err)
	}

	checkoutService, err := checkoutsvc.NewService(cartRepo, ordersRepo, catalogRepo, bundleService, couponService, squareClient, outboxService, dbClient, checkoutsvc.Config{
		StoreName:   "Templaria",
		Currency:    "USD",
		RedirectURL: cfg.Square.RedirectURL,
		TaxRateBps:  cfg.Pricing.TaxRateBasisPoints,
	}, logg)
	if err != nil {
		fatal(logg, ctx, "failed to build checkout service", err)
	}

	downloadService, err := downloads.NewService(downloads.NewRepository(gormDB), gcsClient, downloads.Config{
		LinkTTL:      cfg.Downloads.LinkTTL,
		MaxDownloads: cfg.Downloads.MaxDownloads,
		BaseURL:      cfg.App.BaseURL + "/api/v1",
	}, logg)
	if err != nil {
		fatal(logg, ctx, "failed to build download service", err)
	}

	addRating := func(ctx context.Context, tx *gorm.DB, productID uuid.UUID, rating int) error {
		return catalog.NewRepository(tx).AddRating(ctx, productID, rating)
	}
	reviewService, err := reviews.NewService(reviews.NewRepository(gormDB), dbClient, outboxService, addRating, logg)
	if err != nil {
		fatal(logg, ctx, "failed to build review service", err)
	}

	revenueService, err := query.NewRevenueService(bigqueryClient, cfg.GCP.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.StoreEventsTable)
	if err != nil {
		fatal(logg, ctx, "failed to build revenue service", err)
	}

	webhookService, err := squarewebhook.NewService(orderService, logg)
	if err != nil {
		fatal(logg, ctx, "failed to build webhook service", err)
	}

	webhookGuard, err := squarewebhook.NewIdempotencyGuard(redisClient, webhookGuardTTL, "webhooks:square")
	if err != nil {
		fatal(logg, ctx, "failed to build webhook guard", err)
	}

	router := routes.NewRouter(routes.Dependencies{
		Config:      cfg,
		Logger:      logg,
		Redis:       redisClient,
		HTTPMetrics: metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Readiness: []controllers.ReadinessDependency{
			{Name: "database", Pinger: dbClient},
			{Name: "redis", Pinger: redisClient},
			{Name: "storage", Pinger: gcsClient},
			{Name: "bigquery", Pinger: bigqueryClient},
		},
		Catalog:       catalogService,
		Bundles:       bundleService,
		Coupons:       couponService,
		Cart:          cartService,
		Checkout:      checkoutService,
		Orders:        orderService,
		Downloads:     downloadService,
		Reviews:       reviewService,
		Revenue:       revenueService,
		SquareWebhook: webhookService,
		SquareSigner:  squareClient,
		SquareGuard:   webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatal(logg *logger.Logger, ctx context.Context, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
