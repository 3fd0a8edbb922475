package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/mgiraldodev/templaria-backend/internal/coupons"
	"github.com/mgiraldodev/templaria-backend/internal/downloads"
	"github.com/mgiraldodev/templaria-backend/internal/fulfillment"
	"github.com/mgiraldodev/templaria-backend/internal/mailer"
	"github.com/mgiraldodev/templaria-backend/internal/orders"
	"github.com/mgiraldodev/templaria-backend/pkg/config"
	"github.com/mgiraldodev/templaria-backend/pkg/db"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/mail"
	"github.com/mgiraldodev/templaria-backend/pkg/migrate"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/idempotency"
	"github.com/mgiraldodev/templaria-backend/pkg/pubsub"
	"github.com/mgiraldodev/templaria-backend/pkg/redis"
	"github.com/mgiraldodev/templaria-backend/pkg/storage/gcs"
)

// processedEventTTL bounds how long a consumed event ID stays marked in
// Redis. Redeliveries past this window are possible but harmless: link
// issuance and fulfillment stamping are idempotent at the database level.
const processedEventTTL = 7 * 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "fulfillment-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "fulfillment-worker",
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

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub client", err)
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

	mailClient, err := mail.NewClient(cfg.Sendgrid, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap mail client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	ordersRepo := orders.NewRepository(gormDB)

	orderService, err := orders.NewService(ordersRepo, dbClient, outboxService, coupons.RedeemByCode, logg)
	if err != nil {
		fatal(logg, ctx, "failed to build order service", err)
	}

	downloadService, err := downloads.NewService(downloads.NewRepository(gormDB), gcsClient, downloads.Config{
		LinkTTL:      cfg.Downloads.LinkTTL,
		MaxDownloads: cfg.Downloads.MaxDownloads,
		BaseURL:      cfg.App.BaseURL + "/api/v1",
	}, logg)
	if err != nil {
		fatal(logg, ctx, "failed to build download service", err)
	}

	mailerService, err := mailer.New(mailClient, "Templaria", logg)
	if err != nil {
		fatal(logg, ctx, "failed to build mailer", err)
	}

	manager, err := idempotency.NewManager(redisClient, processedEventTTL)
	if err != nil {
		fatal(logg, ctx, "failed to build idempotency manager", err)
	}

	consumer, err := fulfillment.NewConsumer(ordersRepo, orderService, downloadService, mailerService, pubsubClient.OrdersSubscription(), manager, logg)
	if err != nil {
		fatal(logg, ctx, "failed to build fulfillment consumer", err)
	}

	service, err := NewService(ServiceParams{
		Config:              cfg,
		Logger:              logg,
		DB:                  dbClient,
		Redis:               redisClient,
		PubSub:              pubsubClient,
		FulfillmentConsumer: consumer,
		GCS:                 gcsClient,
	})
	if err != nil {
		fatal(logg, ctx, "failed to create worker", err)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "fulfillment-worker",
	})
	logg.Info(runCtx, "starting fulfillment worker")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "worker shutting down gracefully")
}

func fatal(logg *logger.Logger, ctx context.Context, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
