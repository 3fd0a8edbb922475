package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/joho/godotenv"

	"github.com/mgiraldodev/templaria-backend/internal/analytics/router"
	"github.com/mgiraldodev/templaria-backend/internal/analytics/worker"
	"github.com/mgiraldodev/templaria-backend/internal/analytics/writer"
	"github.com/mgiraldodev/templaria-backend/pkg/bigquery"
	"github.com/mgiraldodev/templaria-backend/pkg/config"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/idempotency"
	"github.com/mgiraldodev/templaria-backend/pkg/pubsub"
	"github.com/mgiraldodev/templaria-backend/pkg/redis"
)

// processedEventTTL keeps consumed event markers around long enough to
// absorb Pub/Sub redelivery storms without double-counting revenue.
const processedEventTTL = 7 * 24 * time.Hour

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "analytics-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "analytics-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery client", err)
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(ctx, "failed to close bigquery client", err)
		}
	}()

	// The analytics sink tails its own topic plus a dedicated subscription
	// on the orders topic, so revenue rows land even if the analytics
	// mirror is ever paused.
	subscriptions := []*gcppubsub.Subscriber{}
	if sub := pubsubClient.AnalyticsSubscription(); sub != nil {
		subscriptions = append(subscriptions, sub)
	}
	if sub := pubsubClient.AnalyticsOrdersSubscription(); sub != nil {
		subscriptions = append(subscriptions, sub)
	}
	if len(subscriptions) == 0 {
		requireResource(ctx, logg, "analytics subscriptions", errors.New("no subscriptions configured"))
	}

	manager, err := idempotency.NewManager(redisClient, processedEventTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	analyticsWriter, err := writer.New(bqClient, writer.Config{
		StoreEventsTable: cfg.BigQuery.StoreEventsTable,
	})
	requireResource(ctx, logg, "analytics bigquery writer", err)

	routingHandler, err := router.NewRouter(analyticsWriter, logg, nil)
	requireResource(ctx, logg, "analytics router", err)

	service, err := worker.NewService(subscriptions, routingHandler, manager, logg)
	requireResource(ctx, logg, "analytics worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "analytics-worker",
	})
	logg.Info(runCtx, "analytics worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "analytics worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
