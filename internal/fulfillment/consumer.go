package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/internal/downloads"
	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/idempotency"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/payloads"
)

const fulfillmentConsumer = "order-fulfillment"

type orderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type fulfillmentMarker interface {
	MarkFulfilled(ctx context.Context, orderID uuid.UUID, at time.Time) error
}

type linkIssuer interface {
	IssueForOrder(ctx context.Context, order *models.Order) ([]downloads.IssuedLink, error)
}

type orderMailer interface {
	SendReceipt(ctx context.Context, order *models.Order, links []downloads.IssuedLink) error
	SendPaymentFailed(ctx context.Context, order *models.Order, reason string) error
}

// Consumer watches the orders topic and fulfills paid orders: issue the
// download links, email the receipt, then stamp the order fulfilled.
type Consumer struct {
	orders       orderLoader
	marker       fulfillmentMarker
	links        linkIssuer
	mailer       orderMailer
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the fulfillment consumer.
func NewConsumer(ordersRepo orderLoader, marker fulfillmentMarker, links linkIssuer, mailer orderMailer, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if marker == nil {
		return nil, fmt.Errorf("fulfillment marker required")
	}
	if links == nil {
		return nil, fmt.Errorf("download issuer required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		orders:       ordersRepo,
		marker:       marker,
		links:        links,
		mailer:       mailer,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	switch eventType {
	case string(enums.EventOrderPaid), string(enums.EventOrderFailed):
	default:
		c.logg.Info(logCtx, "skipping non-fulfillment event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, fulfillmentConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var handleErr error
	switch eventType {
	case string(enums.EventOrderPaid):
		handleErr = c.handleOrderPaid(ctx, envelope.Data, logCtx)
	case string(enums.EventOrderFailed):
		handleErr = c.handlePaymentFailed(ctx, envelope.Data, logCtx)
	}
	if handleErr != nil {
		c.logg.Error(logCtx, "fulfillment handling failed", handleErr)
		_ = c.idempotency.Delete(ctx, fulfillmentConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handleOrderPaid(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload payloads.OrderPaidEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse order.paid payload: %w", err)
	}
	if payload.OrderID == uuid.Nil {
		return fmt.Errorf("order id missing")
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"order_id":     payload.OrderID.String(),
		"order_number": payload.OrderNumber,
	})

	order, err := c.orders.FindByID(ctx, payload.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", payload.OrderID, err)
	}

	links, err := c.links.IssueForOrder(ctx, order)
	if err != nil {
		return fmt.Errorf("issue download links: %w", err)
	}
	c.logg.Info(c.logg.WithField(logCtx, "link_count", len(links)), "download links issued")

	if err := c.mailer.SendReceipt(ctx, order, links); err != nil {
		return fmt.Errorf("send receipt: %w", err)
	}

	if err := c.marker.MarkFulfilled(ctx, order.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark fulfilled: %w", err)
	}
	c.logg.Info(logCtx, "order fulfilled")
	return nil
}

func (c *Consumer) handlePaymentFailed(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload payloads.OrderPaymentFailedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse order.payment_failed payload: %w", err)
	}
	if payload.OrderID == uuid.Nil {
		return fmt.Errorf("order id missing")
	}

	logCtx = c.logg.WithField(logCtx, "order_id", payload.OrderID.String())

	order, err := c.orders.FindByID(ctx, payload.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", payload.OrderID, err)
	}

	if err := c.mailer.SendPaymentFailed(ctx, order, payload.Reason); err != nil {
		return fmt.Errorf("send payment failed notice: %w", err)
	}
	c.logg.Info(logCtx, "payment failure notice sent")
	return nil
}
