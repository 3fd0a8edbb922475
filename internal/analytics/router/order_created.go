package router

import (
	"context"
	"fmt"

	"github.com/mgiraldodev/templaria-backend/internal/analytics/types"
	"github.com/mgiraldodev/templaria-backend/internal/analytics/writer"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/payloads"
)

type orderCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCreatedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderCreatedHandler{writer: writer, logg: logg}
}

func (h *orderCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":  envelope.EventType,
		"order_id":    event.OrderID,
		"total_cents": event.TotalCents,
	})

	payloadJSON, err := writer.EncodeJSON(event)
	if err != nil {
		h.logg.Error(logCtx, "failed to encode order_created payload", err)
		return err
	}

	occurred := event.CreatedAt
	if occurred.IsZero() {
		occurred = envelope.OccurredAt
	}

	row := types.StoreEventRow{
		EventID:       envelope.EventID,
		EventType:     string(envelope.EventType),
		OccurredAt:    occurred.UTC(),
		OrderID:       stringPtr(event.OrderID.String()),
		CustomerID:    stringPtr(event.CustomerID.String()),
		CouponCode:    stringPtr(event.CouponCode),
		ItemCount:     int64Ptr(int64(event.ItemCount)),
		SubtotalCents: int64Ptr(event.SubtotalCents),
		DiscountCents: int64Ptr(event.DiscountCents),
		TaxCents:      int64Ptr(event.TaxCents),
		Payload:       payloadJSON,
	}

	if err := h.writer.InsertStoreEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order_created row", err)
		return err
	}
	return nil
}
