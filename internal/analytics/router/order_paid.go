package router

import (
	"context"
	"fmt"

	"github.com/mgiraldodev/templaria-backend/internal/analytics/types"
	"github.com/mgiraldodev/templaria-backend/internal/analytics/writer"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/payloads"
)

type orderPaidHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderPaidHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderPaidHandler{writer: writer, logg: logg}
}

func (h *orderPaidHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderPaidEvent)
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
		h.logg.Error(logCtx, "failed to encode order_paid payload", err)
		return err
	}

	occurred := event.PaidAt
	if occurred.IsZero() {
		occurred = envelope.OccurredAt
	}

	// Revenue is recognized at payment, so gross revenue only appears on
	// this row, never on order_created.
	row := types.StoreEventRow{
		EventID:           envelope.EventID,
		EventType:         string(envelope.EventType),
		OccurredAt:        occurred.UTC(),
		OrderID:           stringPtr(event.OrderID.String()),
		CustomerID:        stringPtr(event.CustomerID.String()),
		GrossRevenueCents: int64Ptr(event.TotalCents),
		Payload:           payloadJSON,
	}

	if err := h.writer.InsertStoreEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order_paid row", err)
		return err
	}
	return nil
}
