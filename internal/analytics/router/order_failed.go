package router

import (
	"context"
	"fmt"

	"github.com/mgiraldodev/templaria-backend/internal/analytics/types"
	"github.com/mgiraldodev/templaria-backend/internal/analytics/writer"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/payloads"
)

type orderFailedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderFailedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderFailedHandler{writer: writer, logg: logg}
}

func (h *orderFailedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderPaymentFailedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"order_id":   event.OrderID,
		"reason":     event.Reason,
	})

	payloadJSON, err := writer.EncodeJSON(event)
	if err != nil {
		h.logg.Error(logCtx, "failed to encode order_failed payload", err)
		return err
	}

	occurred := event.FailedAt
	if occurred.IsZero() {
		occurred = envelope.OccurredAt
	}

	row := types.StoreEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: occurred.UTC(),
		OrderID:    stringPtr(event.OrderID.String()),
		CustomerID: stringPtr(event.CustomerID.String()),
		Payload:    payloadJSON,
	}

	if err := h.writer.InsertStoreEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order_failed row", err)
		return err
	}
	return nil
}
