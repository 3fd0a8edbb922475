package router

import (
	"context"
	"fmt"

	"github.com/mgiraldodev/templaria-backend/internal/analytics/types"
	"github.com/mgiraldodev/templaria-backend/internal/analytics/writer"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/payloads"
)

type reviewCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newReviewCreatedHandler(writer Writer, logg *logger.Logger) Handler {
	return &reviewCreatedHandler{writer: writer, logg: logg}
}

func (h *reviewCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.ReviewCreatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"product_id": event.ProductID,
		"rating":     event.Rating,
	})

	payloadJSON, err := writer.EncodeJSON(event)
	if err != nil {
		h.logg.Error(logCtx, "failed to encode review_created payload", err)
		return err
	}

	occurred := event.CreatedAt
	if occurred.IsZero() {
		occurred = envelope.OccurredAt
	}

	row := types.StoreEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: occurred.UTC(),
		ProductID:  stringPtr(event.ProductID.String()),
		CustomerID: stringPtr(event.CustomerID.String()),
		Rating:     int64Ptr(int64(event.Rating)),
		Payload:    payloadJSON,
	}

	if err := h.writer.InsertStoreEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert review_created row", err)
		return err
	}
	return nil
}
