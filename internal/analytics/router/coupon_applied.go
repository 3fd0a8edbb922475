package router

import (
	"context"
	"fmt"

	"github.com/mgiraldodev/templaria-backend/internal/analytics/types"
	"github.com/mgiraldodev/templaria-backend/internal/analytics/writer"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/payloads"
)

type couponAppliedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newCouponAppliedHandler(writer Writer, logg *logger.Logger) Handler {
	return &couponAppliedHandler{writer: writer, logg: logg}
}

func (h *couponAppliedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.CouponAppliedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":     envelope.EventType,
		"coupon_code":    event.Code,
		"order_id":       event.OrderID,
		"discount_cents": event.DiscountCents,
	})

	payloadJSON, err := writer.EncodeJSON(event)
	if err != nil {
		h.logg.Error(logCtx, "failed to encode coupon_applied payload", err)
		return err
	}

	occurred := event.AppliedAt
	if occurred.IsZero() {
		occurred = envelope.OccurredAt
	}

	row := types.StoreEventRow{
		EventID:       envelope.EventID,
		EventType:     string(envelope.EventType),
		OccurredAt:    occurred.UTC(),
		OrderID:       stringPtr(event.OrderID.String()),
		CustomerID:    stringPtr(event.CustomerID.String()),
		CouponCode:    stringPtr(event.Code),
		DiscountCents: int64Ptr(event.DiscountCents),
		Payload:       payloadJSON,
	}

	if err := h.writer.InsertStoreEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert coupon_applied row", err)
		return err
	}
	return nil
}
