package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/internal/analytics/router"
	"github.com/mgiraldodev/templaria-backend/internal/analytics/types"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox"
)

func TestBuildEnvelope(t *testing.T) {
	svc := newTestService(t)
	payload := outbox.PayloadEnvelope{
		EventID:    "c1f0bafe-6df5-4f5e-8c3f-51e0e37f4a39",
		OccurredAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Data:       json.RawMessage(`{"orderId":"a1a8e7a9-6df5-4f5e-8c3f-51e0e37f4a39"}`),
	}
	msg := buildMessage(payload, map[string]string{
		"event_type":     "order.paid",
		"aggregate_type": "order",
		"aggregate_id":   "ord-1",
	})

	env, err := svc.buildEnvelope(msg)
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if env.EventType != enums.EventOrderPaid {
		t.Fatalf("event type = %v", env.EventType)
	}
	if env.AggregateType != enums.AggregateOrder {
		t.Fatalf("aggregate type = %v", env.AggregateType)
	}
	if env.AggregateID != "ord-1" {
		t.Fatalf("aggregate id = %s", env.AggregateID)
	}
	if env.EventID != payload.EventID {
		t.Fatalf("event id = %s", env.EventID)
	}
	if !env.OccurredAt.Equal(payload.OccurredAt) {
		t.Fatalf("occurred at = %v", env.OccurredAt)
	}
}

func TestBuildEnvelopeRejectsUnknownEventType(t *testing.T) {
	svc := newTestService(t)
	msg := buildMessage(outbox.PayloadEnvelope{EventID: uuid.NewString()}, map[string]string{
		"event_type":     "cart.abandoned",
		"aggregate_type": "order",
		"aggregate_id":   "ord-1",
	})

	if _, err := svc.buildEnvelope(msg); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestProcessAlreadyProcessed(t *testing.T) {
	manager := &stubManager{checkResult: true}
	handler := &stubHandler{}
	svc := newTestServiceWithDeps(t, handler, manager)

	res := svc.process(context.Background(), buildAnalyticsMessage(t))
	if res.nack {
		t.Fatal("expected ack, got nack")
	}
	if handler.called {
		t.Fatal("handler should not run when already processed")
	}
	if len(manager.checked) != 1 {
		t.Fatalf("expected one idempotency check, got %d", len(manager.checked))
	}
}

func TestProcessHandlerErrorRetries(t *testing.T) {
	manager := &stubManager{}
	handler := &stubHandler{err: errors.New("boom")}
	svc := newTestServiceWithDeps(t, handler, manager)

	res := svc.process(context.Background(), buildAnalyticsMessage(t))
	if !res.nack {
		t.Fatal("expected nack on handler error")
	}
	if len(manager.deleted) != 1 {
		t.Fatal("expected idempotency delete on failure")
	}
}

func TestProcessInvalidEnvelope(t *testing.T) {
	manager := &stubManager{}
	handler := &stubHandler{}
	svc := newTestServiceWithDeps(t, handler, manager)

	msg := &gcppubsub.Message{Data: []byte("invalid json")}
	res := svc.process(context.Background(), msg)
	if res.nack {
		t.Fatal("invalid envelope should ack")
	}
	if handler.called {
		t.Fatal("handler should not run")
	}
	if len(manager.checked) != 0 {
		t.Fatal("idempotency manager should not be touched")
	}
}

func TestProcessUnsupportedEventAcks(t *testing.T) {
	manager := &stubManager{}
	handler := &stubHandler{err: router.ErrUnsupportedEventType}
	svc := newTestServiceWithDeps(t, handler, manager)

	res := svc.process(context.Background(), buildAnalyticsMessage(t))
	if res.nack {
		t.Fatal("unsupported event should ack")
	}
	if len(manager.deleted) != 0 {
		t.Fatal("idempotency delete should not run")
	}
}

func buildAnalyticsMessage(t *testing.T) *gcppubsub.Message {
	t.Helper()
	payload := outbox.PayloadEnvelope{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{"foo":"bar"}`),
	}
	return buildMessage(payload, map[string]string{
		"event_type":     "order.paid",
		"aggregate_type": "order",
		"aggregate_id":   "ord-1",
	})
}

func buildMessage(payload outbox.PayloadEnvelope, attrs map[string]string) *gcppubsub.Message {
	data, _ := json.Marshal(payload)
	return &gcppubsub.Message{
		ID:         "msg-1",
		Data:       data,
		Attributes: attrs,
	}
}

func newTestService(t *testing.T) *Service {
	return newTestServiceWithDeps(t, &stubHandler{}, &stubManager{})
}

func newTestServiceWithDeps(t *testing.T, handler Handler, manager *stubManager) *Service {
	t.Helper()
	return &Service{
		handler: handler,
		manager: manager,
		logg:    logger.New(logger.Options{ServiceName: "analytics-test"}),
	}
}

type stubHandler struct {
	called   bool
	envelope types.Envelope
	err      error
}

func (h *stubHandler) Handle(_ context.Context, envelope types.Envelope) error {
	h.called = true
	h.envelope = envelope
	return h.err
}

type stubManager struct {
	checkResult bool
	checkErr    error
	deleteErr   error
	checked     []uuid.UUID
	deleted     []uuid.UUID
}

func (s *stubManager) CheckAndMarkProcessed(_ context.Context, _ string, eventID uuid.UUID) (bool, error) {
	s.checked = append(s.checked, eventID)
	return s.checkResult, s.checkErr
}

func (s *stubManager) Delete(_ context.Context, _ string, eventID uuid.UUID) error {
	s.deleted = append(s.deleted, eventID)
	return s.deleteErr
}
