package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/config"
	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/payloads"
)

func testConfig() config.PubSubConfig {
	return config.PubSubConfig{
		OrdersTopic:    "orders",
		AnalyticsTopic: "analytics",
	}
}

func mustRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(testConfig())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

func buildRow(t *testing.T, eventType enums.EventType, aggregateType string, data any) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func TestNewEventRegistryValidatesTopics(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{AnalyticsTopic: "analytics"}); err == nil {
		t.Fatal("expected error for missing orders topic")
	}
	if _, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"}); err == nil {
		t.Fatal("expected error for missing analytics topic")
	}
}

func TestResolveOrderPaid(t *testing.T) {
	reg := mustRegistry(t)
	data := payloads.OrderPaidEvent{
		OrderID:    uuid.New(),
		TotalCents: 12900,
		Currency:   "USD",
	}
	row := buildRow(t, enums.EventOrderPaid, string(enums.AggregateOrder), data)

	resolved, err := reg.Resolve(row)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Descriptor.Topic != "orders" {
		t.Fatalf("unexpected topic %s", resolved.Descriptor.Topic)
	}
	paid, ok := resolved.Payload.(*payloads.OrderPaidEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if paid.OrderID != data.OrderID || paid.TotalCents != 12900 {
		t.Fatalf("payload mismatch: %+v", paid)
	}
}

func TestResolveReviewRoutesToAnalytics(t *testing.T) {
	reg := mustRegistry(t)
	row := buildRow(t, enums.EventReviewCreated, string(enums.AggregateReview), payloads.ReviewCreatedEvent{
		ReviewID: uuid.New(),
		Rating:   5,
	})

	resolved, err := reg.Resolve(row)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Descriptor.Topic != "analytics" {
		t.Fatalf("review events should use the analytics topic, got %s", resolved.Descriptor.Topic)
	}
}

func TestResolveRejectsUnknownEventType(t *testing.T) {
	reg := mustRegistry(t)
	row := buildRow(t, enums.EventType("order.refunded"), string(enums.AggregateOrder), struct{}{})

	_, err := reg.Resolve(row)
	if err == nil {
		t.Fatal("expected error")
	}
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestResolveRejectsAggregateMismatch(t *testing.T) {
	reg := mustRegistry(t)
	row := buildRow(t, enums.EventOrderPaid, string(enums.AggregateReview), payloads.OrderPaidEvent{})

	var nonRetryable NonRetryableError
	if _, err := reg.Resolve(row); !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestResolveRejectsEmptyPayload(t *testing.T) {
	reg := mustRegistry(t)
	envelope, _ := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString(), Data: json.RawMessage("null")})
	row := models.OutboxEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: string(enums.AggregateOrder),
		AggregateID:   uuid.New(),
		Payload:       envelope,
	}

	var nonRetryable NonRetryableError
	if _, err := reg.Resolve(row); !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}
