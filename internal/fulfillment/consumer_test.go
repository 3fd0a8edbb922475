package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
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

type fakeStore struct {
	existing map[string]bool
	deleted  []string
}

func (f *fakeStore) Get(context.Context, string) (string, error) { return "", nil }

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if f.existing[key] {
		return false, nil
	}
	if f.existing == nil {
		f.existing = map[string]bool{}
	}
	f.existing[key] = true
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "tpl:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

type stubOrderLoader struct {
	order *models.Order
	err   error
}

func (s *stubOrderLoader) FindByID(context.Context, uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

type stubMarker struct {
	fulfilled []uuid.UUID
	err       error
}

func (s *stubMarker) MarkFulfilled(_ context.Context, orderID uuid.UUID, _ time.Time) error {
	s.fulfilled = append(s.fulfilled, orderID)
	return s.err
}

type stubIssuer struct {
	links []downloads.IssuedLink
	err   error
	calls int
}

func (s *stubIssuer) IssueForOrder(context.Context, *models.Order) ([]downloads.IssuedLink, error) {
	s.calls++
	return s.links, s.err
}

type stubMailer struct {
	receipts int
	failures int
	reason   string
	err      error
}

func (s *stubMailer) SendReceipt(context.Context, *models.Order, []downloads.IssuedLink) error {
	s.receipts++
	return s.err
}

func (s *stubMailer) SendPaymentFailed(_ context.Context, _ *models.Order, reason string) error {
	s.failures++
	s.reason = reason
	return s.err
}

func testConsumer(t *testing.T, loader *stubOrderLoader, marker *stubMarker, issuer *stubIssuer, mailer *stubMailer, store *fakeStore) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("build idempotency manager: %v", err)
	}
	return &Consumer{
		orders:      loader,
		marker:      marker,
		links:       issuer,
		mailer:      mailer,
		idempotency: manager,
		logg:        logger.New(logger.Options{ServiceName: "fulfillment-test", Output: io.Discard}),
	}
}

func paidMessage(t *testing.T, orderID uuid.UUID) *pubsub.Message {
	t.Helper()
	payload, err := json.Marshal(payloads.OrderPaidEvent{
		OrderID:       orderID,
		OrderNumber:   1042,
		CustomerEmail: "buyer@example.com",
		TotalCents:    4900,
		Currency:      "USD",
		PaidAt:        time.Now(),
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       payload,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         "msg-1",
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(enums.EventOrderPaid)},
	}
}

func failedMessage(t *testing.T, orderID uuid.UUID, reason string) *pubsub.Message {
	t.Helper()
	payload, err := json.Marshal(payloads.OrderPaymentFailedEvent{
		OrderID:  orderID,
		Reason:   reason,
		FailedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       payload,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         "msg-2",
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(enums.EventOrderFailed)},
	}
}

func TestProcessOrderPaidIssuesLinksAndFulfills(t *testing.T) {
	orderID := uuid.New()
	loader := &stubOrderLoader{order: &models.Order{ID: orderID}}
	marker := &stubMarker{}
	issuer := &stubIssuer{links: []downloads.IssuedLink{{}, {}}}
	mailer := &stubMailer{}
	consumer := testConsumer(t, loader, marker, issuer, mailer, &fakeStore{})

	result := consumer.process(context.Background(), paidMessage(t, orderID))

	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if issuer.calls != 1 {
		t.Fatalf("expected one link issuance, got %d", issuer.calls)
	}
	if mailer.receipts != 1 {
		t.Fatalf("expected one receipt, got %d", mailer.receipts)
	}
	if len(marker.fulfilled) != 1 || marker.fulfilled[0] != orderID {
		t.Fatalf("expected order marked fulfilled, got %v", marker.fulfilled)
	}
}

func TestProcessPaymentFailedSendsNotice(t *testing.T) {
	orderID := uuid.New()
	loader := &stubOrderLoader{order: &models.Order{ID: orderID}}
	marker := &stubMarker{}
	issuer := &stubIssuer{}
	mailer := &stubMailer{}
	consumer := testConsumer(t, loader, marker, issuer, mailer, &fakeStore{})

	result := consumer.process(context.Background(), failedMessage(t, orderID, "card declined"))

	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if mailer.failures != 1 || mailer.reason != "card declined" {
		t.Fatalf("expected failure notice with reason, got %d %q", mailer.failures, mailer.reason)
	}
	if issuer.calls != 0 {
		t.Fatalf("failed payment must not issue links")
	}
	if len(marker.fulfilled) != 0 {
		t.Fatalf("failed payment must not fulfill the order")
	}
}

func TestProcessSkipsUnrelatedEvents(t *testing.T) {
	issuer := &stubIssuer{}
	consumer := testConsumer(t, &stubOrderLoader{}, &stubMarker{}, issuer, &stubMailer{}, &fakeStore{})

	msg := &pubsub.Message{
		ID:         "msg-3",
		Data:       []byte(`{}`),
		Attributes: map[string]string{"event_type": string(enums.EventReviewCreated)},
	}
	result := consumer.process(context.Background(), msg)

	if !result.ack {
		t.Fatalf("unrelated events should ack")
	}
	if issuer.calls != 0 {
		t.Fatalf("unrelated events must not touch the issuer")
	}
}

func TestProcessAcksAlreadyProcessedEvent(t *testing.T) {
	orderID := uuid.New()
	loader := &stubOrderLoader{order: &models.Order{ID: orderID}}
	issuer := &stubIssuer{links: []downloads.IssuedLink{{}}}
	mailer := &stubMailer{}
	store := &fakeStore{}
	consumer := testConsumer(t, loader, &stubMarker{}, issuer, mailer, store)

	msg := paidMessage(t, orderID)
	first := consumer.process(context.Background(), msg)
	second := consumer.process(context.Background(), msg)

	if !first.ack || !second.ack {
		t.Fatalf("both deliveries should ack")
	}
	if issuer.calls != 1 {
		t.Fatalf("redelivery must not issue links twice, got %d", issuer.calls)
	}
	if mailer.receipts != 1 {
		t.Fatalf("redelivery must not resend the receipt, got %d", mailer.receipts)
	}
}

func TestProcessNacksAndUnmarksOnHandlerError(t *testing.T) {
	orderID := uuid.New()
	loader := &stubOrderLoader{order: &models.Order{ID: orderID}}
	issuer := &stubIssuer{err: errors.New("storage unavailable")}
	store := &fakeStore{}
	consumer := testConsumer(t, loader, &stubMarker{}, issuer, &stubMailer{}, store)

	result := consumer.process(context.Background(), paidMessage(t, orderID))

	if !result.nack {
		t.Fatalf("handler failure should nack for redelivery")
	}
	if len(store.deleted) != 1 {
		t.Fatalf("expected processed marker released, got %v", store.deleted)
	}
}
