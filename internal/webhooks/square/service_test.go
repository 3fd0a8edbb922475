package squarewebhook

import (
	"context"
	"testing"
	"time"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
)

type paidCall struct {
	providerOrderID   string
	providerPaymentID string
	paidAt            time.Time
}

type failedCall struct {
	providerOrderID string
	reason          string
}

type stubOrders struct {
	paid    []paidCall
	failed  []failedCall
	markErr error
}

func (s *stubOrders) MarkPaid(_ context.Context, providerOrderID, providerPaymentID string, paidAt time.Time) (*models.Order, error) {
	if s.markErr != nil {
		return nil, s.markErr
	}
	s.paid = append(s.paid, paidCall{providerOrderID, providerPaymentID, paidAt})
	return &models.Order{}, nil
}

func (s *stubOrders) MarkPaymentFailed(_ context.Context, providerOrderID, reason string) (*models.Order, error) {
	if s.markErr != nil {
		return nil, s.markErr
	}
	s.failed = append(s.failed, failedCall{providerOrderID, reason})
	return &models.Order{}, nil
}

func paymentEvent(status string) *SquareWebhookEvent {
	return &SquareWebhookEvent{
		EventID: "evt-1",
		Type:    "payment.updated",
		Data: SquareWebhookData{
			Type: "payment",
			ID:   "pay-1",
			Object: SquareWebhookObject{
				Payment: &SquarePayment{
					ID:        "pay-1",
					Status:    status,
					OrderID:   "sq-order-1",
					UpdatedAt: "2026-03-01T12:00:00Z",
				},
			},
		},
	}
}

func TestHandleEventCompletedPaymentMarksPaid(t *testing.T) {
	orders := &stubOrders{}
	svc, err := NewService(orders, nil)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	if err := svc.HandleEvent(context.Background(), paymentEvent("COMPLETED")); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(orders.paid) != 1 {
		t.Fatalf("expected one paid transition, got %d", len(orders.paid))
	}
	call := orders.paid[0]
	if call.providerOrderID != "sq-order-1" || call.providerPaymentID != "pay-1" {
		t.Fatalf("paid call = %+v", call)
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !call.paidAt.Equal(want) {
		t.Fatalf("paid at = %v, want %v", call.paidAt, want)
	}
}

func TestHandleEventFailedPaymentMarksFailed(t *testing.T) {
	orders := &stubOrders{}
	svc, err := NewService(orders, nil)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	if err := svc.HandleEvent(context.Background(), paymentEvent("FAILED")); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(orders.failed) != 1 || orders.failed[0].reason != "failed" {
		t.Fatalf("failed calls = %+v", orders.failed)
	}
}

func TestHandleEventIgnoresInterimStatuses(t *testing.T) {
	orders := &stubOrders{}
	svc, err := NewService(orders, nil)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	for _, status := range []string{"APPROVED", "PENDING"} {
		if err := svc.HandleEvent(context.Background(), paymentEvent(status)); err != nil {
			t.Fatalf("status %s: %v", status, err)
		}
	}
	if len(orders.paid) != 0 || len(orders.failed) != 0 {
		t.Fatal("interim statuses must not transition orders")
	}
}

func TestHandleEventIgnoresUntrackedTypes(t *testing.T) {
	orders := &stubOrders{}
	svc, err := NewService(orders, nil)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	event := &SquareWebhookEvent{Type: "refund.created"}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(orders.paid) != 0 || len(orders.failed) != 0 {
		t.Fatal("untracked event types must be acknowledged without action")
	}
}

func TestHandleEventAbsorbsUnknownOrder(t *testing.T) {
	orders := &stubOrders{markErr: pkgerrors.New(pkgerrors.CodeNotFound, "no order for provider order id")}
	svc, err := NewService(orders, nil)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	if err := svc.HandleEvent(context.Background(), paymentEvent("COMPLETED")); err != nil {
		t.Fatalf("unknown order must be acknowledged, got %v", err)
	}
}

func TestHandleEventMissingPayment(t *testing.T) {
	svc, err := NewService(&stubOrders{}, nil)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	event := &SquareWebhookEvent{Type: "payment.updated"}
	handleErr := svc.HandleEvent(context.Background(), event)
	typed := pkgerrors.As(handleErr)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", handleErr)
	}
}
