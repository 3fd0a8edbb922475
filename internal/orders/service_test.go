package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/payloads"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
	"github.com/mgiraldodev/templaria-backend/pkg/types"
)

type stubOrderRepo struct {
	order *models.Order
	saved *models.Order
}

func (s *stubOrderRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubOrderRepo) NextOrderNumber(context.Context) (int64, error) { return 1001, nil }

func (s *stubOrderRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	return order, nil
}

func (s *stubOrderRepo) CreateLineItems(context.Context, []models.OrderLineItem) error { return nil }

func (s *stubOrderRepo) FindByID(context.Context, uuid.UUID) (*models.Order, error) {
	if s.order == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrderRepo) FindByIDAndCustomer(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	if s.order == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrderRepo) FindByProviderOrderID(context.Context, string) (*models.Order, error) {
	if s.order == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrderRepo) FindPendingByCartID(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ListByCustomer(context.Context, uuid.UUID, pagination.Params) ([]models.Order, string, error) {
	if s.order == nil {
		return nil, "", nil
	}
	return []models.Order{*s.order}, "", nil
}

func (s *stubOrderRepo) Save(_ context.Context, order *models.Order) (*models.Order, error) {
	s.saved = order
	return order, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) EmitIfNotExists(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubEmitter) types(t *testing.T) []enums.EventType {
	t.Helper()
	out := make([]enums.EventType, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.EventType)
	}
	return out
}

func newOrdersService(t *testing.T, repo Repository, emitter *stubEmitter, redeemed *[]string) Service {
	t.Helper()
	redeem := func(_ context.Context, _ *gorm.DB, code string) (*models.Coupon, error) {
		if redeemed != nil {
			*redeemed = append(*redeemed, code)
		}
		return &models.Coupon{ID: uuid.New(), Code: code}, nil
	}
	svc, err := NewService(repo, stubTxRunner{}, emitter, redeem, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func pendingOrder() *models.Order {
	providerOrderID := "sq-order-1"
	return &models.Order{
		ID:              uuid.New(),
		OrderNumber:     1001,
		CustomerID:      uuid.New(),
		CustomerEmail:   "buyer@example.com",
		Status:          enums.OrderStatusPending,
		Currency:        "USD",
		SubtotalCents:   10000,
		DiscountCents:   6500,
		TotalCents:      3500,
		ProviderOrderID: &providerOrderID,
	}
}

func TestMarkPaidTransitionsAndEmits(t *testing.T) {
	order := pendingOrder()
	repo := &stubOrderRepo{order: order}
	emitter := &stubEmitter{}
	svc := newOrdersService(t, repo, emitter, nil)

	paidAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out, err := svc.MarkPaid(context.Background(), "sq-order-1", "sq-payment-1", paidAt)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if out.Status != enums.OrderStatusPaid {
		t.Fatalf("status = %s, want paid", out.Status)
	}
	if out.ProviderPaymentID == nil || *out.ProviderPaymentID != "sq-payment-1" {
		t.Fatalf("provider payment id = %v", out.ProviderPaymentID)
	}
	if out.PaidAt == nil || !out.PaidAt.Equal(paidAt) {
		t.Fatalf("paid at = %v, want %v", out.PaidAt, paidAt)
	}
	if got := emitter.types(t); len(got) != 1 || got[0] != enums.EventOrderPaid {
		t.Fatalf("emitted %v, want [order.paid]", got)
	}
}

func TestMarkPaidRedeemsCoupon(t *testing.T) {
	order := pendingOrder()
	code := "SUMMER25"
	order.CouponCode = &code
	order.AppliedDiscounts = types.AppliedDiscounts{
		{Kind: enums.DiscountKindBundle, AmountCents: 3000},
		{Kind: enums.DiscountKindCoupon, AmountCents: 3500},
	}

	var redeemed []string
	emitter := &stubEmitter{}
	svc := newOrdersService(t, &stubOrderRepo{order: order}, emitter, &redeemed)

	if _, err := svc.MarkPaid(context.Background(), "sq-order-1", "sq-payment-1", time.Now()); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if len(redeemed) != 1 || redeemed[0] != "SUMMER25" {
		t.Fatalf("redeemed = %v, want [SUMMER25]", redeemed)
	}

	var couponEvent *outbox.DomainEvent
	for i := range emitter.events {
		if emitter.events[i].EventType == enums.EventCouponApplied {
			couponEvent = &emitter.events[i]
		}
	}
	if couponEvent == nil {
		t.Fatal("expected coupon.applied event")
	}
	data, ok := couponEvent.Data.(payloads.CouponAppliedEvent)
	if !ok {
		t.Fatalf("coupon event payload is %T", couponEvent.Data)
	}
	if data.Code != "SUMMER25" {
		t.Fatalf("coupon event code = %s", data.Code)
	}
	if data.DiscountCents != 3500 {
		t.Fatalf("coupon event discount = %d, want 3500 (coupon entries only)", data.DiscountCents)
	}
}

func TestMarkPaidReplayIsNoOp(t *testing.T) {
	order := pendingOrder()
	order.Status = enums.OrderStatusPaid
	emitter := &stubEmitter{}
	svc := newOrdersService(t, &stubOrderRepo{order: order}, emitter, nil)

	out, err := svc.MarkPaid(context.Background(), "sq-order-1", "sq-payment-1", time.Now())
	if err != nil {
		t.Fatalf("mark paid replay: %v", err)
	}
	if out.Status != enums.OrderStatusPaid {
		t.Fatalf("status = %s", out.Status)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("replay emitted %d events, want 0", len(emitter.events))
	}
}

func TestMarkPaidUnknownProviderOrder(t *testing.T) {
	svc := newOrdersService(t, &stubOrderRepo{}, &stubEmitter{}, nil)

	_, err := svc.MarkPaid(context.Background(), "missing", "payment", time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found code, got %v", err)
	}
}

func TestMarkPaymentFailedNeverDemotesPaidOrder(t *testing.T) {
	order := pendingOrder()
	order.Status = enums.OrderStatusPaid
	svc := newOrdersService(t, &stubOrderRepo{order: order}, &stubEmitter{}, nil)

	_, err := svc.MarkPaymentFailed(context.Background(), "sq-order-1", "card declined")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
}

func TestMarkPaymentFailedEmits(t *testing.T) {
	order := pendingOrder()
	emitter := &stubEmitter{}
	svc := newOrdersService(t, &stubOrderRepo{order: order}, emitter, nil)

	out, err := svc.MarkPaymentFailed(context.Background(), "sq-order-1", "card declined")
	if err != nil {
		t.Fatalf("mark payment failed: %v", err)
	}
	if out.Status != enums.OrderStatusFailed {
		t.Fatalf("status = %s, want failed", out.Status)
	}
	if got := emitter.types(t); len(got) != 1 || got[0] != enums.EventOrderFailed {
		t.Fatalf("emitted %v, want [order.payment_failed]", got)
	}
}

func TestMarkFulfilledRequiresPaidOrder(t *testing.T) {
	order := pendingOrder()
	svc := newOrdersService(t, &stubOrderRepo{order: order}, &stubEmitter{}, nil)

	err := svc.MarkFulfilled(context.Background(), order.ID, time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
}

func TestMarkFulfilledStampsOrder(t *testing.T) {
	order := pendingOrder()
	order.Status = enums.OrderStatusPaid
	repo := &stubOrderRepo{order: order}
	svc := newOrdersService(t, repo, &stubEmitter{}, nil)

	at := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	if err := svc.MarkFulfilled(context.Background(), order.ID, at); err != nil {
		t.Fatalf("mark fulfilled: %v", err)
	}
	if repo.saved == nil || repo.saved.Status != enums.OrderStatusFulfilled {
		t.Fatal("order not saved as fulfilled")
	}
	if repo.saved.FulfilledAt == nil || !repo.saved.FulfilledAt.Equal(at) {
		t.Fatalf("fulfilled at = %v, want %v", repo.saved.FulfilledAt, at)
	}
}

func TestGetOrderScopedToCustomer(t *testing.T) {
	svc := newOrdersService(t, &stubOrderRepo{}, &stubEmitter{}, nil)

	_, err := svc.GetOrder(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found code, got %v", err)
	}
}
