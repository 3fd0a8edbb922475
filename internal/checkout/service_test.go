package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/internal/cart"
	"github.com/mgiraldodev/templaria-backend/internal/orders"
	"github.com/mgiraldodev/templaria-backend/internal/pricing"
	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
	"github.com/mgiraldodev/templaria-backend/pkg/square"
)

type stubCartRepo struct {
	record    *models.CartRecord
	converted []uuid.UUID
}

func (s *stubCartRepo) WithTx(*gorm.DB) cart.CartRepository { return s }

func (s *stubCartRepo) FindActiveByCustomer(context.Context, uuid.UUID) (*models.CartRecord, error) {
	if s.record == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.record, nil
}

func (s *stubCartRepo) FindByIDAndCustomer(context.Context, uuid.UUID, uuid.UUID) (*models.CartRecord, error) {
	return s.record, nil
}

func (s *stubCartRepo) Create(_ context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	return record, nil
}

func (s *stubCartRepo) Update(_ context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	return record, nil
}

func (s *stubCartRepo) ReplaceItems(context.Context, uuid.UUID, []models.CartItem) error { return nil }

func (s *stubCartRepo) MarkConverted(_ context.Context, cartID uuid.UUID, _ time.Time) error {
	s.converted = append(s.converted, cartID)
	return nil
}

func (s *stubCartRepo) MarkAbandoned(context.Context, uuid.UUID) error { return nil }

type stubOrdersRepo struct {
	pending *models.Order
	created *models.Order
	items   []models.OrderLineItem
	saved   *models.Order
}

func (s *stubOrdersRepo) WithTx(*gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) NextOrderNumber(context.Context) (int64, error) { return 1001, nil }

func (s *stubOrdersRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	s.created = order
	return order, nil
}

func (s *stubOrdersRepo) CreateLineItems(_ context.Context, items []models.OrderLineItem) error {
	s.items = items
	return nil
}

func (s *stubOrdersRepo) FindByID(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindByIDAndCustomer(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindByProviderOrderID(context.Context, string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindPendingByCartID(context.Context, uuid.UUID) (*models.Order, error) {
	if s.pending == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.pending, nil
}

func (s *stubOrdersRepo) ListByCustomer(context.Context, uuid.UUID, pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (s *stubOrdersRepo) Save(_ context.Context, order *models.Order) (*models.Order, error) {
	s.saved = order
	return order, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubProducts struct {
	products map[uuid.UUID]models.Product
}

func (s *stubProducts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			out = append(out, product)
		}
	}
	return out, nil
}

type stubBundles struct {
	bundles []models.Bundle
}

func (s *stubBundles) ActiveBundles(context.Context) ([]models.Bundle, error) { return s.bundles, nil }

type stubCoupons struct {
	coupon *models.Coupon
}

func (s *stubCoupons) ResolveForCart(context.Context, string, time.Time) (*models.Coupon, error) {
	if s.coupon == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found or expired")
	}
	return s.coupon, nil
}

type stubPayments struct {
	calls int
	last  square.PaymentLinkCreateParams
}

func (s *stubPayments) LocationID() string { return "loc-1" }

func (s *stubPayments) NewIdempotencyKey(prefix string) string { return prefix + "-key" }

func (s *stubPayments) CreatePaymentLink(_ context.Context, params square.PaymentLinkCreateParams) (*sq.PaymentLink, error) {
	s.calls++
	s.last = params
	id := "plink-1"
	url := "https://square.link/u/plink-1"
	orderID := "sq-order-1"
	return &sq.PaymentLink{ID: &id, URL: &url, OrderID: &orderID}, nil
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type checkoutDeps struct {
	carts    *stubCartRepo
	orders   *stubOrdersRepo
	payments *stubPayments
	emitter  *stubEmitter
}

func (d checkoutDeps) created() *models.Order { return d.orders.created }

func newCheckoutService(t *testing.T, deps checkoutDeps, products *stubProducts, bundles *stubBundles, coupons *stubCoupons) Service {
	t.Helper()
	svc, err := NewService(
		deps.carts, deps.orders, products, bundles, coupons,
		deps.payments, deps.emitter, stubTxRunner{},
		Config{StoreName: "Templaria", Currency: "USD", RedirectURL: "https://shop.example.com/thanks"},
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func activeCartFixture() (*models.CartRecord, *stubProducts, *stubBundles, *stubCoupons) {
	first := models.Product{
		ID: uuid.New(), Title: "Landing Kit", Category: enums.CategoryLandingPage,
		PriceCents: 6000, AssetObjectKey: "assets/landing.zip", IsActive: true,
	}
	second := models.Product{
		ID: uuid.New(), Title: "Email Pack", Category: enums.CategoryEmail,
		PriceCents: 4000, AssetObjectKey: "assets/email.zip", IsActive: true,
	}
	bundle := models.Bundle{
		ID: uuid.New(), Name: "pair", SavingsCents: 3000,
		Members: []models.BundleProduct{{ProductID: first.ID}, {ProductID: second.ID}},
	}
	percent := 5000
	coupon := models.Coupon{
		ID: uuid.New(), Code: "HALF", Name: "half off",
		Type: enums.CouponTypePercentage, PercentBps: &percent, CanStackWithBundles: true,
	}
	code := "HALF"
	record := &models.CartRecord{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Status:     enums.CartStatusActive,
		CouponCode: &code,
		Items: []models.CartItem{
			{ProductID: first.ID, Title: first.Title, UnitPriceCents: 6000},
			{ProductID: second.ID, Title: second.Title, UnitPriceCents: 4000},
		},
	}
	products := &stubProducts{products: map[uuid.UUID]models.Product{first.ID: first, second.ID: second}}
	return record, products, &stubBundles{bundles: []models.Bundle{bundle}}, &stubCoupons{coupon: &coupon}
}

func TestBeginCheckoutCreatesOrderAndLink(t *testing.T) {
	record, products, bundles, coupons := activeCartFixture()
	deps := checkoutDeps{
		carts:    &stubCartRepo{record: record},
		orders:   &stubOrdersRepo{},
		payments: &stubPayments{},
		emitter:  &stubEmitter{},
	}
	svc := newCheckoutService(t, deps, products, bundles, coupons)

	dto, err := svc.BeginCheckout(context.Background(), record.CustomerID, BeginCheckoutInput{Email: "Buyer@Example.com"})
	if err != nil {
		t.Fatalf("begin checkout: %v", err)
	}

	// $100 cart, $30 bundle, 50% coupon on the remainder.
	if dto.SubtotalCents != 10000 || dto.DiscountCents != 6500 || dto.TotalCents != 3500 {
		t.Fatalf("totals = %d/%d/%d, want 10000/6500/3500", dto.SubtotalCents, dto.DiscountCents, dto.TotalCents)
	}
	if dto.PaymentURL != "https://square.link/u/plink-1" {
		t.Fatalf("payment url = %s", dto.PaymentURL)
	}
	if deps.created().CustomerEmail != "buyer@example.com" {
		t.Fatalf("email = %s, want normalized lowercase", deps.created().CustomerEmail)
	}
	if deps.created().CouponCode == nil || *deps.created().CouponCode != "HALF" {
		t.Fatalf("coupon code = %v", deps.created().CouponCode)
	}

	if len(deps.orders.items) != 2 {
		t.Fatalf("line items = %d, want 2", len(deps.orders.items))
	}
	var discountSum, totalSum int64
	for _, item := range deps.orders.items {
		discountSum += item.DiscountCents
		totalSum += item.TotalCents
	}
	if discountSum != 6500 {
		t.Fatalf("line discounts sum to %d, want 6500", discountSum)
	}
	if totalSum != dto.SubtotalCents-dto.DiscountCents {
		t.Fatalf("line totals sum to %d, want %d", totalSum, dto.SubtotalCents-dto.DiscountCents)
	}
	if deps.orders.items[0].AssetObjectKey != "assets/landing.zip" {
		t.Fatalf("asset key = %s", deps.orders.items[0].AssetObjectKey)
	}

	if len(deps.carts.converted) != 1 || deps.carts.converted[0] != record.ID {
		t.Fatalf("cart not converted: %v", deps.carts.converted)
	}
	if len(deps.emitter.events) != 1 || deps.emitter.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected order.created event, got %v", deps.emitter.events)
	}
	if deps.payments.last.ReferenceID != deps.created().ID.String() {
		t.Fatalf("payment reference = %s", deps.payments.last.ReferenceID)
	}
	if deps.orders.saved == nil || deps.orders.saved.ProviderOrderID == nil || *deps.orders.saved.ProviderOrderID != "sq-order-1" {
		t.Fatal("provider order id not stored")
	}
}

func TestBeginCheckoutIdempotentPerCart(t *testing.T) {
	record, products, bundles, coupons := activeCartFixture()
	url := "https://square.link/u/existing"
	pending := &models.Order{
		ID:             uuid.New(),
		OrderNumber:    1000,
		Status:         enums.OrderStatusPending,
		Currency:       "USD",
		TotalCents:     3500,
		PaymentLinkURL: &url,
	}
	deps := checkoutDeps{
		carts:    &stubCartRepo{record: record},
		orders:   &stubOrdersRepo{pending: pending},
		payments: &stubPayments{},
		emitter:  &stubEmitter{},
	}
	svc := newCheckoutService(t, deps, products, bundles, coupons)

	dto, err := svc.BeginCheckout(context.Background(), record.CustomerID, BeginCheckoutInput{Email: "buyer@example.com"})
	if err != nil {
		t.Fatalf("begin checkout: %v", err)
	}
	if dto.OrderID != pending.ID || dto.PaymentURL != url {
		t.Fatalf("expected existing pending order, got %+v", dto)
	}
	if deps.orders.created != nil {
		t.Fatal("retry created a second order")
	}
	if deps.payments.calls != 0 {
		t.Fatalf("retry called the provider %d times", deps.payments.calls)
	}
}

func TestBeginCheckoutResumesMissingLink(t *testing.T) {
	record, products, bundles, coupons := activeCartFixture()
	pending := &models.Order{
		ID:          uuid.New(),
		OrderNumber: 1000,
		Status:      enums.OrderStatusPending,
		Currency:    "USD",
		TotalCents:  3500,
	}
	deps := checkoutDeps{
		carts:    &stubCartRepo{record: record},
		orders:   &stubOrdersRepo{pending: pending},
		payments: &stubPayments{},
		emitter:  &stubEmitter{},
	}
	svc := newCheckoutService(t, deps, products, bundles, coupons)

	dto, err := svc.BeginCheckout(context.Background(), record.CustomerID, BeginCheckoutInput{Email: "buyer@example.com"})
	if err != nil {
		t.Fatalf("begin checkout: %v", err)
	}
	if deps.payments.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", deps.payments.calls)
	}
	if dto.PaymentURL == "" {
		t.Fatal("expected a payment url on resumed checkout")
	}
}

func TestBeginCheckoutEmptyCart(t *testing.T) {
	record := &models.CartRecord{ID: uuid.New(), Status: enums.CartStatusActive}
	deps := checkoutDeps{
		carts:    &stubCartRepo{record: record},
		orders:   &stubOrdersRepo{},
		payments: &stubPayments{},
		emitter:  &stubEmitter{},
	}
	svc := newCheckoutService(t, deps, &stubProducts{}, &stubBundles{}, &stubCoupons{})

	_, err := svc.BeginCheckout(context.Background(), uuid.New(), BeginCheckoutInput{Email: "buyer@example.com"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestBeginCheckoutInvalidEmail(t *testing.T) {
	deps := checkoutDeps{
		carts:    &stubCartRepo{},
		orders:   &stubOrdersRepo{},
		payments: &stubPayments{},
		emitter:  &stubEmitter{},
	}
	svc := newCheckoutService(t, deps, &stubProducts{}, &stubBundles{}, &stubCoupons{})

	_, err := svc.BeginCheckout(context.Background(), uuid.New(), BeginCheckoutInput{Email: "not-an-email"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestBeginCheckoutExpiredCoupon(t *testing.T) {
	record, products, bundles, _ := activeCartFixture()
	deps := checkoutDeps{
		carts:    &stubCartRepo{record: record},
		orders:   &stubOrdersRepo{},
		payments: &stubPayments{},
		emitter:  &stubEmitter{},
	}
	svc := newCheckoutService(t, deps, products, bundles, &stubCoupons{})

	_, err := svc.BeginCheckout(context.Background(), record.CustomerID, BeginCheckoutInput{Email: "buyer@example.com"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code for expired coupon, got %v", err)
	}
}

func TestDistributeDiscountSumsExactly(t *testing.T) {
	lines := []pricing.Line{
		{ProductID: uuid.New(), UnitPriceCents: 3333},
		{ProductID: uuid.New(), UnitPriceCents: 3333},
		{ProductID: uuid.New(), UnitPriceCents: 3334},
	}
	out := distributeDiscount(lines, 1000)

	var sum int64
	for _, cents := range out {
		sum += cents
		if cents < 0 {
			t.Fatalf("negative per-line discount %d", cents)
		}
	}
	if sum != 1000 {
		t.Fatalf("distributed %d, want 1000", sum)
	}
}
