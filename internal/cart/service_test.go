package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
)

type stubCartRepo struct {
	record    *models.CartRecord
	findErr   error
	items     []models.CartItem
	abandoned []uuid.UUID
}

func (s *stubCartRepo) WithTx(*gorm.DB) CartRepository { return s }

func (s *stubCartRepo) FindActiveByCustomer(context.Context, uuid.UUID) (*models.CartRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.record, nil
}

func (s *stubCartRepo) FindByIDAndCustomer(context.Context, uuid.UUID, uuid.UUID) (*models.CartRecord, error) {
	record := *s.record
	record.Items = s.items
	return &record, nil
}

func (s *stubCartRepo) Create(_ context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	record.ID = uuid.New()
	record.Status = enums.CartStatusActive
	s.record = record
	s.findErr = nil
	return record, nil
}

func (s *stubCartRepo) Update(_ context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	s.record = record
	return record, nil
}

func (s *stubCartRepo) ReplaceItems(_ context.Context, cartID uuid.UUID, items []models.CartItem) error {
	s.items = items
	return nil
}

func (s *stubCartRepo) MarkConverted(context.Context, uuid.UUID, time.Time) error { return nil }

func (s *stubCartRepo) MarkAbandoned(_ context.Context, cartID uuid.UUID) error {
	s.abandoned = append(s.abandoned, cartID)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
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

func (s *stubBundles) ActiveBundles(context.Context) ([]models.Bundle, error) {
	return s.bundles, nil
}

type stubCoupons struct {
	coupon *models.Coupon
}

func (s *stubCoupons) ResolveForCart(_ context.Context, code string, _ time.Time) (*models.Coupon, error) {
	if s.coupon != nil {
		return s.coupon, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found or expired")
}

func newCartService(t *testing.T, repo CartRepository, products *stubProducts, bundles *stubBundles, coupons *stubCoupons) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, products, bundles, coupons, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func testProduct(priceCents int64) models.Product {
	return models.Product{
		ID:         uuid.New(),
		Slug:       "p-" + uuid.NewString()[:8],
		Title:      "Template",
		PriceCents: priceCents,
		IsActive:   true,
	}
}

func TestUpsertCartPricesServerSide(t *testing.T) {
	first := testProduct(6000)
	second := testProduct(4000)
	bundle := models.Bundle{
		ID:           uuid.New(),
		Name:         "pair",
		SavingsCents: 3000,
		Members: []models.BundleProduct{
			{ProductID: first.ID},
			{ProductID: second.ID},
		},
	}
	percent := 5000
	coupon := &models.Coupon{
		ID:                  uuid.New(),
		Code:                "HALF",
		Name:                "half off",
		Type:                enums.CouponTypePercentage,
		PercentBps:          &percent,
		CanStackWithBundles: true,
	}

	repo := &stubCartRepo{findErr: gorm.ErrRecordNotFound}
	svc := newCartService(t, repo,
		&stubProducts{products: map[uuid.UUID]models.Product{first.ID: first, second.ID: second}},
		&stubBundles{bundles: []models.Bundle{bundle}},
		&stubCoupons{coupon: coupon},
	)

	code := "half"
	dto, err := svc.UpsertCart(context.Background(), uuid.New(), UpsertCartInput{
		ProductIDs: []uuid.UUID{first.ID, second.ID, first.ID},
		CouponCode: &code,
	})
	if err != nil {
		t.Fatalf("upsert cart: %v", err)
	}

	// Duplicate lines collapse; $100 - $30 bundle - 50% coupon = $35.
	if len(dto.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(dto.Items))
	}
	if dto.SubtotalCents != 10000 {
		t.Fatalf("subtotal = %d, want 10000", dto.SubtotalCents)
	}
	if dto.DiscountCents != 6500 {
		t.Fatalf("discount = %d, want 6500", dto.DiscountCents)
	}
	if dto.TotalCents != 3500 {
		t.Fatalf("total = %d, want 3500", dto.TotalCents)
	}
	if dto.CouponCode == nil || *dto.CouponCode != "HALF" {
		t.Fatalf("coupon code = %v, want HALF", dto.CouponCode)
	}
	if len(dto.AppliedDiscounts) != 2 {
		t.Fatalf("expected 2 applied discounts, got %d", len(dto.AppliedDiscounts))
	}
}

func TestUpsertCartRejectsUnknownProduct(t *testing.T) {
	svc := newCartService(t, &stubCartRepo{findErr: gorm.ErrRecordNotFound},
		&stubProducts{products: map[uuid.UUID]models.Product{}},
		&stubBundles{}, &stubCoupons{})

	_, err := svc.UpsertCart(context.Background(), uuid.New(), UpsertCartInput{
		ProductIDs: []uuid.UUID{uuid.New()},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found code, got %v", err)
	}
}

func TestUpsertCartRejectsInactiveProduct(t *testing.T) {
	product := testProduct(1000)
	product.IsActive = false

	svc := newCartService(t, &stubCartRepo{findErr: gorm.ErrRecordNotFound},
		&stubProducts{products: map[uuid.UUID]models.Product{product.ID: product}},
		&stubBundles{}, &stubCoupons{})

	_, err := svc.UpsertCart(context.Background(), uuid.New(), UpsertCartInput{
		ProductIDs: []uuid.UUID{product.ID},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestUpsertCartEmptyInput(t *testing.T) {
	svc := newCartService(t, &stubCartRepo{}, &stubProducts{}, &stubBundles{}, &stubCoupons{})

	_, err := svc.UpsertCart(context.Background(), uuid.New(), UpsertCartInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestGetActiveCartNotFound(t *testing.T) {
	svc := newCartService(t, &stubCartRepo{findErr: gorm.ErrRecordNotFound},
		&stubProducts{}, &stubBundles{}, &stubCoupons{})

	_, err := svc.GetActiveCart(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found code, got %v", err)
	}
}

func TestClearCartAbandons(t *testing.T) {
	record := &models.CartRecord{ID: uuid.New(), Status: enums.CartStatusActive}
	repo := &stubCartRepo{record: record}
	svc := newCartService(t, repo, &stubProducts{}, &stubBundles{}, &stubCoupons{})

	if err := svc.ClearCart(context.Background(), uuid.New()); err != nil {
		t.Fatalf("clear cart: %v", err)
	}
	if len(repo.abandoned) != 1 || repo.abandoned[0] != record.ID {
		t.Fatalf("expected cart %s abandoned, got %v", record.ID, repo.abandoned)
	}
}

func TestQuoteActiveCartRecomputes(t *testing.T) {
	product := testProduct(2500)
	record := &models.CartRecord{
		ID:     uuid.New(),
		Status: enums.CartStatusActive,
		Items: []models.CartItem{
			{ProductID: product.ID, Title: product.Title, UnitPriceCents: 2500},
		},
	}
	svc := newCartService(t, &stubCartRepo{record: record},
		&stubProducts{products: map[uuid.UUID]models.Product{product.ID: product}},
		&stubBundles{}, &stubCoupons{})

	quote, err := svc.QuoteActiveCart(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.CartID != record.ID {
		t.Fatal("quote references wrong cart")
	}
	if quote.Result.TotalCents != 2500 {
		t.Fatalf("quote total = %d, want 2500", quote.Result.TotalCents)
	}
	if quote.Cached {
		t.Fatal("quote should not be cached without a cache")
	}
}
