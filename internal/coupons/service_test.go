package coupons

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

type stubCouponRepo struct {
	byCode  map[string]*models.Coupon
	created *models.Coupon
}

func (s *stubCouponRepo) FindByID(context.Context, uuid.UUID) (*models.Coupon, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCouponRepo) FindActiveByCode(_ context.Context, code string, _ time.Time) (*models.Coupon, error) {
	if coupon, ok := s.byCode[code]; ok {
		return coupon, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCouponRepo) ListAll(context.Context) ([]models.Coupon, error) { return nil, nil }

func (s *stubCouponRepo) Create(_ context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	coupon.ID = uuid.New()
	s.created = coupon
	return coupon, nil
}

func (s *stubCouponRepo) Update(_ context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	return coupon, nil
}

func (s *stubCouponRepo) Delete(context.Context, uuid.UUID) error { return nil }

func newTestService(t *testing.T, repo couponRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestCreateCouponNormalizesCode(t *testing.T) {
	repo := &stubCouponRepo{}
	svc := newTestService(t, repo)

	dto, err := svc.CreateCoupon(context.Background(), CouponInput{
		Code:       "  summer25 ",
		Name:       "Summer Sale",
		Type:       enums.CouponTypePercentage,
		PercentBps: intPtr(2500),
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	if dto.Code != "SUMMER25" {
		t.Fatalf("code = %s, want SUMMER25", dto.Code)
	}
	if repo.created.PercentBps == nil || *repo.created.PercentBps != 2500 {
		t.Fatalf("persisted percent bps = %v, want 2500", repo.created.PercentBps)
	}
}

func TestCreateCouponValidation(t *testing.T) {
	svc := newTestService(t, &stubCouponRepo{})
	ctx := context.Background()
	now := time.Now()
	earlier := now.Add(-time.Hour)

	cases := []struct {
		name  string
		input CouponInput
	}{
		{"missing code", CouponInput{Name: "x", Type: enums.CouponTypeFixedAmount, AmountCents: int64Ptr(100)}},
		{"missing name", CouponInput{Code: "C", Type: enums.CouponTypeFixedAmount, AmountCents: int64Ptr(100)}},
		{"bad type", CouponInput{Code: "C", Name: "x", Type: enums.CouponType("bogus")}},
		{"percentage out of range", CouponInput{Code: "C", Name: "x", Type: enums.CouponTypePercentage, PercentBps: intPtr(12000)}},
		{"percentage missing value", CouponInput{Code: "C", Name: "x", Type: enums.CouponTypePercentage}},
		{"fixed missing value", CouponInput{Code: "C", Name: "x", Type: enums.CouponTypeFixedAmount}},
		{"free shipping with value", CouponInput{Code: "C", Name: "x", Type: enums.CouponTypeFreeShipping, AmountCents: int64Ptr(100)}},
		{"negative minimum", CouponInput{Code: "C", Name: "x", Type: enums.CouponTypeFixedAmount, AmountCents: int64Ptr(100), MinimumCartCents: int64Ptr(-1)}},
		{"inverted window", CouponInput{Code: "C", Name: "x", Type: enums.CouponTypeFixedAmount, AmountCents: int64Ptr(100), StartsAt: &now, ExpiresAt: &earlier}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateCoupon(ctx, tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}

func TestResolveForCart(t *testing.T) {
	stored := &models.Coupon{
		ID:       uuid.New(),
		Code:     "WELCOME10",
		Name:     "Welcome",
		Type:     enums.CouponTypePercentage,
		IsActive: true,
	}
	repo := &stubCouponRepo{byCode: map[string]*models.Coupon{"WELCOME10": stored}}
	svc := newTestService(t, repo)

	coupon, err := svc.ResolveForCart(context.Background(), " welcome10 ", time.Now())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if coupon.ID != stored.ID {
		t.Fatal("resolved wrong coupon")
	}

	_, err = svc.ResolveForCart(context.Background(), "MISSING", time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found code, got %v", err)
	}

	_, err = svc.ResolveForCart(context.Background(), "  ", time.Now())
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code for empty code, got %v", err)
	}
}
