package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db"
	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
)

// Service exposes coupon management and lookup operations.
type Service interface {
	CreateCoupon(ctx context.Context, input CouponInput) (*CouponDTO, error)
	UpdateCoupon(ctx context.Context, couponID uuid.UUID, input CouponInput) (*CouponDTO, error)
	DeleteCoupon(ctx context.Context, couponID uuid.UUID) error
	GetCoupon(ctx context.Context, couponID uuid.UUID) (*CouponDTO, error)
	ListCoupons(ctx context.Context) ([]CouponDTO, error)
	ResolveForCart(ctx context.Context, code string, at time.Time) (*models.Coupon, error)
}

// CouponInput is the admin payload to create or replace a coupon.
type CouponInput struct {
	Code                 string
	Name                 string
	Description          *string
	Type                 enums.CouponType
	PercentBps           *int
	AmountCents          *int64
	PriorityOrder        int
	CanStackWithBundles  bool
	RequiresBundleInCart bool
	MinimumCartCents     *int64
	MaximumDiscountCents *int64
	IsActive             bool
	StartsAt             *time.Time
	ExpiresAt            *time.Time
}

type couponRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindActiveByCode(ctx context.Context, code string, at time.Time) (*models.Coupon, error)
	ListAll(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo couponRepo
}

// NewService constructs a coupon service instance.
func NewService(repo couponRepo) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo}, nil
}

// CreateCoupon validates and persists a new coupon.
func (s *service) CreateCoupon(ctx context.Context, input CouponInput) (*CouponDTO, error) {
	coupon, err := buildCoupon(input)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_coupons_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return NewCouponDTO(created), nil
}

// UpdateCoupon replaces the coupon definition.
func (s *service) UpdateCoupon(ctx context.Context, couponID uuid.UUID, input CouponInput) (*CouponDTO, error) {
	if couponID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}
	existing, err := s.loadCoupon(ctx, couponID)
	if err != nil {
		return nil, err
	}

	replacement, err := buildCoupon(input)
	if err != nil {
		return nil, err
	}
	replacement.ID = existing.ID
	replacement.RedemptionCount = existing.RedemptionCount
	replacement.CreatedAt = existing.CreatedAt

	updated, err := s.repo.Update(ctx, replacement)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_coupons_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	return NewCouponDTO(updated), nil
}

// DeleteCoupon removes a coupon.
func (s *service) DeleteCoupon(ctx context.Context, couponID uuid.UUID) error {
	if couponID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}
	if _, err := s.loadCoupon(ctx, couponID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, couponID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	return nil
}

// GetCoupon returns one coupon by id.
func (s *service) GetCoupon(ctx context.Context, couponID uuid.UUID) (*CouponDTO, error) {
	if couponID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}
	coupon, err := s.loadCoupon(ctx, couponID)
	if err != nil {
		return nil, err
	}
	return NewCouponDTO(coupon), nil
}

// ListCoupons returns every coupon for the admin surface.
func (s *service) ListCoupons(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	out := make([]CouponDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewCouponDTO(&rows[i]))
	}
	return out, nil
}

// ResolveForCart returns the active coupon for an entered code, normalized
// to uppercase. Eligibility windows are enforced here so the pricing
// calculator only sees coupons that could apply.
func (s *service) ResolveForCart(ctx context.Context, code string, at time.Time) (*models.Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	coupon, err := s.repo.FindActiveByCode(ctx, normalized, at)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found or expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve coupon")
	}
	return coupon, nil
}

// NormalizeCode canonicalizes a user-entered coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func buildCoupon(input CouponInput) (*models.Coupon, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon name is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon type")
	}

	switch input.Type {
	case enums.CouponTypePercentage:
		if input.PercentBps == nil || *input.PercentBps <= 0 || *input.PercentBps > 10000 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
		}
	case enums.CouponTypeFixedAmount:
		if input.AmountCents == nil || *input.AmountCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed amount must be positive")
		}
	case enums.CouponTypeFreeShipping:
		if input.PercentBps != nil || input.AmountCents != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "free shipping coupons carry no value")
		}
	}

	if input.MinimumCartCents != nil && *input.MinimumCartCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum cart amount cannot be negative")
	}
	if input.MaximumDiscountCents != nil && *input.MaximumDiscountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "maximum discount must be positive")
	}
	if input.StartsAt != nil && input.ExpiresAt != nil && !input.ExpiresAt.After(*input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry must be after the start")
	}

	return &models.Coupon{
		Code:                 code,
		Name:                 strings.TrimSpace(input.Name),
		Description:          input.Description,
		Type:                 input.Type,
		PercentBps:           input.PercentBps,
		AmountCents:          input.AmountCents,
		PriorityOrder:        input.PriorityOrder,
		CanStackWithBundles:  input.CanStackWithBundles,
		RequiresBundleInCart: input.RequiresBundleInCart,
		MinimumCartCents:     input.MinimumCartCents,
		MaximumDiscountCents: input.MaximumDiscountCents,
		IsActive:             input.IsActive,
		StartsAt:             input.StartsAt,
		ExpiresAt:            input.ExpiresAt,
	}, nil
}

func (s *service) loadCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}
