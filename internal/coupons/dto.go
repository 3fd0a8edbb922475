package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
)

// CouponDTO is the admin coupon payload returned to clients.
type CouponDTO struct {
	ID                   uuid.UUID        `json:"id"`
	Code                 string           `json:"code"`
	Name                 string           `json:"name"`
	Description          *string          `json:"description,omitempty"`
	Type                 string           `json:"type"`
	Percent              *decimal.Decimal `json:"percent,omitempty"`
	AmountCents          *int64           `json:"amount_cents,omitempty"`
	PriorityOrder        int              `json:"priority_order"`
	CanStackWithBundles  bool             `json:"can_stack_with_bundles"`
	RequiresBundleInCart bool             `json:"requires_bundle_in_cart"`
	MinimumCartCents     *int64           `json:"minimum_cart_cents,omitempty"`
	MaximumDiscountCents *int64           `json:"maximum_discount_cents,omitempty"`
	IsActive             bool             `json:"is_active"`
	StartsAt             *time.Time       `json:"starts_at,omitempty"`
	ExpiresAt            *time.Time       `json:"expires_at,omitempty"`
	RedemptionCount      int              `json:"redemption_count"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// NewCouponDTO builds the client payload from the persisted model.
func NewCouponDTO(coupon *models.Coupon) *CouponDTO {
	dto := &CouponDTO{
		ID:                   coupon.ID,
		Code:                 coupon.Code,
		Name:                 coupon.Name,
		Description:          coupon.Description,
		Type:                 string(coupon.Type),
		AmountCents:          coupon.AmountCents,
		PriorityOrder:        coupon.PriorityOrder,
		CanStackWithBundles:  coupon.CanStackWithBundles,
		RequiresBundleInCart: coupon.RequiresBundleInCart,
		MinimumCartCents:     coupon.MinimumCartCents,
		MaximumDiscountCents: coupon.MaximumDiscountCents,
		IsActive:             coupon.IsActive,
		StartsAt:             coupon.StartsAt,
		ExpiresAt:            coupon.ExpiresAt,
		RedemptionCount:      coupon.RedemptionCount,
		CreatedAt:            coupon.CreatedAt,
		UpdatedAt:            coupon.UpdatedAt,
	}
	if coupon.PercentBps != nil {
		percent := decimal.New(int64(*coupon.PercentBps), -2)
		dto.Percent = &percent
	}
	return dto
}
