package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	"github.com/mgiraldodev/templaria-backend/pkg/types"
)

// CartRecord is the customer's server-priced cart snapshot.
type CartRecord struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index"`
	Status           enums.CartStatus       `gorm:"column:status;type:cart_status;not null;default:'active'"`
	Currency         string                 `gorm:"column:currency;not null;default:'USD'"`
	CouponCode       *string                `gorm:"column:coupon_code"`
	SubtotalCents    int64                  `gorm:"column:subtotal_cents;not null;default:0"`
	DiscountCents    int64                  `gorm:"column:discount_cents;not null;default:0"`
	TaxCents         int64                  `gorm:"column:tax_cents;not null;default:0"`
	TotalCents       int64                  `gorm:"column:total_cents;not null;default:0"`
	AppliedDiscounts types.AppliedDiscounts `gorm:"column:applied_discounts;type:jsonb;serializer:json"`
	Items            []CartItem             `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	ConvertedAt      *time.Time             `gorm:"column:converted_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
