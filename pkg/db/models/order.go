package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	"github.com/mgiraldodev/templaria-backend/pkg/types"
)

// Order is a checkout-produced order paid through the hosted provider.
// Provider state transitions arrive via webhook and are synced, never
// driven, from here.
type Order struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       int64                  `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID        uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index"`
	CustomerEmail     string                 `gorm:"column:customer_email;not null"`
	CartID            *uuid.UUID             `gorm:"column:cart_id;type:uuid"`
	Status            enums.OrderStatus      `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Currency          string                 `gorm:"column:currency;not null;default:'USD'"`
	SubtotalCents     int64                  `gorm:"column:subtotal_cents;not null"`
	DiscountCents     int64                  `gorm:"column:discount_cents;not null;default:0"`
	TaxCents          int64                  `gorm:"column:tax_cents;not null;default:0"`
	ShippingCents     int64                  `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents        int64                  `gorm:"column:total_cents;not null"`
	AppliedDiscounts  types.AppliedDiscounts `gorm:"column:applied_discounts;type:jsonb;serializer:json"`
	CouponCode        *string                `gorm:"column:coupon_code"`
	PaymentLinkID     *string                `gorm:"column:payment_link_id"`
	PaymentLinkURL    *string                `gorm:"column:payment_link_url"`
	ProviderOrderID   *string                `gorm:"column:provider_order_id;index"`
	ProviderPaymentID *string                `gorm:"column:provider_payment_id"`
	PaidAt            *time.Time             `gorm:"column:paid_at"`
	FulfilledAt       *time.Time             `gorm:"column:fulfilled_at"`
	CanceledAt        *time.Time             `gorm:"column:canceled_at"`
	Items             []OrderLineItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
