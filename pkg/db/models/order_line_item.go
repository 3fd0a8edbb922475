package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem snapshots one purchased template inside an order.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title          string    `gorm:"column:title;not null"`
	Category       string    `gorm:"column:category;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	DiscountCents  int64     `gorm:"column:discount_cents;not null;default:0"`
	TotalCents     int64     `gorm:"column:total_cents;not null"`
	AssetObjectKey string    `gorm:"column:asset_object_key;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
