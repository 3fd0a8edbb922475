package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/types"
)

// CartItem is one unit of a template in a cart. There is no quantity
// column: each line represents exactly one unit of a digital product.
type CartItem struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID             `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID      uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	Title          string                `gorm:"column:title;not null"`
	UnitPriceCents int64                 `gorm:"column:unit_price_cents;not null"`
	Bundle         *types.BundleMetadata `gorm:"column:bundle;type:jsonb;serializer:json"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
