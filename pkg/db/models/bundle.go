package models

import (
	"time"

	"github.com/google/uuid"
)

// Bundle is a fixed set of products sold together at a reduced combined
// price when every member is present in the cart.
type Bundle struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string          `gorm:"column:name;not null"`
	Description        *string         `gorm:"column:description"`
	OriginalTotalCents int64           `gorm:"column:original_total_cents;not null"`
	BundlePriceCents   int64           `gorm:"column:bundle_price_cents;not null"`
	SavingsCents       int64           `gorm:"column:savings_cents;not null"`
	DiscountPercentBps int             `gorm:"column:discount_percent_bps;not null"`
	IsActive           bool            `gorm:"column:is_active;not null;default:true"`
	Members            []BundleProduct `gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BundleProduct maps one member product into a bundle.
type BundleProduct struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BundleID  uuid.UUID `gorm:"column:bundle_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
