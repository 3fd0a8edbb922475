package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mgiraldodev/templaria-backend/pkg/enums"
)

// Product represents a digital template listing in the catalog.
type Product struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug                string                `gorm:"column:slug;not null;uniqueIndex"`
	Title               string                `gorm:"column:title;not null"`
	Subtitle            *string               `gorm:"column:subtitle"`
	Description         *string               `gorm:"column:description"`
	Category            enums.ProductCategory `gorm:"column:category;type:product_category;not null"`
	Tags                pq.StringArray        `gorm:"column:tags;type:text[]"`
	PriceCents          int64                 `gorm:"column:price_cents;not null"`
	CompareAtPriceCents *int64                `gorm:"column:compare_at_price_cents"`
	PreviewURL          *string               `gorm:"column:preview_url"`
	AssetObjectKey      string                `gorm:"column:asset_object_key;not null"`
	IsActive            bool                  `gorm:"column:is_active;not null;default:true"`
	IsFeatured          bool                  `gorm:"column:is_featured;not null;default:false"`
	RatingCount         int                   `gorm:"column:rating_count;not null;default:0"`
	RatingSum           int                   `gorm:"column:rating_sum;not null;default:0"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
