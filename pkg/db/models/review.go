package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a verified-purchase product review. One review per customer
// per product, enforced by a composite unique index.
type Review struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_reviews_product_customer"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:idx_reviews_product_customer"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	Rating      int       `gorm:"column:rating;not null"`
	Title       *string   `gorm:"column:title"`
	Body        *string   `gorm:"column:body"`
	IsPublished bool      `gorm:"column:is_published;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
