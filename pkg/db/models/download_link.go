package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/enums"
)

// DownloadLink grants time- and count-limited access to a purchased
// template asset. The access token is stored hashed; the clear token only
// ever appears in the fulfillment email.
type DownloadLink struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID                `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID      uuid.UUID                `gorm:"column:order_item_id;type:uuid;not null"`
	ProductID        uuid.UUID                `gorm:"column:product_id;type:uuid;not null"`
	CustomerID       uuid.UUID                `gorm:"column:customer_id;type:uuid;not null;index"`
	TokenHash        string                   `gorm:"column:token_hash;not null"`
	Status           enums.DownloadLinkStatus `gorm:"column:status;type:download_link_status;not null;default:'active'"`
	ExpiresAt        time.Time                `gorm:"column:expires_at;not null"`
	MaxDownloads     int                      `gorm:"column:max_downloads;not null"`
	DownloadCount    int                      `gorm:"column:download_count;not null;default:0"`
	LastDownloadedAt *time.Time               `gorm:"column:last_downloaded_at"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
