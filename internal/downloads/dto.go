package downloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
)

// IssuedLink pairs a freshly created link with its clear token URL. It
// exists only in memory on the way to the fulfillment email.
type IssuedLink struct {
	LinkID    uuid.UUID
	ProductID uuid.UUID
	Title     string
	URL       string
	ExpiresAt time.Time
}

// DownloadLinkDTO is the customer-facing view of an issued link. The
// token is not reproducible from here; buyers recover it from the email.
type DownloadLinkDTO struct {
	ID                 uuid.UUID  `json:"id"`
	OrderID            uuid.UUID  `json:"order_id"`
	ProductID          uuid.UUID  `json:"product_id"`
	Status             string     `json:"status"`
	ExpiresAt          time.Time  `json:"expires_at"`
	DownloadsRemaining int        `json:"downloads_remaining"`
	LastDownloadedAt   *time.Time `json:"last_downloaded_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// NewDownloadLinkDTO builds the client payload from the persisted link.
func NewDownloadLinkDTO(link *models.DownloadLink) DownloadLinkDTO {
	remaining := link.MaxDownloads - link.DownloadCount
	if remaining < 0 {
		remaining = 0
	}
	return DownloadLinkDTO{
		ID:                 link.ID,
		OrderID:            link.OrderID,
		ProductID:          link.ProductID,
		Status:             string(link.Status),
		ExpiresAt:          link.ExpiresAt,
		DownloadsRemaining: remaining,
		LastDownloadedAt:   link.LastDownloadedAt,
		CreatedAt:          link.CreatedAt,
	}
}
