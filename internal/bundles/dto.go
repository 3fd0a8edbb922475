package bundles

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
)

// BundleDTO is the bundle payload returned to clients.
type BundleDTO struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Description        *string         `json:"description,omitempty"`
	OriginalTotalCents int64           `json:"original_total_cents"`
	BundlePriceCents   int64           `json:"bundle_price_cents"`
	SavingsCents       int64           `json:"savings_cents"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	IsActive           bool            `json:"is_active"`
	ProductIDs         []uuid.UUID     `json:"product_ids"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NewBundleDTO builds the client payload from the persisted model.
func NewBundleDTO(bundle *models.Bundle) *BundleDTO {
	productIDs := make([]uuid.UUID, 0, len(bundle.Members))
	for _, member := range bundle.Members {
		productIDs = append(productIDs, member.ProductID)
	}
	return &BundleDTO{
		ID:                 bundle.ID,
		Name:               bundle.Name,
		Description:        bundle.Description,
		OriginalTotalCents: bundle.OriginalTotalCents,
		BundlePriceCents:   bundle.BundlePriceCents,
		SavingsCents:       bundle.SavingsCents,
		DiscountPercent:    decimal.New(int64(bundle.DiscountPercentBps), -2),
		IsActive:           bundle.IsActive,
		ProductIDs:         productIDs,
		CreatedAt:          bundle.CreatedAt,
		UpdatedAt:          bundle.UpdatedAt,
	}
}
