package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/internal/pricing"
	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/types"
)

// CartDTO is the persisted cart snapshot returned to clients.
type CartDTO struct {
	ID               uuid.UUID              `json:"id"`
	Status           string                 `json:"status"`
	Currency         string                 `json:"currency"`
	CouponCode       *string                `json:"coupon_code,omitempty"`
	SubtotalCents    int64                  `json:"subtotal_cents"`
	DiscountCents    int64                  `json:"discount_cents"`
	TaxCents         int64                  `json:"tax_cents"`
	TotalCents       int64                  `json:"total_cents"`
	AppliedDiscounts types.AppliedDiscounts `json:"applied_discounts,omitempty"`
	Items            []CartItemDTO          `json:"items"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// CartItemDTO is one unit line in the cart payload.
type CartItemDTO struct {
	ID             uuid.UUID             `json:"id"`
	ProductID      uuid.UUID             `json:"product_id"`
	Title          string                `json:"title"`
	UnitPriceCents int64                 `json:"unit_price_cents"`
	Bundle         *types.BundleMetadata `json:"bundle,omitempty"`
}

// QuoteDTO is a fresh pricing run over the active cart.
type QuoteDTO struct {
	CartID uuid.UUID      `json:"cart_id"`
	Result pricing.Result `json:"result"`
	Cached bool           `json:"cached"`
}

// NewCartDTO builds the client payload from the persisted record.
func NewCartDTO(record *models.CartRecord) *CartDTO {
	items := make([]CartItemDTO, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, CartItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Title:          item.Title,
			UnitPriceCents: item.UnitPriceCents,
			Bundle:         item.Bundle,
		})
	}
	return &CartDTO{
		ID:               record.ID,
		Status:           string(record.Status),
		Currency:         record.Currency,
		CouponCode:       record.CouponCode,
		SubtotalCents:    record.SubtotalCents,
		DiscountCents:    record.DiscountCents,
		TaxCents:         record.TaxCents,
		TotalCents:       record.TotalCents,
		AppliedDiscounts: record.AppliedDiscounts,
		Items:            items,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}
