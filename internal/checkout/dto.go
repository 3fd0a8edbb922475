package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/types"
)

// CheckoutDTO is the client payload for a started checkout: the pending
// order plus the hosted payment URL the buyer is sent to.
type CheckoutDTO struct {
	OrderID          uuid.UUID              `json:"order_id"`
	OrderNumber      int64                  `json:"order_number"`
	Status           string                 `json:"status"`
	Currency         string                 `json:"currency"`
	SubtotalCents    int64                  `json:"subtotal_cents"`
	DiscountCents    int64                  `json:"discount_cents"`
	TaxCents         int64                  `json:"tax_cents"`
	TotalCents       int64                  `json:"total_cents"`
	AppliedDiscounts types.AppliedDiscounts `json:"applied_discounts,omitempty"`
	PaymentURL       string                 `json:"payment_url"`
	CreatedAt        time.Time              `json:"created_at"`
}

// NewCheckoutDTO builds the checkout payload from the pending order.
func NewCheckoutDTO(order *models.Order) *CheckoutDTO {
	dto := &CheckoutDTO{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		Status:           string(order.Status),
		Currency:         order.Currency,
		SubtotalCents:    order.SubtotalCents,
		DiscountCents:    order.DiscountCents,
		TaxCents:         order.TaxCents,
		TotalCents:       order.TotalCents,
		AppliedDiscounts: order.AppliedDiscounts,
		CreatedAt:        order.CreatedAt,
	}
	if order.PaymentLinkURL != nil {
		dto.PaymentURL = *order.PaymentLinkURL
	}
	return dto
}
