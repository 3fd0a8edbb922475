package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/types"
)

// OrderDTO is the buyer-facing order payload.
type OrderDTO struct {
	ID               uuid.UUID              `json:"id"`
	OrderNumber      int64                  `json:"order_number"`
	Status           string                 `json:"status"`
	Currency         string                 `json:"currency"`
	SubtotalCents    int64                  `json:"subtotal_cents"`
	DiscountCents    int64                  `json:"discount_cents"`
	TaxCents         int64                  `json:"tax_cents"`
	ShippingCents    int64                  `json:"shipping_cents"`
	TotalCents       int64                  `json:"total_cents"`
	AppliedDiscounts types.AppliedDiscounts `json:"applied_discounts,omitempty"`
	CouponCode       *string                `json:"coupon_code,omitempty"`
	PaymentLinkURL   *string                `json:"payment_link_url,omitempty"`
	PaidAt           *time.Time             `json:"paid_at,omitempty"`
	FulfilledAt      *time.Time             `json:"fulfilled_at,omitempty"`
	Items            []OrderItemDTO         `json:"items"`
	CreatedAt        time.Time              `json:"created_at"`
}

// OrderItemDTO is one purchased template inside an order payload.
type OrderItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	DiscountCents  int64     `json:"discount_cents"`
	TotalCents     int64     `json:"total_cents"`
}

// ListResult is one page of a customer's orders.
type ListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewOrderDTO builds the client payload from the persisted order.
func NewOrderDTO(order *models.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Title:          item.Title,
			Category:       item.Category,
			UnitPriceCents: item.UnitPriceCents,
			DiscountCents:  item.DiscountCents,
			TotalCents:     item.TotalCents,
		})
	}
	return &OrderDTO{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		Status:           string(order.Status),
		Currency:         order.Currency,
		SubtotalCents:    order.SubtotalCents,
		DiscountCents:    order.DiscountCents,
		TaxCents:         order.TaxCents,
		ShippingCents:    order.ShippingCents,
		TotalCents:       order.TotalCents,
		AppliedDiscounts: order.AppliedDiscounts,
		CouponCode:       order.CouponCode,
		PaymentLinkURL:   order.PaymentLinkURL,
		PaidAt:           order.PaidAt,
		FulfilledAt:      order.FulfilledAt,
		Items:            items,
		CreatedAt:        order.CreatedAt,
	}
}
