package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderCreatedEvent fires when checkout produces a pending order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID `json:"orderId"`
	OrderNumber   int64     `json:"orderNumber"`
	CustomerID    uuid.UUID `json:"customerId"`
	CustomerEmail string    `json:"customerEmail"`
	Currency      string    `json:"currency"`
	SubtotalCents int64     `json:"subtotalCents"`
	DiscountCents int64     `json:"discountCents"`
	TaxCents      int64     `json:"taxCents"`
	TotalCents    int64     `json:"totalCents"`
	CouponCode    string    `json:"couponCode,omitempty"`
	ItemCount     int       `json:"itemCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// OrderPaidEvent fires when a payment webhook confirms the charge. The
// fulfillment worker consumes it to issue download links and the receipt.
type OrderPaidEvent struct {
	OrderID           uuid.UUID `json:"orderId"`
	OrderNumber       int64     `json:"orderNumber"`
	CustomerID        uuid.UUID `json:"customerId"`
	CustomerEmail     string    `json:"customerEmail"`
	TotalCents        int64     `json:"totalCents"`
	Currency          string    `json:"currency"`
	ProviderPaymentID string    `json:"providerPaymentId"`
	PaidAt            time.Time `json:"paidAt"`
}

// OrderPaymentFailedEvent fires when the provider reports a failed or
// canceled charge for a pending order.
type OrderPaymentFailedEvent struct {
	OrderID           uuid.UUID `json:"orderId"`
	OrderNumber       int64     `json:"orderNumber"`
	CustomerID        uuid.UUID `json:"customerId"`
	ProviderPaymentID string    `json:"providerPaymentId,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	FailedAt          time.Time `json:"failedAt"`
}

// CouponAppliedEvent records a successful coupon redemption at checkout.
type CouponAppliedEvent struct {
	CouponID      uuid.UUID `json:"couponId"`
	Code          string    `json:"code"`
	OrderID       uuid.UUID `json:"orderId"`
	CustomerID    uuid.UUID `json:"customerId"`
	DiscountCents int64     `json:"discountCents"`
	AppliedAt     time.Time `json:"appliedAt"`
}

// ReviewCreatedEvent fires when a verified buyer publishes a review.
type ReviewCreatedEvent struct {
	ReviewID   uuid.UUID `json:"reviewId"`
	ProductID  uuid.UUID `json:"productId"`
	CustomerID uuid.UUID `json:"customerId"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"`
}
