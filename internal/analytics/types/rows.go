package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// StoreEventRow mirrors the store_events BigQuery schema. It is a single
// wide table: each event type fills the columns it knows about and leaves
// the rest NULL.
type StoreEventRow struct {
	EventID           string             `bigquery:"event_id"`
	EventType         string             `bigquery:"event_type"`
	OccurredAt        time.Time          `bigquery:"occurred_at"`
	OrderID           *string            `bigquery:"order_id"`
	CustomerID        *string            `bigquery:"customer_id"`
	ProductID         *string            `bigquery:"product_id"`
	CouponCode        *string            `bigquery:"coupon_code"`
	Rating            *int64             `bigquery:"rating"`
	ItemCount         *int64             `bigquery:"item_count"`
	SubtotalCents     *int64             `bigquery:"subtotal_cents"`
	DiscountCents     *int64             `bigquery:"discount_cents"`
	TaxCents          *int64             `bigquery:"tax_cents"`
	GrossRevenueCents *int64             `bigquery:"gross_revenue_cents"`
	Payload           cbigquery.NullJSON `bigquery:"payload"`
}
