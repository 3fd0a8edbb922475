package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mgiraldodev/templaria-backend/pkg/enums"
)

// AppliedDiscount is one itemized entry of a priced cart's discount
// breakdown. Amounts are integer cents; Percent is informational only and
// never feeds back into money math.
type AppliedDiscount struct {
	Kind        enums.DiscountKind       `json:"kind"`
	Provenance  enums.DiscountProvenance `json:"provenance,omitempty"`
	ID          uuid.UUID                `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	AmountCents int64                    `json:"amount_cents"`
	Percent     *decimal.Decimal         `json:"percent,omitempty"`
	AppliedTo   enums.DiscountTarget     `json:"applied_to"`
}

// AppliedDiscounts is the jsonb column shape persisted on carts and orders.
type AppliedDiscounts []AppliedDiscount

// SubtotalCents sums the entries that reduce the payable subtotal.
// Shipping-targeted discounts are bookkeeping only on a digital-goods store.
func (a AppliedDiscounts) SubtotalCents() int64 {
	var total int64
	for _, entry := range a {
		if entry.AppliedTo == enums.TargetShipping {
			continue
		}
		total += entry.AmountCents
	}
	return total
}

// BundleMetadata is the per-item snapshot written at add-to-cart time when
// the storefront already priced an item as part of a bundle. It is the
// "embedded" trust source for bundle detection.
type BundleMetadata struct {
	BundleID           uuid.UUID `json:"bundle_id"`
	BundleName         string    `json:"bundle_name"`
	OriginalPriceCents int64     `json:"original_price_cents"`
	DiscountCents      int64     `json:"discount_cents"`
}
