package pricing

import (
	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/types"
)

// Line is one cart entry handed to the calculator. Each line is one unit
// of one product; there is no quantity field. UnitPriceCents must already
// reflect any bundle-adjusted pricing applied when the line was built.
type Line struct {
	ProductID      uuid.UUID
	Title          string
	UnitPriceCents int64
	Bundle         *types.BundleMetadata
}

// Options tunes a single calculation run.
type Options struct {
	// TaxRateBps is the tax rate in basis points (0 for digital goods).
	TaxRateBps int
	// TrustEmbeddedBundles switches bundle detection to the per-line
	// embedded metadata instead of the catalog definitions. Exactly one
	// of the two detection paths runs per calculation.
	TrustEmbeddedBundles bool
}

// Result is the priced breakdown of a cart. Amounts are integer cents and
// the itemized discounts always sum to TotalDiscountCents, including after
// the cap has scaled them down.
type Result struct {
	SubtotalCents         int64
	OriginalSubtotalCents int64
	BundleDiscounts       types.AppliedDiscounts
	CouponDiscounts       types.AppliedDiscounts
	TotalDiscountCents    int64
	TotalDiscountBps      int
	FinalSubtotalCents    int64
	TaxCents              int64
	ShippingCents         int64
	TotalCents            int64
	Applied               types.AppliedDiscounts
}
