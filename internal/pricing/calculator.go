package pricing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	"github.com/mgiraldodev/templaria-backend/pkg/types"
)

// MaxDiscountBps is the global ceiling on combined discounts: no mix of
// bundles and coupons may ever reduce the subtotal by more than 70%.
const MaxDiscountBps = 7000

const bpsDenominator = 10000

// Subtotal sums the bundle-adjusted unit prices across all lines.
// Returns 0 for an empty cart.
func Subtotal(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		total += line.UnitPriceCents
	}
	return total
}

// OriginalSubtotal sums each line's pre-bundle price, falling back to the
// current unit price when no bundle metadata is present. Used to report
// total savings, never for the payable total.
func OriginalSubtotal(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		if line.Bundle != nil && line.Bundle.OriginalPriceCents > 0 {
			total += line.Bundle.OriginalPriceCents
			continue
		}
		total += line.UnitPriceCents
	}
	return total
}

// DetectBundles matches catalog bundle definitions against the cart. A
// bundle applies only when every member product is present; there is no
// partial credit and no mutual exclusion between bundles.
func DetectBundles(lines []Line, bundles []models.Bundle) types.AppliedDiscounts {
	if len(lines) == 0 || len(bundles) == 0 {
		return nil
	}

	inCart := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		inCart[line.ProductID] = struct{}{}
	}

	var applied types.AppliedDiscounts
	for _, bundle := range bundles {
		if len(bundle.Members) == 0 {
			continue
		}
		satisfied := true
		for _, member := range bundle.Members {
			if _, ok := inCart[member.ProductID]; !ok {
				satisfied = false
				break
			}
		}
		if !satisfied {
			continue
		}

		percent := decimal.New(int64(bundle.DiscountPercentBps), -2)
		entry := types.AppliedDiscount{
			Kind:        enums.DiscountKindBundle,
			Provenance:  enums.ProvenanceCatalog,
			ID:          bundle.ID,
			Name:        bundle.Name,
			AmountCents: bundle.SavingsCents,
			Percent:     &percent,
			AppliedTo:   enums.TargetItems,
		}
		if bundle.Description != nil {
			entry.Description = *bundle.Description
		}
		applied = append(applied, entry)
	}
	return applied
}

// DetectEmbeddedBundles reads bundle discounts already recorded on the
// lines at add-to-cart time, grouping by bundle id and summing each
// group's embedded discount. This is the client-held trust source; it is
// never combined with DetectBundles in one calculation.
func DetectEmbeddedBundles(lines []Line) types.AppliedDiscounts {
	var order []uuid.UUID
	groups := make(map[uuid.UUID]*types.AppliedDiscount)

	for _, line := range lines {
		if line.Bundle == nil || line.Bundle.BundleID == uuid.Nil {
			continue
		}
		meta := line.Bundle
		if existing, ok := groups[meta.BundleID]; ok {
			existing.AmountCents += meta.DiscountCents
			continue
		}
		groups[meta.BundleID] = &types.AppliedDiscount{
			Kind:        enums.DiscountKindBundle,
			Provenance:  enums.ProvenanceEmbedded,
			ID:          meta.BundleID,
			Name:        meta.BundleName,
			AmountCents: meta.DiscountCents,
			AppliedTo:   enums.TargetItems,
		}
		order = append(order, meta.BundleID)
	}

	if len(order) == 0 {
		return nil
	}
	applied := make(types.AppliedDiscounts, 0, len(order))
	for _, id := range order {
		applied = append(applied, *groups[id])
	}
	return applied
}

// ApplyCoupons evaluates coupons in ascending priority order and applies
// at most one: the first qualifying coupon wins and the loop stops.
// Eligibility windows and active flags are filtered by the coupon lookup
// before the calculator runs; only cart-shape rules are checked here.
func ApplyCoupons(subtotalCents int64, coupons []models.Coupon, bundlesPresent bool) types.AppliedDiscounts {
	if len(coupons) == 0 {
		return nil
	}

	ordered := make([]models.Coupon, len(coupons))
	copy(ordered, coupons)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PriorityOrder < ordered[j].PriorityOrder
	})

	for _, coupon := range ordered {
		if bundlesPresent && !coupon.CanStackWithBundles {
			continue
		}
		if coupon.RequiresBundleInCart && !bundlesPresent {
			continue
		}
		if coupon.MinimumCartCents != nil && subtotalCents < *coupon.MinimumCartCents {
			continue
		}

		entry := couponDiscount(coupon, subtotalCents)
		return types.AppliedDiscounts{entry}
	}
	return nil
}

func couponDiscount(coupon models.Coupon, subtotalCents int64) types.AppliedDiscount {
	entry := types.AppliedDiscount{
		Kind:      enums.DiscountKindCoupon,
		ID:        coupon.ID,
		Name:      coupon.Name,
		AppliedTo: enums.TargetSubtotal,
	}
	if coupon.Description != nil {
		entry.Description = *coupon.Description
	}

	switch coupon.Type {
	case enums.CouponTypePercentage:
		bps := 0
		if coupon.PercentBps != nil {
			bps = *coupon.PercentBps
		}
		entry.AmountCents = percentOf(subtotalCents, bps)
		percent := decimal.New(int64(bps), -2)
		entry.Percent = &percent
	case enums.CouponTypeFixedAmount:
		var amount int64
		if coupon.AmountCents != nil {
			amount = *coupon.AmountCents
		}
		if amount > subtotalCents {
			amount = subtotalCents
		}
		if amount < 0 {
			amount = 0
		}
		entry.AmountCents = amount
	case enums.CouponTypeFreeShipping:
		// Shipping is always zero on a digital-only store, so the
		// entry is bookkeeping: it marks the coupon as consumed
		// without touching the working subtotal.
		entry.AppliedTo = enums.TargetShipping
		entry.AmountCents = 0
	}

	if coupon.MaximumDiscountCents != nil && entry.AmountCents > *coupon.MaximumDiscountCents {
		entry.AmountCents = *coupon.MaximumDiscountCents
	}
	if entry.AmountCents < 0 {
		entry.AmountCents = 0
	}
	return entry
}

// Calculate is the orchestrating entry point: subtotal, bundle detection,
// coupon evaluation against the post-bundle price, the 70% cap, then tax.
// It is pure: no I/O, no clock, and identical inputs always produce
// identical results.
func Calculate(lines []Line, bundles []models.Bundle, coupons []models.Coupon, opts Options) Result {
	subtotal := Subtotal(lines)
	original := OriginalSubtotal(lines)

	var bundleDiscounts types.AppliedDiscounts
	if opts.TrustEmbeddedBundles {
		bundleDiscounts = DetectEmbeddedBundles(lines)
	} else {
		bundleDiscounts = DetectBundles(lines, bundles)
	}
	bundleTotal := bundleDiscounts.SubtotalCents()
	if bundleTotal > subtotal {
		// Overlapping bundles (or embedded metadata) can promise more
		// savings than the cart is worth. Shrink the itemized entries
		// along with the clamp so the breakdown still sums to the
		// amount actually discounted.
		scaleDiscounts(bundleTotal, subtotal, bundleDiscounts)
		bundleTotal = subtotal
	}
	subtotalAfterBundles := subtotal - bundleTotal

	couponDiscounts := ApplyCoupons(subtotalAfterBundles, coupons, len(bundleDiscounts) > 0)
	couponTotal := couponDiscounts.SubtotalCents()

	totalDiscount := bundleTotal + couponTotal
	capCents := percentFloor(subtotal, MaxDiscountBps)
	if totalDiscount > capCents {
		scaleDiscounts(totalDiscount, capCents, bundleDiscounts, couponDiscounts)
		totalDiscount = capCents
	}

	finalSubtotal := subtotal - totalDiscount
	tax := percentOf(finalSubtotal, opts.TaxRateBps)
	var shipping int64 // digital-only product line

	applied := make(types.AppliedDiscounts, 0, len(bundleDiscounts)+len(couponDiscounts))
	applied = append(applied, bundleDiscounts...)
	applied = append(applied, couponDiscounts...)

	return Result{
		SubtotalCents:         subtotal,
		OriginalSubtotalCents: original,
		BundleDiscounts:       bundleDiscounts,
		CouponDiscounts:       couponDiscounts,
		TotalDiscountCents:    totalDiscount,
		TotalDiscountBps:      discountBps(totalDiscount, subtotal),
		FinalSubtotalCents:    finalSubtotal,
		TaxCents:              tax,
		ShippingCents:         shipping,
		TotalCents:            finalSubtotal + tax + shipping,
		Applied:               applied,
	}
}

// scaleDiscounts shrinks every subtotal-affecting discount by capCents/total
// so the itemized breakdown still sums exactly to the capped amount. Cents
// lost to flooring are handed back one at a time to the entries with the
// largest remainders, earlier entries first on ties.
func scaleDiscounts(total, capCents int64, groups ...types.AppliedDiscounts) {
	type slot struct {
		entry     *types.AppliedDiscount
		remainder int64
	}
	var slots []slot
	var floorSum int64

	for _, discounts := range groups {
		for i := range discounts {
			entry := &discounts[i]
			if entry.AppliedTo == enums.TargetShipping {
				continue
			}
			scaled := entry.AmountCents * capCents
			entry.AmountCents = scaled / total
			floorSum += entry.AmountCents
			slots = append(slots, slot{entry: entry, remainder: scaled % total})
		}
	}

	leftover := capCents - floorSum
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].remainder > slots[j].remainder
	})
	for i := int64(0); i < leftover && int(i) < len(slots); i++ {
		slots[i].entry.AmountCents++
	}
}

func percentOf(amountCents int64, bps int) int64 {
	if amountCents == 0 || bps == 0 {
		return 0
	}
	return decimal.NewFromInt(amountCents).
		Mul(decimal.New(int64(bps), -4)).
		Round(0).
		IntPart()
}

func percentFloor(amountCents int64, bps int) int64 {
	if amountCents <= 0 || bps <= 0 {
		return 0
	}
	return amountCents * int64(bps) / bpsDenominator
}

func discountBps(discount, subtotal int64) int {
	if subtotal <= 0 || discount <= 0 {
		return 0
	}
	return int(discount * bpsDenominator / subtotal)
}
