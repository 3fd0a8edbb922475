package enums

// DiscountKind labels an applied discount entry in a priced cart.
type DiscountKind string

const (
	DiscountKindBundle    DiscountKind = "bundle"
	DiscountKindCoupon    DiscountKind = "coupon"
	DiscountKindAutomatic DiscountKind = "automatic"
)

// DiscountProvenance records which trust source produced a bundle discount:
// the server-declared bundle catalog or metadata embedded on cart items at
// add-to-cart time. The two detection paths must never be mixed in one
// calculation.
type DiscountProvenance string

const (
	ProvenanceCatalog  DiscountProvenance = "catalog"
	ProvenanceEmbedded DiscountProvenance = "embedded"
)

// DiscountTarget says what a discount amount was applied against.
type DiscountTarget string

const (
	TargetItems    DiscountTarget = "items"
	TargetSubtotal DiscountTarget = "subtotal"
	TargetShipping DiscountTarget = "shipping"
)
