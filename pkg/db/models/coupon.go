package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/enums"
)

// Coupon is a code-based discount with stacking and eligibility rules.
// Percentage values live in basis points so the money path stays integral.
type Coupon struct {
	ID                   uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                 string           `gorm:"column:code;not null;uniqueIndex"`
	Name                 string           `gorm:"column:name;not null"`
	Description          *string          `gorm:"column:description"`
	Type                 enums.CouponType `gorm:"column:type;type:coupon_type;not null"`
	PercentBps           *int             `gorm:"column:percent_bps"`
	AmountCents          *int64           `gorm:"column:amount_cents"`
	PriorityOrder        int              `gorm:"column:priority_order;not null;default:100"`
	CanStackWithBundles  bool             `gorm:"column:can_stack_with_bundles;not null;default:false"`
	RequiresBundleInCart bool             `gorm:"column:requires_bundle_in_cart;not null;default:false"`
	MinimumCartCents     *int64           `gorm:"column:minimum_cart_cents"`
	MaximumDiscountCents *int64           `gorm:"column:maximum_discount_cents"`
	IsActive             bool             `gorm:"column:is_active;not null;default:true"`
	StartsAt             *time.Time       `gorm:"column:starts_at"`
	ExpiresAt            *time.Time       `gorm:"column:expires_at"`
	RedemptionCount      int              `gorm:"column:redemption_count;not null;default:0"`
	CreatedAt            time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
