package types

import "time"

// RevenueQueryRequest carries the date window for the admin revenue summary.
type RevenueQueryRequest struct {
	Start time.Time
	End   time.Time
}

// TimeSeriesPoint is a single date/value pair in a daily series.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue is a top-N entry such as a coupon code or product id.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// RevenueSummary wraps the store KPIs for the admin dashboard.
type RevenueSummary struct {
	OrdersSeries      []TimeSeriesPoint `json:"orders"`
	GrossRevenue      []TimeSeriesPoint `json:"gross_revenue"`
	DiscountsSeries   []TimeSeriesPoint `json:"discounts"`
	AOV               float64           `json:"aov"`
	CouponRedemptions int64             `json:"coupon_redemptions"`
	TopCoupons        []LabelValue      `json:"top_coupons"`
}
