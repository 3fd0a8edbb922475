package enums

import "fmt"

// ProductCategory classifies template listings in the catalog.
type ProductCategory string

const (
	CategoryLandingPage  ProductCategory = "landing_page"
	CategoryDashboard    ProductCategory = "dashboard"
	CategoryEmail        ProductCategory = "email"
	CategoryPresentation ProductCategory = "presentation"
	CategoryEcommerce    ProductCategory = "ecommerce"
	CategoryPortfolio    ProductCategory = "portfolio"
)

var validProductCategories = []ProductCategory{
	CategoryLandingPage,
	CategoryDashboard,
	CategoryEmail,
	CategoryPresentation,
	CategoryEcommerce,
	CategoryPortfolio,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
