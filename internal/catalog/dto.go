package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
)

// ProductDTO is the catalog payload returned to clients. The asset object
// key never leaves the server; buyers reach assets only through issued
// download links.
type ProductDTO struct {
	ID                  uuid.UUID `json:"id"`
	Slug                string    `json:"slug"`
	Title               string    `json:"title"`
	Subtitle            *string   `json:"subtitle,omitempty"`
	Description         *string   `json:"description,omitempty"`
	Category            string    `json:"category"`
	Tags                []string  `json:"tags"`
	PriceCents          int64     `json:"price_cents"`
	CompareAtPriceCents *int64    `json:"compare_at_price_cents,omitempty"`
	PreviewURL          *string   `json:"preview_url,omitempty"`
	IsActive            bool      `json:"is_active"`
	IsFeatured          bool      `json:"is_featured"`
	RatingCount         int       `json:"rating_count"`
	AverageRating       float64   `json:"average_rating"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ListResult is one page of catalog products.
type ListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// NewProductDTO builds the client payload from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:                  product.ID,
		Slug:                product.Slug,
		Title:               product.Title,
		Subtitle:            product.Subtitle,
		Description:         product.Description,
		Category:            string(product.Category),
		Tags:                append([]string{}, product.Tags...),
		PriceCents:          product.PriceCents,
		CompareAtPriceCents: product.CompareAtPriceCents,
		PreviewURL:          product.PreviewURL,
		IsActive:            product.IsActive,
		IsFeatured:          product.IsFeatured,
		RatingCount:         product.RatingCount,
		CreatedAt:           product.CreatedAt,
		UpdatedAt:           product.UpdatedAt,
	}
	if product.RatingCount > 0 {
		dto.AverageRating = float64(product.RatingSum) / float64(product.RatingCount)
	}
	return dto
}
