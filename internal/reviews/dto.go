package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
)

// ReviewDTO is the public review payload. Customer identity is reduced
// to an opaque id; the storefront renders it as "verified buyer".
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Rating     int       `json:"rating"`
	Title      *string   `json:"title,omitempty"`
	Body       *string   `json:"body,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListResult is one page of a product's reviews.
type ListResult struct {
	Reviews    []ReviewDTO `json:"reviews"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// NewReviewDTO builds the client payload from the persisted review.
func NewReviewDTO(review *models.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:         review.ID,
		ProductID:  review.ProductID,
		CustomerID: review.CustomerID,
		Rating:     review.Rating,
		Title:      review.Title,
		Body:       review.Body,
		CreatedAt:  review.CreatedAt,
	}
}
