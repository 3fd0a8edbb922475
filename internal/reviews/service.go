package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/mgiraldodev/templaria-backend/pkg/db"
	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/payloads"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
)

const (
	maxTitleLength = 200
	maxBodyLength  = 5000
)

// Service accepts verified-purchase reviews and serves the public
// per-product listing.
type Service interface {
	CreateReview(ctx context.Context, customerID uuid.UUID, input ReviewInput) (*ReviewDTO, error)
	ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ListResult, error)
}

// ReviewInput carries the buyer-submitted review fields.
type ReviewInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Title     *string   `json:"title,omitempty"`
	Body      *string   `json:"body,omitempty"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// RatingRecorder folds an accepted rating into the product aggregates
// inside the review transaction. Wired to the catalog repository in
// production.
type RatingRecorder func(ctx context.Context, tx *gorm.DB, productID uuid.UUID, rating int) error

type service struct {
	repo      ReviewRepository
	tx        txRunner
	events    eventEmitter
	addRating RatingRecorder
	logg      *logger.Logger
}

// NewService wires the reviews service.
func NewService(repo ReviewRepository, tx txRunner, events eventEmitter, addRating RatingRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("reviews: repository is required")
	}
	if tx == nil {
		return nil, errors.New("reviews: transaction runner is required")
	}
	if events == nil {
		return nil, errors.New("reviews: event emitter is required")
	}
	if addRating == nil {
		return nil, errors.New("reviews: rating recorder is required")
	}
	return &service{repo: repo, tx: tx, events: events, addRating: addRating, logg: logg}, nil
}

func (s *service) CreateReview(ctx context.Context, customerID uuid.UUID, input ReviewInput) (*ReviewDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	title := trimOptional(input.Title, maxTitleLength)
	body := trimOptional(input.Body, maxBodyLength)

	order, err := s.repo.PaidOrderWithProduct(ctx, customerID, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only verified buyers can review this template")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to verify purchase")
	}

	var review *models.Review
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		review = &models.Review{
			ProductID:   input.ProductID,
			CustomerID:  customerID,
			OrderID:     order.ID,
			Rating:      input.Rating,
			Title:       title,
			Body:        body,
			IsPublished: true,
		}
		if _, err := repo.Create(ctx, review); err != nil {
			if dbpkg.IsUniqueViolation(err, "idx_reviews_product_customer") {
				return pkgerrors.New(pkgerrors.CodeConflict, "you already reviewed this template")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create review")
		}

		if err := s.addRating(ctx, tx, input.ProductID, input.Rating); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update product rating")
		}

		err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewCreated,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Data: payloads.ReviewCreatedEvent{
				ReviewID:   review.ID,
				ProductID:  review.ProductID,
				CustomerID: review.CustomerID,
				Rating:     review.Rating,
				CreatedAt:  time.Now().UTC(),
			},
			Version: 1,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to queue review.created event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return NewReviewDTO(review), nil
}

func (s *service) ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	rows, next, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewReviewDTO(&rows[i]))
	}
	return &ListResult{Reviews: out, NextCursor: next}, nil
}

func trimOptional(value *string, limit int) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) > limit {
		trimmed = trimmed[:limit]
	}
	return &trimmed
}
