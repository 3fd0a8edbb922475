package reviews

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
)

type stubReviewRepo struct {
	paidOrder *models.Order
	created   *models.Review
	createErr error
	listed    []models.Review
}

func (s *stubReviewRepo) WithTx(*gorm.DB) ReviewRepository { return s }

func (s *stubReviewRepo) Create(_ context.Context, review *models.Review) (*models.Review, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	review.ID = uuid.New()
	s.created = review
	return review, nil
}

func (s *stubReviewRepo) FindByID(context.Context, uuid.UUID) (*models.Review, error) {
	return s.created, nil
}

func (s *stubReviewRepo) ListByProduct(context.Context, uuid.UUID, pagination.Params) ([]models.Review, string, error) {
	return s.listed, "", nil
}

func (s *stubReviewRepo) PaidOrderWithProduct(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	if s.paidOrder == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.paidOrder, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type ratingCall struct {
	productID uuid.UUID
	rating    int
}

func newReviewsService(t *testing.T, repo ReviewRepository, emitter *stubEmitter, ratings *[]ratingCall) Service {
	t.Helper()
	recorder := func(_ context.Context, _ *gorm.DB, productID uuid.UUID, rating int) error {
		if ratings != nil {
			*ratings = append(*ratings, ratingCall{productID: productID, rating: rating})
		}
		return nil
	}
	svc, err := NewService(repo, stubTxRunner{}, emitter, recorder, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateReviewVerifiedBuyer(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPaid}
	repo := &stubReviewRepo{paidOrder: order}
	emitter := &stubEmitter{}
	var ratings []ratingCall
	svc := newReviewsService(t, repo, emitter, &ratings)

	productID := uuid.New()
	title := "  Great starting point  "
	dto, err := svc.CreateReview(context.Background(), uuid.New(), ReviewInput{
		ProductID: productID,
		Rating:    4,
		Title:     &title,
	})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	if dto.Rating != 4 {
		t.Fatalf("rating = %d, want 4", dto.Rating)
	}
	if dto.Title == nil || *dto.Title != "Great starting point" {
		t.Fatalf("title = %v, want trimmed", dto.Title)
	}
	if repo.created.OrderID != order.ID {
		t.Fatal("review not tied to the qualifying order")
	}
	if len(ratings) != 1 || ratings[0].productID != productID || ratings[0].rating != 4 {
		t.Fatalf("rating aggregate calls = %v", ratings)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventReviewCreated {
		t.Fatalf("expected review.created event, got %v", emitter.events)
	}
}

func TestCreateReviewRequiresPurchase(t *testing.T) {
	svc := newReviewsService(t, &stubReviewRepo{}, &stubEmitter{}, nil)

	_, err := svc.CreateReview(context.Background(), uuid.New(), ReviewInput{
		ProductID: uuid.New(),
		Rating:    5,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden code, got %v", err)
	}
}

func TestCreateReviewDuplicateConflict(t *testing.T) {
	repo := &stubReviewRepo{
		paidOrder: &models.Order{ID: uuid.New(), Status: enums.OrderStatusFulfilled},
		createErr: errors.New(`duplicate key value violates unique constraint "idx_reviews_product_customer"`),
	}
	svc := newReviewsService(t, repo, &stubEmitter{}, nil)

	_, err := svc.CreateReview(context.Background(), uuid.New(), ReviewInput{
		ProductID: uuid.New(),
		Rating:    5,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
}

func TestCreateReviewRatingBounds(t *testing.T) {
	svc := newReviewsService(t, &stubReviewRepo{}, &stubEmitter{}, nil)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CreateReview(context.Background(), uuid.New(), ReviewInput{
			ProductID: uuid.New(),
			Rating:    rating,
		})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("rating %d: expected validation code, got %v", rating, err)
		}
	}
}

func TestListReviewsRequiresProduct(t *testing.T) {
	svc := newReviewsService(t, &stubReviewRepo{}, &stubEmitter{}, nil)

	_, err := svc.ListReviews(context.Background(), uuid.Nil, pagination.Params{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}
