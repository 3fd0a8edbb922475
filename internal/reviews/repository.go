package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
)

// ReviewRepository defines the persistence surface the reviews service
// depends on.
type ReviewRepository interface {
	WithTx(tx *gorm.DB) ReviewRepository
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, string, error)
	PaidOrderWithProduct(ctx context.Context, customerID, productID uuid.UUID) (*models.Order, error)
}

// Repository owns review persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) ReviewRepository {
	return &Repository{db: tx}
}

// Create inserts a review row. The composite unique index rejects a
// second review from the same customer for the same product.
func (r *Repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// FindByID loads a review by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByProduct returns one cursor page of published reviews, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Where("product_id = ? AND is_published = ?", productID, true)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Review
	err = qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	page, next := pagination.TrimPage(rows, params.Limit, func(review models.Review) pagination.Cursor {
		return pagination.Cursor{CreatedAt: review.CreatedAt, ID: review.ID}
	})
	return page, next, nil
}

// PaidOrderWithProduct returns the customer's paid or fulfilled order
// containing the product. This is the verified-purchase gate.
func (r *Repository) PaidOrderWithProduct(ctx context.Context, customerID, productID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Joins("JOIN order_line_items ON order_line_items.order_id = orders.id").
		Where("orders.customer_id = ?", customerID).
		Where("order_line_items.product_id = ?", productID).
		Where("orders.status IN ?", []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusFulfilled}).
		Order("orders.created_at ASC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
