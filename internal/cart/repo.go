package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
)

// Repository owns cart record and item persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	return &Repository{db: tx}
}

// FindActiveByCustomer loads the customer's single active cart with items.
func (r *Repository) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ? AND status = ?", customerID, enums.CartStatusActive).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByIDAndCustomer loads a cart scoped to its owner.
func (r *Repository) FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a cart record without items.
func (r *Repository) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Update saves the cart record fields without touching items.
func (r *Repository) Update(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// ReplaceItems swaps the cart's item set atomically within the caller's
// transaction.
func (r *Repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

// MarkConverted flips the cart out of active status once checkout created
// its order.
func (r *Repository) MarkConverted(ctx context.Context, cartID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Updates(map[string]any{
			"status":       enums.CartStatusConverted,
			"converted_at": at,
		}).Error
}

// MarkAbandoned clears the active cart without converting it.
func (r *Repository) MarkAbandoned(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Update("status", enums.CartStatusAbandoned).Error
}
