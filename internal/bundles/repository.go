package bundles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
)

// Repository owns bundle persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a bundle with its member products.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	err := r.db.WithContext(ctx).
		Preload("Members").
		First(&bundle, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

// ListActive returns every active bundle with members, for pricing runs
// and the public bundles listing.
func (r *Repository) ListActive(ctx context.Context) ([]models.Bundle, error) {
	var rows []models.Bundle
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListAll returns every bundle for the admin surface.
func (r *Repository) ListAll(ctx context.Context) ([]models.Bundle, error) {
	var rows []models.Bundle
	err := r.db.WithContext(ctx).
		Preload("Members").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Create inserts the bundle and its member rows in one statement tree.
func (r *Repository) Create(ctx context.Context, bundle *models.Bundle) (*models.Bundle, error) {
	if err := r.db.WithContext(ctx).Create(bundle).Error; err != nil {
		return nil, err
	}
	return bundle, nil
}

// Update saves bundle fields and replaces its member set.
func (r *Repository) Update(ctx context.Context, bundle *models.Bundle, members []models.BundleProduct) (*models.Bundle, error) {
	tx := r.db.WithContext(ctx)
	if err := tx.Omit("Members").Save(bundle).Error; err != nil {
		return nil, err
	}
	if members != nil {
		if err := tx.Where("bundle_id = ?", bundle.ID).Delete(&models.BundleProduct{}).Error; err != nil {
			return nil, err
		}
		if len(members) > 0 {
			if err := tx.Create(&members).Error; err != nil {
				return nil, err
			}
		}
		bundle.Members = members
	}
	return bundle, nil
}

// Delete removes the bundle; member rows cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Bundle{}).Error
}
