package coupons

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
)

// Repository owns coupon persistence.
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

// FindByID loads a coupon by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindActiveByCode returns the coupon for the code when it is active and
// inside its validity window at the given instant.
func (r *Repository) FindActiveByCode(ctx context.Context, code string, at time.Time) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		Where("is_active = ?", true).
		Where("starts_at IS NULL OR starts_at <= ?", at).
		Where("expires_at IS NULL OR expires_at > ?", at).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindByCode loads a coupon by code regardless of status. Payment-time
// redemption still counts a coupon that expired between checkout and the
// webhook.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ListAll returns every coupon ordered by priority for the admin surface.
func (r *Repository) ListAll(ctx context.Context) ([]models.Coupon, error) {
	var rows []models.Coupon
	err := r.db.WithContext(ctx).
		Order("priority_order ASC").Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Create inserts a new coupon row.
func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update saves the full coupon row.
func (r *Repository) Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Save(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

// Delete removes a coupon by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Coupon{}).Error
}

// IncrementRedemption bumps the redemption counter when an order using the
// coupon is paid. Runs inside the payment transaction.
func (r *Repository) IncrementRedemption(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", id).
		UpdateColumn("redemption_count", gorm.Expr("redemption_count + 1")).Error
}

// RedeemByCode resolves the coupon and bumps its redemption counter inside
// the caller's transaction.
func RedeemByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Coupon, error) {
	repo := NewRepository(tx)
	coupon, err := repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := repo.IncrementRedemption(ctx, coupon.ID); err != nil {
		return nil, err
	}
	coupon.RedemptionCount++
	return coupon, nil
}
