package downloads

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
)

// Repository owns download link persistence.
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

// CreateBatch inserts the links issued for one fulfilled order.
func (r *Repository) CreateBatch(ctx context.Context, links []models.DownloadLink) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&links).Error
}

// FindByID loads a download link by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DownloadLink, error) {
	var link models.DownloadLink
	if err := r.db.WithContext(ctx).First(&link, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// FindByOrderID returns every link issued for an order.
func (r *Repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.DownloadLink, error) {
	var links []models.DownloadLink
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&links).Error
	return links, err
}

// ListActiveByCustomer returns the customer's usable links, newest first.
func (r *Repository) ListActiveByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.DownloadLink, error) {
	var links []models.DownloadLink
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, enums.DownloadLinkStatusActive).
		Order("created_at DESC").
		Find(&links).Error
	return links, err
}

// Save persists status and counter changes on a link.
func (r *Repository) Save(ctx context.Context, link *models.DownloadLink) (*models.DownloadLink, error) {
	if err := r.db.WithContext(ctx).Save(link).Error; err != nil {
		return nil, err
	}
	return link, nil
}

// FindLineItem loads the order line snapshot a link points at. The
// snapshot, not the live product row, is the asset source: a template
// re-uploaded after purchase must not change what the buyer receives.
func (r *Repository) FindLineItem(ctx context.Context, id uuid.UUID) (*models.OrderLineItem, error) {
	var item models.OrderLineItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
