package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
)

// ListFilters narrows the public product listing.
type ListFilters struct {
	Category      *enums.ProductCategory
	Tag           *string
	PriceMinCents *int64
	PriceMaxCents *int64
	FeaturedOnly  bool
	Query         string
	IncludeHidden bool
}

// Repository owns product persistence.
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

// FindByID loads a product by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads a product by its public slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the given products in one query. Missing ids are simply
// absent from the result; callers decide whether that is an error.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves the full product row.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// AddRating folds a new review rating into the product aggregates.
func (r *Repository) AddRating(ctx context.Context, productID uuid.UUID, rating int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"rating_count": gorm.Expr("rating_count + 1"),
			"rating_sum":   gorm.Expr("rating_sum + ?", rating),
		}).Error
}

// List returns one cursor page of products matching the filters, newest
// first with id as the tiebreaker.
func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Product, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Model(&models.Product{})
	if !filters.IncludeHidden {
		qb = qb.Where("is_active = ?", true)
	}
	if filters.Category != nil {
		qb = qb.Where("category = ?", *filters.Category)
	}
	if filters.Tag != nil {
		qb = qb.Where("? = ANY(tags)", *filters.Tag)
	}
	if filters.PriceMinCents != nil {
		qb = qb.Where("price_cents >= ?", *filters.PriceMinCents)
	}
	if filters.PriceMaxCents != nil {
		qb = qb.Where("price_cents <= ?", *filters.PriceMaxCents)
	}
	if filters.FeaturedOnly {
		qb = qb.Where("is_featured = ?", true)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(title) LIKE ? OR LOWER(slug) LIKE ?)", pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	err = qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	page, next := pagination.TrimPage(rows, params.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return page, next, nil
}
