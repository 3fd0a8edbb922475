package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db"
	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Service exposes catalog management and public read operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	ListProducts(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error)
}

// CreateProductInput holds the validated payload to create a listing.
type CreateProductInput struct {
	Slug                string
	Title               string
	Subtitle            *string
	Description         *string
	Category            enums.ProductCategory
	Tags                []string
	PriceCents          int64
	CompareAtPriceCents *int64
	PreviewURL          *string
	AssetObjectKey      string
	IsActive            bool
	IsFeatured          bool
}

// UpdateProductInput holds optional mutation values for a listing.
type UpdateProductInput struct {
	Slug                *string
	Title               *string
	Subtitle            *string
	Description         *string
	Category            *enums.ProductCategory
	Tags                *[]string
	PriceCents          *int64
	CompareAtPriceCents *int64
	PreviewURL          *string
	AssetObjectKey      *string
	IsActive            *bool
	IsFeatured          *bool
}

type productRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Product, string, error)
}

type service struct {
	repo productRepo
}

// NewService constructs a catalog service instance.
func NewService(repo productRepo) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// CreateProduct validates and persists a new listing.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateListing(input.Slug, input.Title, input.Category, input.PriceCents, input.AssetObjectKey); err != nil {
		return nil, err
	}
	if input.CompareAtPriceCents != nil && *input.CompareAtPriceCents < input.PriceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "compare-at price must not be below the price")
	}

	product := &models.Product{
		Slug:                input.Slug,
		Title:               strings.TrimSpace(input.Title),
		Subtitle:            input.Subtitle,
		Description:         input.Description,
		Category:            input.Category,
		Tags:                normalizeTags(input.Tags),
		PriceCents:          input.PriceCents,
		CompareAtPriceCents: input.CompareAtPriceCents,
		PreviewURL:          input.PreviewURL,
		AssetObjectKey:      input.AssetObjectKey,
		IsActive:            input.IsActive,
		IsFeatured:          input.IsFeatured,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_products_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return NewProductDTO(created), nil
}

// UpdateProduct applies the provided fields to an existing listing.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if input.Slug != nil {
		if !slugPattern.MatchString(*input.Slug) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase kebab-case")
		}
		product.Slug = *input.Slug
	}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Subtitle != nil {
		product.Subtitle = input.Subtitle
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
		}
		product.Category = *input.Category
	}
	if input.Tags != nil {
		product.Tags = normalizeTags(*input.Tags)
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.CompareAtPriceCents != nil {
		product.CompareAtPriceCents = input.CompareAtPriceCents
	}
	if input.PreviewURL != nil {
		product.PreviewURL = input.PreviewURL
	}
	if input.AssetObjectKey != nil {
		if strings.TrimSpace(*input.AssetObjectKey) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset object key cannot be empty")
		}
		product.AssetObjectKey = *input.AssetObjectKey
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if product.CompareAtPriceCents != nil && *product.CompareAtPriceCents < product.PriceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "compare-at price must not be below the price")
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_products_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return NewProductDTO(updated), nil
}

// DeleteProduct removes a listing from the catalog.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.loadProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// GetProduct returns a listing by id.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// GetProductBySlug returns an active listing by slug for the storefront.
func (s *service) GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return NewProductDTO(product), nil
}

// ListProducts returns one page of the public catalog.
func (s *service) ListProducts(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error) {
	if filters.Category != nil && !filters.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
	}
	if filters.PriceMinCents != nil && filters.PriceMaxCents != nil && *filters.PriceMinCents > *filters.PriceMaxCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price range is inverted")
	}

	rows, next, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	products := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		products = append(products, *NewProductDTO(&rows[i]))
	}
	return &ListResult{Products: products, NextCursor: next}, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func validateListing(slug, title string, category enums.ProductCategory, priceCents int64, assetKey string) error {
	if !slugPattern.MatchString(slug) {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase kebab-case")
	}
	if strings.TrimSpace(title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
	}
	if priceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if strings.TrimSpace(assetKey) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset object key is required")
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}
