package bundles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
)

// Service exposes bundle management and lookup operations.
type Service interface {
	CreateBundle(ctx context.Context, input BundleInput) (*BundleDTO, error)
	UpdateBundle(ctx context.Context, bundleID uuid.UUID, input BundleInput) (*BundleDTO, error)
	DeleteBundle(ctx context.Context, bundleID uuid.UUID) error
	GetBundle(ctx context.Context, bundleID uuid.UUID) (*BundleDTO, error)
	ListBundles(ctx context.Context, includeInactive bool) ([]BundleDTO, error)
	ActiveBundles(ctx context.Context) ([]models.Bundle, error)
}

// BundleInput is the admin payload to create or replace a bundle.
type BundleInput struct {
	Name             string
	Description      *string
	BundlePriceCents int64
	IsActive         bool
	ProductIDs       []uuid.UUID
}

type bundleRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
	ListActive(ctx context.Context) ([]models.Bundle, error)
	ListAll(ctx context.Context) ([]models.Bundle, error)
	Create(ctx context.Context, bundle *models.Bundle) (*models.Bundle, error)
	Update(ctx context.Context, bundle *models.Bundle, members []models.BundleProduct) (*models.Bundle, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type service struct {
	repo     bundleRepo
	products productLoader
}

// NewService constructs a bundle service instance.
func NewService(repo bundleRepo, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bundle repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// CreateBundle validates the member set, derives the savings math from the
// current member prices, and persists the bundle.
func (s *service) CreateBundle(ctx context.Context, input BundleInput) (*BundleDTO, error) {
	priced, err := s.priceBundle(ctx, input)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, priced)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bundle")
	}
	return NewBundleDTO(created), nil
}

// UpdateBundle replaces the bundle definition, re-deriving the savings
// math from the submitted member set.
func (s *service) UpdateBundle(ctx context.Context, bundleID uuid.UUID, input BundleInput) (*BundleDTO, error) {
	if bundleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bundle id is required")
	}
	existing, err := s.loadBundle(ctx, bundleID)
	if err != nil {
		return nil, err
	}

	priced, err := s.priceBundle(ctx, input)
	if err != nil {
		return nil, err
	}

	existing.Name = priced.Name
	existing.Description = priced.Description
	existing.OriginalTotalCents = priced.OriginalTotalCents
	existing.BundlePriceCents = priced.BundlePriceCents
	existing.SavingsCents = priced.SavingsCents
	existing.DiscountPercentBps = priced.DiscountPercentBps
	existing.IsActive = priced.IsActive

	members := make([]models.BundleProduct, 0, len(input.ProductIDs))
	for _, productID := range input.ProductIDs {
		members = append(members, models.BundleProduct{BundleID: bundleID, ProductID: productID})
	}

	updated, err := s.repo.Update(ctx, existing, members)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bundle")
	}
	return NewBundleDTO(updated), nil
}

// DeleteBundle removes the bundle definition.
func (s *service) DeleteBundle(ctx context.Context, bundleID uuid.UUID) error {
	if bundleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "bundle id is required")
	}
	if _, err := s.loadBundle(ctx, bundleID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, bundleID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete bundle")
	}
	return nil
}

// GetBundle returns one bundle with members.
func (s *service) GetBundle(ctx context.Context, bundleID uuid.UUID) (*BundleDTO, error) {
	if bundleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bundle id is required")
	}
	bundle, err := s.loadBundle(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	return NewBundleDTO(bundle), nil
}

// ListBundles returns the admin or public bundle listing.
func (s *service) ListBundles(ctx context.Context, includeInactive bool) ([]BundleDTO, error) {
	var (
		rows []models.Bundle
		err  error
	)
	if includeInactive {
		rows, err = s.repo.ListAll(ctx)
	} else {
		rows, err = s.repo.ListActive(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bundles")
	}

	out := make([]BundleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewBundleDTO(&rows[i]))
	}
	return out, nil
}

// ActiveBundles returns the raw active definitions for pricing runs.
func (s *service) ActiveBundles(ctx context.Context) ([]models.Bundle, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundles")
	}
	return rows, nil
}

// priceBundle validates the input and derives original total, savings, and
// discount percentage from the live member prices.
func (s *service) priceBundle(ctx context.Context, input BundleInput) (*models.Bundle, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bundle name is required")
	}
	if len(input.ProductIDs) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bundle needs at least two member products")
	}
	if input.BundlePriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bundle price cannot be negative")
	}

	unique := make(map[uuid.UUID]struct{}, len(input.ProductIDs))
	for _, id := range input.ProductIDs {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "member product id is required")
		}
		if _, ok := unique[id]; ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate member product")
		}
		unique[id] = struct{}{}
	}

	products, err := s.products.FindByIDs(ctx, input.ProductIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member products")
	}
	if len(products) != len(input.ProductIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "one or more member products do not exist")
	}

	var originalTotal int64
	for _, product := range products {
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("member product %s is not active", product.Slug))
		}
		originalTotal += product.PriceCents
	}
	if input.BundlePriceCents > originalTotal {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bundle price exceeds the combined member price")
	}

	savings := originalTotal - input.BundlePriceCents
	discountBps := 0
	if originalTotal > 0 {
		discountBps = int(savings * 10000 / originalTotal)
	}

	members := make([]models.BundleProduct, 0, len(input.ProductIDs))
	for _, productID := range input.ProductIDs {
		members = append(members, models.BundleProduct{ProductID: productID})
	}

	return &models.Bundle{
		Name:               strings.TrimSpace(input.Name),
		Description:        input.Description,
		OriginalTotalCents: originalTotal,
		BundlePriceCents:   input.BundlePriceCents,
		SavingsCents:       savings,
		DiscountPercentBps: discountBps,
		IsActive:           input.IsActive,
		Members:            members,
	}, nil
}

func (s *service) loadBundle(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	bundle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundle")
	}
	return bundle, nil
}
