package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/internal/pricing"
	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
)

// quoteCacheTTL bounds how long a priced snapshot may serve reads before
// a fresh calculation runs.
const quoteCacheTTL = 5 * time.Minute

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type bundleSource interface {
	ActiveBundles(ctx context.Context) ([]models.Bundle, error)
}

type couponResolver interface {
	ResolveForCart(ctx context.Context, code string, at time.Time) (*models.Coupon, error)
}

type quoteCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	QuoteCacheKey(cartID string) string
}

// Service exposes cart persistence and quoting operations.
type Service interface {
	UpsertCart(ctx context.Context, customerID uuid.UUID, input UpsertCartInput) (*CartDTO, error)
	GetActiveCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
	QuoteActiveCart(ctx context.Context, customerID uuid.UUID) (*QuoteDTO, error)
	ClearCart(ctx context.Context, customerID uuid.UUID) error
}

// UpsertCartInput is the client's cart intent: the products wanted (one
// unit per line) and an optional coupon code.
type UpsertCartInput struct {
	ProductIDs []uuid.UUID
	CouponCode *string
	TaxRateBps int
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	bundles  bundleSource
	coupons  couponResolver
	cache    quoteCache
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack. The
// cache is optional; quoting degrades to recomputation without it.
func NewService(repo CartRepository, tx txRunner, products productLoader, bundles bundleSource, coupons couponResolver, cache quoteCache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if bundles == nil {
		return nil, fmt.Errorf("bundle source required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon resolver required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		bundles:  bundles,
		coupons:  coupons,
		cache:    cache,
		logg:     logg,
	}, nil
}

// UpsertCart reprices the requested product set server-side and persists
// the snapshot as the customer's single active cart.
func (s *service) UpsertCart(ctx context.Context, customerID uuid.UUID, input UpsertCartInput) (*CartDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if len(input.ProductIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one item")
	}

	priced, err := s.price(ctx, input)
	if err != nil {
		return nil, err
	}

	var saved *models.CartRecord
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		record, err := txRepo.FindActiveByCustomer(ctx, customerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if record == nil {
			record = &models.CartRecord{CustomerID: customerID}
			if record, err = txRepo.Create(ctx, record); err != nil {
				return err
			}
		}

		record.CouponCode = priced.couponCode
		record.SubtotalCents = priced.result.SubtotalCents
		record.DiscountCents = priced.result.TotalDiscountCents
		record.TaxCents = priced.result.TaxCents
		record.TotalCents = priced.result.TotalCents
		record.AppliedDiscounts = priced.result.Applied
		if _, err := txRepo.Update(ctx, record); err != nil {
			return err
		}

		items := make([]models.CartItem, 0, len(priced.lines))
		for _, line := range priced.lines {
			items = append(items, models.CartItem{
				CartID:         record.ID,
				ProductID:      line.ProductID,
				Title:          line.Title,
				UnitPriceCents: line.UnitPriceCents,
				Bundle:         line.Bundle,
			})
		}
		if err := txRepo.ReplaceItems(ctx, record.ID, items); err != nil {
			return err
		}

		saved, err = txRepo.FindByIDAndCustomer(ctx, record.ID, customerID)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}

	s.cacheQuote(ctx, saved.ID, priced.result)
	return NewCartDTO(saved), nil
}

// GetActiveCart returns the customer's active cart, or not-found.
func (s *service) GetActiveCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	record, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return NewCartDTO(record), nil
}

// QuoteActiveCart reprices the active cart from the current catalog,
// serving from the redis cache when a fresh snapshot exists.
func (s *service) QuoteActiveCart(ctx context.Context, customerID uuid.UUID) (*QuoteDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	record, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if cached := s.cachedQuote(ctx, record.ID); cached != nil {
		return &QuoteDTO{CartID: record.ID, Result: *cached, Cached: true}, nil
	}

	productIDs := make([]uuid.UUID, 0, len(record.Items))
	for _, item := range record.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	priced, err := s.price(ctx, UpsertCartInput{
		ProductIDs: productIDs,
		CouponCode: record.CouponCode,
	})
	if err != nil {
		return nil, err
	}

	s.cacheQuote(ctx, record.ID, priced.result)
	return &QuoteDTO{CartID: record.ID, Result: priced.result}, nil
}

// ClearCart abandons the customer's active cart.
func (s *service) ClearCart(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	record, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.MarkAbandoned(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	s.dropQuote(ctx, record.ID)
	return nil
}

type pricedCart struct {
	lines      []pricing.Line
	result     pricing.Result
	couponCode *string
}

// price loads reference data and runs the calculator against the catalog
// trust source. Duplicate product ids collapse to one line each.
func (s *service) price(ctx context.Context, input UpsertCartInput) (*pricedCart, error) {
	unique := make([]uuid.UUID, 0, len(input.ProductIDs))
	seen := make(map[uuid.UUID]struct{}, len(input.ProductIDs))
	for _, id := range input.ProductIDs {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	products, err := s.products.FindByIDs(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	lines := make([]pricing.Line, 0, len(unique))
	for _, id := range unique {
		product, ok := byID[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is no longer available", product.Slug))
		}
		lines = append(lines, pricing.Line{
			ProductID:      product.ID,
			Title:          product.Title,
			UnitPriceCents: product.PriceCents,
		})
	}

	bundles, err := s.bundles.ActiveBundles(ctx)
	if err != nil {
		return nil, err
	}

	var coupons []models.Coupon
	var couponCode *string
	if input.CouponCode != nil {
		coupon, err := s.coupons.ResolveForCart(ctx, *input.CouponCode, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *coupon)
		couponCode = &coupon.Code
	}

	result := pricing.Calculate(lines, bundles, coupons, pricing.Options{TaxRateBps: input.TaxRateBps})
	return &pricedCart{lines: lines, result: result, couponCode: couponCode}, nil
}

func (s *service) cacheQuote(ctx context.Context, cartID uuid.UUID, result pricing.Result) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	key := s.cache.QuoteCacheKey(cartID.String())
	if err := s.cache.Set(ctx, key, payload, quoteCacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("quote cache write failed: %v", err))
	}
}

func (s *service) cachedQuote(ctx context.Context, cartID uuid.UUID) *pricing.Result {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cache.QuoteCacheKey(cartID.String()))
	if err != nil || raw == "" {
		return nil
	}
	var result pricing.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil
	}
	return &result
}

func (s *service) dropQuote(ctx context.Context, cartID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.QuoteCacheKey(cartID.String())); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("quote cache delete failed: %v", err))
	}
}
