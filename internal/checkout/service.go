package checkout

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/internal/cart"
	"github.com/mgiraldodev/templaria-backend/internal/orders"
	"github.com/mgiraldodev/templaria-backend/internal/pricing"
	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/payloads"
	"github.com/mgiraldodev/templaria-backend/pkg/square"
)

// Service converts the active cart into a pending order backed by a hosted
// payment link. Checkout is idempotent per cart: retries return the link
// the cart already produced.
type Service interface {
	BeginCheckout(ctx context.Context, customerID uuid.UUID, input BeginCheckoutInput) (*CheckoutDTO, error)
}

// BeginCheckoutInput carries the buyer-supplied checkout fields.
type BeginCheckoutInput struct {
	Email string `json:"email" validate:"required,email"`
}

// Config holds the storefront-level checkout settings.
type Config struct {
	StoreName   string
	Currency    string
	RedirectURL string
	TaxRateBps  int
}

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

type paymentLinker interface {
	LocationID() string
	NewIdempotencyKey(prefix string) string
	CreatePaymentLink(ctx context.Context, params square.PaymentLinkCreateParams) (*sq.PaymentLink, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	carts    cart.CartRepository
	orders   orders.Repository
	products productLoader
	bundles  bundleSource
	coupons  couponResolver
	payments paymentLinker
	events   eventEmitter
	tx       txRunner
	cfg      Config
	logg     *logger.Logger
}

// NewService wires the checkout service.
func NewService(carts cart.CartRepository, ordersRepo orders.Repository, products productLoader, bundles bundleSource, coupons couponResolver, payments paymentLinker, events eventEmitter, tx txRunner, cfg Config, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, errors.New("checkout: cart repository is required")
	}
	if ordersRepo == nil {
		return nil, errors.New("checkout: orders repository is required")
	}
	if products == nil {
		return nil, errors.New("checkout: product loader is required")
	}
	if bundles == nil {
		return nil, errors.New("checkout: bundle source is required")
	}
	if coupons == nil {
		return nil, errors.New("checkout: coupon resolver is required")
	}
	if payments == nil {
		return nil, errors.New("checkout: payment client is required")
	}
	if events == nil {
		return nil, errors.New("checkout: event emitter is required")
	}
	if tx == nil {
		return nil, errors.New("checkout: transaction runner is required")
	}
	if cfg.StoreName == "" {
		cfg.StoreName = "Templaria"
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &service{
		carts:    carts,
		orders:   ordersRepo,
		products: products,
		bundles:  bundles,
		coupons:  coupons,
		payments: payments,
		events:   events,
		tx:       tx,
		cfg:      cfg,
		logg:     logg,
	}, nil
}

func (s *service) BeginCheckout(ctx context.Context, customerID uuid.UUID, input BeginCheckoutInput) (*CheckoutDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}

	record, err := s.carts.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "no active cart to check out")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	// Retried checkouts reuse the cart's pending order instead of charging
	// the buyer twice.
	if existing, err := s.orders.FindPendingByCartID(ctx, record.ID); err == nil {
		return s.ensurePaymentLink(ctx, existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check for pending order")
	}

	products, lines, err := s.buildLines(ctx, record)
	if err != nil {
		return nil, err
	}

	bundles, err := s.bundles.ActiveBundles(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load bundles")
	}

	var coupons []models.Coupon
	if record.CouponCode != nil && *record.CouponCode != "" {
		coupon, err := s.coupons.ResolveForCart(ctx, *record.CouponCode, time.Now().UTC())
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is no longer valid, update your cart")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to resolve coupon")
		}
		coupons = append(coupons, *coupon)
	}

	result := pricing.Calculate(lines, bundles, coupons, pricing.Options{TaxRateBps: s.cfg.TaxRateBps})
	if result.TotalCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total must be positive")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		cartsRepo := s.carts.WithTx(tx)

		number, err := ordersRepo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to allocate order number")
		}

		cartID := record.ID
		order = &models.Order{
			OrderNumber:      number,
			CustomerID:       customerID,
			CustomerEmail:    email,
			CartID:           &cartID,
			Status:           enums.OrderStatusPending,
			Currency:         s.cfg.Currency,
			SubtotalCents:    result.SubtotalCents,
			DiscountCents:    result.TotalDiscountCents,
			TaxCents:         result.TaxCents,
			ShippingCents:    result.ShippingCents,
			TotalCents:       result.TotalCents,
			AppliedDiscounts: result.Applied,
		}
		if len(result.CouponDiscounts) > 0 {
			order.CouponCode = record.CouponCode
		}
		if _, err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create order")
		}

		items := buildLineItems(order.ID, lines, products, result)
		if err := ordersRepo.CreateLineItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create order items")
		}
		order.Items = items

		if err := cartsRepo.MarkConverted(ctx, record.ID, time.Now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to convert cart")
		}

		err = s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				CustomerID:    customerID,
				CustomerEmail: email,
				Currency:      order.Currency,
				SubtotalCents: order.SubtotalCents,
				DiscountCents: order.DiscountCents,
				TaxCents:      order.TaxCents,
				TotalCents:    order.TotalCents,
				CouponCode:    stringValue(order.CouponCode),
				ItemCount:     len(items),
				CreatedAt:     time.Now().UTC(),
			},
			Version: 1,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to queue order.created event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.ensurePaymentLink(ctx, order)
}

// ensurePaymentLink creates the hosted link for a pending order that does
// not have one yet. The order commits before the provider call, so a
// provider outage leaves a resumable pending order rather than a charge
// without a record.
func (s *service) ensurePaymentLink(ctx context.Context, order *models.Order) (*CheckoutDTO, error) {
	if order.PaymentLinkURL != nil && *order.PaymentLinkURL != "" {
		return NewCheckoutDTO(order), nil
	}

	link, err := s.payments.CreatePaymentLink(ctx, square.PaymentLinkCreateParams{
		LocationID:     s.payments.LocationID(),
		Name:           s.cfg.StoreName,
		AmountCents:    order.TotalCents,
		Currency:       order.Currency,
		ReferenceID:    order.ID.String(),
		RedirectURL:    s.cfg.RedirectURL,
		IdempotencyKey: s.payments.NewIdempotencyKey("checkout-" + order.ID.String()),
	})
	if err != nil {
		return nil, err
	}

	order.PaymentLinkID = link.GetID()
	order.PaymentLinkURL = link.GetURL()
	order.ProviderOrderID = link.GetOrderID()
	if _, err := s.orders.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store payment link")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, "checkout payment link created")
	}
	return NewCheckoutDTO(order), nil
}

// buildLines loads fresh product rows for the cart and snapshots them as
// pricing lines. Stored cart prices are never trusted at checkout time.
func (s *service) buildLines(ctx context.Context, record *models.CartRecord) (map[uuid.UUID]models.Product, []pricing.Line, error) {
	ids := make([]uuid.UUID, 0, len(record.Items))
	for _, item := range record.Items {
		ids = append(ids, item.ProductID)
	}

	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load products")
	}
	products := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		products[row.ID] = row
	}

	lines := make([]pricing.Line, 0, len(record.Items))
	for _, item := range record.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains a product that no longer exists")
		}
		if !product.IsActive {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains a product that is no longer for sale")
		}
		lines = append(lines, pricing.Line{
			ProductID:      product.ID,
			Title:          product.Title,
			UnitPriceCents: product.PriceCents,
			Bundle:         item.Bundle,
		})
	}
	return products, lines, nil
}

// buildLineItems snapshots the priced lines onto the order, spreading the
// subtotal discount across lines in proportion to their prices so the
// per-line totals sum exactly to the discounted subtotal.
func buildLineItems(orderID uuid.UUID, lines []pricing.Line, products map[uuid.UUID]models.Product, result pricing.Result) []models.OrderLineItem {
	perLine := distributeDiscount(lines, result.TotalDiscountCents)

	items := make([]models.OrderLineItem, 0, len(lines))
	for i, line := range lines {
		product := products[line.ProductID]
		items = append(items, models.OrderLineItem{
			OrderID:        orderID,
			ProductID:      line.ProductID,
			Title:          line.Title,
			Category:       string(product.Category),
			UnitPriceCents: line.UnitPriceCents,
			DiscountCents:  perLine[i],
			TotalCents:     line.UnitPriceCents - perLine[i],
			AssetObjectKey: product.AssetObjectKey,
		})
	}
	return items
}

// distributeDiscount splits the cart-level discount across lines by price
// weight, handing flooring leftovers to the largest remainders.
func distributeDiscount(lines []pricing.Line, discountCents int64) []int64 {
	out := make([]int64, len(lines))
	subtotal := pricing.Subtotal(lines)
	if discountCents <= 0 || subtotal <= 0 {
		return out
	}

	type slot struct {
		index     int
		remainder int64
	}
	slots := make([]slot, 0, len(lines))
	var floorSum int64
	for i, line := range lines {
		scaled := line.UnitPriceCents * discountCents
		out[i] = scaled / subtotal
		floorSum += out[i]
		slots = append(slots, slot{index: i, remainder: scaled % subtotal})
	}

	leftover := discountCents - floorSum
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].remainder > slots[j].remainder
	})
	for i := int64(0); i < leftover && int(i) < len(slots); i++ {
		out[slots[i].index]++
	}
	return out
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
