package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/enums"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox"
	"github.com/mgiraldodev/templaria-backend/pkg/outbox/payloads"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
)

// Service exposes order queries for buyers and the payment-driven state
// transitions consumed by the webhook handler and fulfillment worker.
type Service interface {
	GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ListResult, error)
	MarkPaid(ctx context.Context, providerOrderID, providerPaymentID string, paidAt time.Time) (*models.Order, error)
	MarkPaymentFailed(ctx context.Context, providerOrderID, reason string) (*models.Order, error)
	MarkFulfilled(ctx context.Context, orderID uuid.UUID, at time.Time) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CouponRedeemer bumps the redemption counter for the given code inside
// the payment transaction. Wired to coupons.RedeemByCode in production.
type CouponRedeemer func(ctx context.Context, tx *gorm.DB, code string) (*models.Coupon, error)

type service struct {
	repo         Repository
	tx           txRunner
	events       eventEmitter
	redeemCoupon CouponRedeemer
	logg         *logger.Logger
}

// NewService wires the orders service.
func NewService(repo Repository, tx txRunner, events eventEmitter, redeemCoupon CouponRedeemer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("orders: repository is required")
	}
	if tx == nil {
		return nil, errors.New("orders: transaction runner is required")
	}
	if events == nil {
		return nil, errors.New("orders: event emitter is required")
	}
	if redeemCoupon == nil {
		return nil, errors.New("orders: coupon redeemer is required")
	}
	return &service{repo: repo, tx: tx, events: events, redeemCoupon: redeemCoupon, logg: logg}, nil
}

func (s *service) GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByIDAndCustomer(ctx, orderID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
	}
	return NewOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ListResult, error) {
	rows, next, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewOrderDTO(&rows[i]))
	}
	return &ListResult{Orders: out, NextCursor: next}, nil
}

// MarkPaid transitions a pending order to paid, counts the coupon
// redemption, and queues the fulfillment event. Webhook deliveries replay,
// so a second call for an already-paid order is a no-op.
func (s *service) MarkPaid(ctx context.Context, providerOrderID, providerPaymentID string, paidAt time.Time) (*models.Order, error) {
	if providerOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider order id is required")
	}
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	var out *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByProviderOrderID(ctx, providerOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no order for provider order id")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
		}

		switch order.Status {
		case enums.OrderStatusPaid, enums.OrderStatusFulfilled:
			out = order
			return nil
		case enums.OrderStatusPending:
		default:
			return pkgerrors.New(pkgerrors.CodeConflict, "order is not payable")
		}

		order.Status = enums.OrderStatusPaid
		order.ProviderPaymentID = &providerPaymentID
		order.PaidAt = &paidAt
		if _, err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update order")
		}

		if order.CouponCode != nil && *order.CouponCode != "" {
			if err := s.recordRedemption(ctx, tx, order, paidAt); err != nil {
				return err
			}
		}

		err = s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaidEvent{
				OrderID:           order.ID,
				OrderNumber:       order.OrderNumber,
				CustomerID:        order.CustomerID,
				CustomerEmail:     order.CustomerEmail,
				TotalCents:        order.TotalCents,
				Currency:          order.Currency,
				ProviderPaymentID: providerPaymentID,
				PaidAt:            paidAt,
			},
			Version:    1,
			OccurredAt: paidAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to queue order.paid event")
		}

		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// recordRedemption tolerates a missing coupon row: recording the payment
// always wins over the redemption counter.
func (s *service) recordRedemption(ctx context.Context, tx *gorm.DB, order *models.Order, paidAt time.Time) error {
	coupon, err := s.redeemCoupon(ctx, tx, *order.CouponCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "coupon_code", *order.CouponCode), "paid order references unknown coupon")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to record coupon redemption")
	}

	var discountCents int64
	for _, entry := range order.AppliedDiscounts {
		if entry.Kind == enums.DiscountKindCoupon {
			discountCents += entry.AmountCents
		}
	}
	err = s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCouponApplied,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.CouponAppliedEvent{
			CouponID:      coupon.ID,
			Code:          coupon.Code,
			OrderID:       order.ID,
			CustomerID:    order.CustomerID,
			DiscountCents: discountCents,
			AppliedAt:     paidAt,
		},
		Version:    1,
		OccurredAt: paidAt,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to queue coupon.applied event")
	}
	return nil
}

// MarkPaymentFailed records a failed or canceled charge. A payment that
// already succeeded is never demoted.
func (s *service) MarkPaymentFailed(ctx context.Context, providerOrderID, reason string) (*models.Order, error) {
	if providerOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider order id is required")
	}
	failedAt := time.Now().UTC()

	var out *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByProviderOrderID(ctx, providerOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no order for provider order id")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
		}

		switch order.Status {
		case enums.OrderStatusFailed, enums.OrderStatusCanceled:
			out = order
			return nil
		case enums.OrderStatusPending:
		default:
			return pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
		}

		order.Status = enums.OrderStatusFailed
		if _, err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update order")
		}

		var paymentID string
		if order.ProviderPaymentID != nil {
			paymentID = *order.ProviderPaymentID
		}
		err = s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaymentFailedEvent{
				OrderID:           order.ID,
				OrderNumber:       order.OrderNumber,
				CustomerID:        order.CustomerID,
				ProviderPaymentID: paymentID,
				Reason:            reason,
				FailedAt:          failedAt,
			},
			Version:    1,
			OccurredAt: failedAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to queue order.payment_failed event")
		}

		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkFulfilled stamps a paid order once download links and the receipt
// have gone out. Called by the fulfillment worker.
func (s *service) MarkFulfilled(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
		}

		switch order.Status {
		case enums.OrderStatusFulfilled:
			return nil
		case enums.OrderStatusPaid:
		default:
			return pkgerrors.New(pkgerrors.CodeConflict, "order is not paid")
		}

		order.Status = enums.OrderStatusFulfilled
		order.FulfilledAt = &at
		if _, err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update order")
		}
		return nil
	})
}
