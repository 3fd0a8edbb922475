package squarewebhook

import (
	"context"
	"strings"
	"time"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
)

// orderTransitions is the slice of the orders service the webhook drives.
type orderTransitions interface {
	MarkPaid(ctx context.Context, providerOrderID, providerPaymentID string, paidAt time.Time) (*models.Order, error)
	MarkPaymentFailed(ctx context.Context, providerOrderID, reason string) (*models.Order, error)
}

// Service translates Square payment events into order state transitions.
// Provider state is synced, never driven, from here.
type Service struct {
	orders orderTransitions
	logg   *logger.Logger
}

// NewService wires the Square webhook service.
func NewService(orders orderTransitions, logg *logger.Logger) (*Service, error) {
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	return &Service{orders: orders, logg: logg}, nil
}

// SquareWebhookEvent is the envelope Square posts to the notification URL.
type SquareWebhookEvent struct {
	EventID string            `json:"event_id"`
	Type    string            `json:"type"`
	Data    SquareWebhookData `json:"data"`
}

type SquareWebhookData struct {
	Type   string              `json:"type"`
	ID     string              `json:"id"`
	Object SquareWebhookObject `json:"object"`
}

type SquareWebhookObject struct {
	Payment *SquarePayment `json:"payment"`
}

// SquarePayment is the subset of Square's payment object the store acts on.
type SquarePayment struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	OrderID   string `json:"order_id"`
	UpdatedAt string `json:"updated_at"`
}

// HandleEvent processes a verified Square payment event. Event types the
// store does not track are acknowledged without action.
func (s *Service) HandleEvent(ctx context.Context, event *SquareWebhookEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "square event required")
	}

	switch strings.ToLower(event.Type) {
	case "payment.created", "payment.updated":
		payment := event.Data.Object.Payment
		if payment == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment payload missing")
		}
		return s.syncPayment(ctx, payment)
	default:
		return nil
	}
}

func (s *Service) syncPayment(ctx context.Context, payment *SquarePayment) error {
	if payment.OrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment order id missing")
	}

	switch strings.ToUpper(payment.Status) {
	case "COMPLETED":
		_, err := s.orders.MarkPaid(ctx, payment.OrderID, payment.ID, parseSquareTime(payment.UpdatedAt))
		return s.absorbUnknownOrder(ctx, payment.OrderID, err)
	case "FAILED", "CANCELED":
		_, err := s.orders.MarkPaymentFailed(ctx, payment.OrderID, strings.ToLower(payment.Status))
		return s.absorbUnknownOrder(ctx, payment.OrderID, err)
	default:
		// APPROVED and PENDING precede COMPLETED; nothing to record yet.
		return nil
	}
}

// absorbUnknownOrder acknowledges payments for orders this store never
// created, such as charges taken through the same Square account by other
// channels. Retrying those deliveries would never succeed.
func (s *Service) absorbUnknownOrder(ctx context.Context, providerOrderID string, err error) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "provider_order_id", providerOrderID)
			s.logg.Warn(logCtx, "square payment references unknown order")
		}
		return nil
	}
	return err
}

func parseSquareTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Now().UTC()
	}
	return parsed
}
