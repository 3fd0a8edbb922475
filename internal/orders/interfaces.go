package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/pagination"
)

// Repository defines the persistence surface required by the orders
// service, checkout, and the payment webhook handler.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Order, error)
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Order, error)
	FindPendingByCartID(ctx context.Context, cartID uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	Save(ctx context.Context, order *models.Order) (*models.Order, error)
}
