package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart
// service and by checkout.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
	FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.CartRecord, error)
	Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	Update(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	MarkConverted(ctx context.Context, cartID uuid.UUID, at time.Time) error
	MarkAbandoned(ctx context.Context, cartID uuid.UUID) error
}
