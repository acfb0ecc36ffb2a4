package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service and checkout.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	SaveItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.CartItem, error)
	SetPromo(ctx context.Context, cartID uuid.UUID, promoID *uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
}
