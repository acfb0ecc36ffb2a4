package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetOrCreate loads the user's cart with items, products and promo, creating an empty
// cart on first access. Concurrent first calls converge on one row via the unique user_id.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.Cart{UserID: userID}).Error; err != nil {
		return nil, err
	}

	var record models.Cart
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Items.Product").
		Preload("PromoCode").
		Where("user_id = ?", userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindItem returns the line for productID, or gorm.ErrRecordNotFound.
func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SaveItemQuantity sets the quantity of the line for productID, inserting it if needed.
func (r *Repository) SaveItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	db := r.db.WithContext(ctx)
	item, err := r.FindItem(ctx, cartID, productID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = &models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
		if err := db.Create(item).Error; err != nil {
			return nil, err
		}
		return item, nil
	case err != nil:
		return nil, err
	}

	if err := db.Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Update("quantity", quantity).Error; err != nil {
		return nil, err
	}
	item.Quantity = quantity
	return item, nil
}

// SetPromo attaches or clears (nil) the cart's promo code.
func (r *Repository) SetPromo(ctx context.Context, cartID uuid.UUID, promoID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("promo_code_id", promoID).Error
}

// DeleteItems empties the cart.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}
