package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shop-backend/internal/promos"
	"github.com/angelmondragon/shop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations for the authenticated customer.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID, currency string) (*Quote, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	ApplyPromo(ctx context.Context, userID uuid.UUID, code string) (*models.PromoCode, error)
}

// AddItemInput is a request to put quantity more units of a product in the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	promos   promos.Service
	conv     converter
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, promoSvc promos.Service, conv converter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if promoSvc == nil {
		return nil, fmt.Errorf("promo service required")
	}
	if conv == nil {
		return nil, fmt.Errorf("currency converter required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		promos:   promoSvc,
		conv:     conv,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, currency string) (*Quote, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	record, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return BuildQuote(s.conv, record, currency), nil
}

// AddItem raises the line for the product to existing+requested units, refusing when
// that exceeds current stock. Stock itself is not reserved.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	var saved *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		existing := 0
		item, err := repo.FindItem(ctx, record.ID, product.ID)
		switch {
		case err == nil:
			existing = item.Quantity
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		requested := existing + input.Quantity
		if requested > product.Stock {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock").WithDetails(map[string]any{
				"product_id": product.ID,
				"available":  product.Stock,
				"in_cart":    existing,
				"requested":  input.Quantity,
			})
		}

		saved, err = repo.SaveItemQuantity(ctx, record.ID, product.ID, requested)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		saved.Product = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ApplyPromo attaches the active promo named code to the user's cart.
func (s *service) ApplyPromo(ctx context.Context, userID uuid.UUID, code string) (*models.PromoCode, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	promo, err := s.promos.FindActive(ctx, code)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.SetPromo(ctx, record.ID, &promo.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach promo")
	}
	return promo, nil
}
