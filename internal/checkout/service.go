package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shop-backend/internal/cart"
	"github.com/angelmondragon/shop-backend/internal/checkout/reservation"
	"github.com/angelmondragon/shop-backend/internal/notifications"
	"github.com/angelmondragon/shop-backend/internal/orders"
	"github.com/angelmondragon/shop-backend/internal/payments"
	"github.com/angelmondragon/shop-backend/pkg/db/models"
	"github.com/angelmondragon/shop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
	"github.com/angelmondragon/shop-backend/pkg/logger"
	"github.com/angelmondragon/shop-backend/pkg/metrics"
	"github.com/angelmondragon/shop-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type addressResolver interface {
	Resolve(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type converter interface {
	Convert(base decimal.Decimal, currency string) decimal.Decimal
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.StockRequest) error
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.StockRequest) error {
	return reservation.ReserveStock(ctx, tx, requests)
}

// Service turns the caller's cart into an order.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
}

// Input selects the order currency and the caller's shipping address.
type Input struct {
	Currency  string
	AddressID *uuid.UUID
}

// Result describes the created order. ClientSecret is set only when a payment gateway
// is configured.
type Result struct {
	OrderID      uuid.UUID         `json:"order_id"`
	ClientSecret *string           `json:"client_secret,omitempty"`
	Paid         bool              `json:"paid"`
	Status       enums.OrderStatus `json:"status"`
	Total        money.Amount      `json:"total"`
	Currency     string            `json:"currency"`
}

// Options tune checkout policy.
type Options struct {
	MinimumAmount     decimal.Decimal
	ClearPromo        bool
	FailOnNotifyError bool
}

// Deps groups the collaborators checkout needs. Gateway may be nil, in which case
// orders are marked paid immediately.
type Deps struct {
	Tx          txRunner
	Carts       cart.CartRepository
	Orders      orders.Repository
	Addresses   addressResolver
	Users       userLoader
	Converter   converter
	Gateway     payments.Gateway
	Notifier    notifications.OrderNotifier
	Reservation reservationRunner
	Metrics     *metrics.CheckoutMetrics
	Logger      *logger.Logger
}

type service struct {
	Deps
	opts Options
}

// NewService builds the checkout service.
func NewService(deps Deps, opts Options) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address resolver required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if deps.Converter == nil {
		return nil, fmt.Errorf("currency converter required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("order notifier required")
	}
	if deps.Reservation == nil {
		deps.Reservation = reservationEngine{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if opts.MinimumAmount.IsNegative() {
		return nil, fmt.Errorf("minimum amount must not be negative")
	}
	return &service{Deps: deps, opts: opts}, nil
}

func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	currency := money.Normalize(input.Currency)
	if _, err := enums.ParseCurrency(currency); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	ctx = s.Logger.WithUserID(ctx, userID.String())

	if input.AddressID == nil || *input.AddressID == uuid.Nil {
		err := pkgerrors.New(pkgerrors.CodeAddressNotFound, "address not found")
		s.fail("address", err)
		return nil, err
	}
	addr, err := s.Addresses.Resolve(ctx, userID, *input.AddressID)
	if err != nil {
		s.fail("address", err)
		return nil, err
	}
	addressID := &addr.ID

	var order *models.Order
	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.Carts.WithTx(tx)
		ordersRepo := s.Orders.WithTx(tx)

		record, err := cartRepo.GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		total := cart.CartTotal(s.Converter, record, currency)
		if total.LessThan(s.opts.MinimumAmount) {
			return pkgerrors.New(pkgerrors.CodeMinimumAmount, "order total is below the minimum amount").WithDetails(map[string]any{
				"minimum":  s.opts.MinimumAmount.StringFixed(2),
				"total":    total.StringFixed(2),
				"currency": currency,
			})
		}

		order = &models.Order{
			UserID:      userID,
			PromoCodeID: record.PromoCodeID,
			AddressID:   addressID,
			TotalPrice:  total,
			Currency:    currency,
			Status:      enums.OrderStatusNew,
		}
		if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(record.Items))
		requests := make([]reservation.StockRequest, 0, len(record.Items))
		for _, item := range record.Items {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Product:   item.Product,
				Price:     cart.UnitPrice(s.Converter, item.Product, currency),
				Quantity:  item.Quantity,
			})
			requests = append(requests, reservation.StockRequest{ProductID: item.ProductID, Qty: item.Quantity})
		}
		if len(items) > 0 {
			if err := ordersRepo.CreateOrderItems(ctx, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
			}
		}
		order.Items = items

		if err := s.Reservation.Reserve(ctx, tx, requests); err != nil {
			return err
		}

		if err := cartRepo.DeleteItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		if s.opts.ClearPromo && record.PromoCodeID != nil {
			if err := cartRepo.SetPromo(ctx, record.ID, nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart promo")
			}
		}
		return nil
	})
	if err != nil {
		s.fail("transaction", err)
		return nil, err
	}
	ctx = s.Logger.WithOrderID(ctx, order.ID.String())

	result := &Result{OrderID: order.ID, Status: order.Status, Total: money.NewAmount(order.TotalPrice), Currency: order.Currency}
	paymentMode := "immediate"
	if s.Gateway != nil {
		paymentMode = "gateway"
		intent, err := s.Gateway.CreatePaymentIntent(ctx, payments.PaymentIntentRequest{
			AmountMinor:    money.ToMinorUnits(order.TotalPrice),
			Currency:       strings.ToLower(order.Currency),
			IdempotencyKey: "order-" + order.ID.String(),
			Metadata:       map[string]string{"order_id": order.ID.String()},
		})
		if err != nil {
			s.fail("payment_gateway", err)
			s.Logger.Error(ctx, "checkout.payment_intent_failed", err)
			return nil, err
		}
		if err := s.Orders.UpdateOrder(ctx, order.ID, map[string]any{"payment_intent_id": intent.ID}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment intent")
		}
		order.PaymentIntentID = &intent.ID
		secret := intent.ClientSecret
		result.ClientSecret = &secret
	} else {
		// Without a gateway the order counts as paid; status stays new until fulfilment.
		if err := s.Orders.UpdateOrder(ctx, order.ID, map[string]any{"paid": true}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		order.Paid = true
		result.Paid = true
	}

	if err := s.notify(ctx, userID, order); err != nil {
		if s.opts.FailOnNotifyError {
			return nil, err
		}
		s.Logger.Warn(s.Logger.WithField(ctx, "error", err.Error()), "checkout.notify_failed")
	}

	s.Metrics.ObserveOrder(order.Currency, paymentMode, order.TotalPrice)
	s.Logger.Info(ctx, "checkout.order_created")
	return result, nil
}

func (s *service) notify(ctx context.Context, userID uuid.UUID, order *models.Order) error {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if err := s.Notifier.OrderPlaced(ctx, user, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send order confirmation")
	}
	return nil
}

func (s *service) fail(stage string, err error) {
	reason := stage
	if typed := pkgerrors.As(err); typed != nil {
		reason = strings.ToLower(string(typed.Code()))
	}
	s.Metrics.IncFailure(reason)
}
