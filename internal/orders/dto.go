package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
	"github.com/angelmondragon/shop-backend/pkg/money"
)

type OrderItemDTO struct {
	ID          uuid.UUID    `json:"id"`
	ProductID   uuid.UUID    `json:"product_id"`
	ProductName string       `json:"product_name,omitempty"`
	Price       money.Amount `json:"price"`
	Quantity    int          `json:"quantity"`
	Subtotal    money.Amount `json:"subtotal"`
}

type OrderDTO struct {
	ID              uuid.UUID      `json:"id"`
	Status          string         `json:"status"`
	Paid            bool           `json:"paid"`
	TotalPrice      money.Amount   `json:"total_price"`
	Currency        string         `json:"currency"`
	PromoCode       *string        `json:"promo_code,omitempty"`
	AddressID       *uuid.UUID     `json:"address_id,omitempty"`
	PaymentIntentID *string        `json:"payment_intent_id,omitempty"`
	Items           []OrderItemDTO `json:"items"`
	CreatedAt       time.Time      `json:"created_at"`
}

// NewOrderDTO maps a loaded order, with items, onto the response shape.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		Status:          order.Status.String(),
		Paid:            order.Paid,
		TotalPrice:      money.NewAmount(order.TotalPrice),
		Currency:        order.Currency,
		AddressID:       order.AddressID,
		PaymentIntentID: order.PaymentIntentID,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
	}
	if order.PromoCode != nil {
		code := order.PromoCode.Code
		dto.PromoCode = &code
	}
	for _, item := range order.Items {
		line := OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Price:     money.NewAmount(item.Price),
			Quantity:  item.Quantity,
			Subtotal:  money.NewAmount(item.Subtotal()),
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
