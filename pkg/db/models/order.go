package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shop-backend/pkg/enums"
)

// Order is the immutable record produced by checkout. Item prices are frozen in the
// order currency at creation time.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	PromoCodeID     *uuid.UUID        `gorm:"column:promo_code_id;type:uuid"`
	PromoCode       *PromoCode        `gorm:"foreignKey:PromoCodeID;constraint:OnDelete:SET NULL"`
	AddressID       *uuid.UUID        `gorm:"column:address_id;type:uuid"`
	Address         *Address          `gorm:"foreignKey:AddressID;constraint:OnDelete:SET NULL"`
	TotalPrice      decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null;default:0"`
	Currency        string            `gorm:"column:currency;type:varchar(3);not null;default:'USD'"`
	Paid            bool              `gorm:"column:paid;not null;default:false"`
	Status          enums.OrderStatus `gorm:"column:status;type:varchar(20);not null;default:'new'"`
	PaymentIntentID *string           `gorm:"column:payment_intent_id"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	if o.Status == "" {
		o.Status = enums.OrderStatusNew
	}
	return nil
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Product   *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null;default:1"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// Subtotal is the frozen unit price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
