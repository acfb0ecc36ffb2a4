package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shop-backend/internal/promos"
	"github.com/angelmondragon/shop-backend/pkg/db/models"
	"github.com/angelmondragon/shop-backend/pkg/money"
)

type converter interface {
	Convert(base decimal.Decimal, currency string) decimal.Decimal
}

var _ converter = (*money.Converter)(nil)

// UnitPrice is the product's USD price converted into currency.
func UnitPrice(conv converter, product *models.Product, currency string) decimal.Decimal {
	if product == nil {
		return decimal.Zero
	}
	return conv.Convert(product.PriceUSD, currency)
}

// ItemSubtotal is the converted unit price times quantity.
func ItemSubtotal(conv converter, item models.CartItem, currency string) decimal.Decimal {
	return UnitPrice(conv, item.Product, currency).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// CartTotal sums item subtotals in currency and applies the attached promo.
func CartTotal(conv converter, record *models.Cart, currency string) decimal.Decimal {
	return quoteTotals(conv, record, currency).Total.Decimal
}

// QuoteItem is one priced cart line.
type QuoteItem struct {
	ID        uuid.UUID    `json:"id"`
	ProductID uuid.UUID    `json:"product_id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unit_price"`
	Subtotal  money.Amount `json:"subtotal"`
}

// Quote is a priced view of a cart in a single currency.
type Quote struct {
	CartID    uuid.UUID    `json:"cart_id"`
	Currency  string       `json:"currency"`
	Items     []QuoteItem  `json:"items"`
	Subtotal  money.Amount `json:"subtotal"`
	Discount  money.Amount `json:"discount"`
	Total     money.Amount `json:"total"`
	PromoCode *string      `json:"promo_code,omitempty"`
}

// BuildQuote prices every line of record in currency.
func BuildQuote(conv converter, record *models.Cart, currency string) *Quote {
	currency = money.Normalize(currency)
	q := quoteTotals(conv, record, currency)
	q.Currency = currency
	if record == nil {
		return q
	}
	q.CartID = record.ID
	q.Items = make([]QuoteItem, 0, len(record.Items))
	for _, item := range record.Items {
		line := QuoteItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: money.NewAmount(UnitPrice(conv, item.Product, currency)),
			Subtotal:  money.NewAmount(ItemSubtotal(conv, item, currency)),
		}
		if item.Product != nil {
			line.Name = item.Product.Name
		}
		q.Items = append(q.Items, line)
	}
	if record.PromoCode != nil {
		code := record.PromoCode.Code
		q.PromoCode = &code
	}
	return q
}

func quoteTotals(conv converter, record *models.Cart, currency string) *Quote {
	subtotal := decimal.Zero
	if record == nil {
		return &Quote{Subtotal: money.NewAmount(subtotal), Discount: money.NewAmount(decimal.Zero), Total: money.NewAmount(subtotal)}
	}
	for _, item := range record.Items {
		subtotal = subtotal.Add(ItemSubtotal(conv, item, currency))
	}
	total := promos.ApplyDiscount(record.PromoCode, subtotal).Round(2)
	return &Quote{
		Subtotal: money.NewAmount(subtotal),
		Discount: money.NewAmount(subtotal.Sub(total)),
		Total:    money.NewAmount(total),
	}
}
