package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
	"github.com/angelmondragon/shop-backend/pkg/money"
)

// ProductDTO is the catalog payload returned to clients. PriceConverted is PriceUSD in
// Currency.
type ProductDTO struct {
	ID             uuid.UUID    `json:"id"`
	CategoryID     uuid.UUID    `json:"category_id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	PriceUSD       money.Amount `json:"price_usd"`
	PriceConverted money.Amount `json:"price_converted"`
	Currency       string       `json:"currency"`
	Stock          int          `json:"stock"`
	CreatedAt      time.Time    `json:"created_at"`
}

type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

func toProductDTO(p models.Product, conv converter, currency string) ProductDTO {
	return ProductDTO{
		ID:             p.ID,
		CategoryID:     p.CategoryID,
		Name:           p.Name,
		Description:    p.Description,
		PriceUSD:       money.NewAmount(p.PriceUSD),
		PriceConverted: money.NewAmount(conv.Convert(p.PriceUSD, currency)),
		Currency:       currency,
		Stock:          p.Stock,
		CreatedAt:      p.CreatedAt,
	}
}

func toCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug}
}
