package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shop-backend/api/validators"
	product "github.com/angelmondragon/shop-backend/internal/products"
	"github.com/angelmondragon/shop-backend/pkg/logger"
)

type createProductRequest struct {
	CategoryID  uuid.UUID       `json:"category_id" validate:"required"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	PriceUSD    decimal.Decimal `json:"price_usd" validate:"nonneg"`
	Stock       int             `json:"stock" validate:"min=0"`
}

// Absent fields are left unchanged.
type updateProductRequest struct {
	CategoryID  *uuid.UUID       `json:"category_id"`
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	PriceUSD    *decimal.Decimal `json:"price_usd" validate:"omitempty,nonneg"`
	Stock       *int             `json:"stock" validate:"omitempty,min=0"`
}

type createCategoryRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required,max=200"`
}

// ProductList serves one catalog page, newest first, with prices in
// ?currency=.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("catalog", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		params, err := pageParams(r)
		if err != nil {
			return fail(err)
		}
		page, err := svc.List(r.Context(), params, queryCurrency(r))
		if err != nil {
			return fail(err)
		}
		return success(page)
	})
}

func ProductDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("catalog", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		id, err := validators.ParseURLUUID(r, "productID")
		if err != nil {
			return fail(err)
		}
		dto, err := svc.Get(r.Context(), id, queryCurrency(r))
		if err != nil {
			return fail(err)
		}
		return success(dto)
	})
}

func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("catalog", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return fail(err)
		}
		dto, err := svc.Create(r.Context(), product.CreateProductInput{
			CategoryID:  body.CategoryID,
			Name:        validators.SanitizeString(body.Name, 200),
			Description: strings.TrimSpace(body.Description),
			PriceUSD:    body.PriceUSD,
			Stock:       body.Stock,
		})
		if err != nil {
			return fail(err)
		}
		return created(dto)
	})
}

func ProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("catalog", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		id, err := validators.ParseURLUUID(r, "productID")
		if err != nil {
			return fail(err)
		}
		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return fail(err)
		}
		dto, err := svc.Update(r.Context(), id, product.UpdateProductInput(body))
		if err != nil {
			return fail(err)
		}
		return success(dto)
	})
}

// ProductDelete answers 204, or 409 when the product is on an order.
func ProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("catalog", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		id, err := validators.ParseURLUUID(r, "productID")
		if err != nil {
			return fail(err)
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			return fail(err)
		}
		return noContent()
	})
}

func CategoryList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("catalog", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		cats, err := svc.ListCategories(r.Context())
		if err != nil {
			return fail(err)
		}
		return success(cats)
	})
}

func CategoryCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("catalog", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		var body createCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return fail(err)
		}
		cat, err := svc.CreateCategory(r.Context(), product.CreateCategoryInput{
			Name: validators.SanitizeString(body.Name, 200),
			Slug: strings.ToLower(strings.TrimSpace(body.Slug)),
		})
		if err != nil {
			return fail(err)
		}
		return created(cat)
	})
}

func CategoryDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("catalog", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		id, err := validators.ParseURLUUID(r, "categoryID")
		if err != nil {
			return fail(err)
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			return fail(err)
		}
		return noContent()
	})
}
