package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/shop-backend/api/validators"
	"github.com/angelmondragon/shop-backend/internal/cart"
	"github.com/angelmondragon/shop-backend/pkg/logger"
)

type addToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type applyPromoRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type cartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CartGet prices the caller's cart in ?currency=, USD when absent.
func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("cart", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return fail(err)
		}
		quote, err := svc.Get(r.Context(), userID, queryCurrency(r))
		if err != nil {
			return fail(err)
		}
		return success(quote)
	})
}

// CartAdd answers with the line's new total quantity.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("cart", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return fail(err)
		}
		var body addToCartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return fail(err)
		}
		item, err := svc.AddItem(r.Context(), userID, cart.AddItemInput{ProductID: body.ProductID, Quantity: body.Quantity})
		if err != nil {
			return fail(err)
		}
		return created(cartLine{ProductID: item.ProductID, Quantity: item.Quantity})
	})
}

func CartApplyPromo(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("cart", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return fail(err)
		}
		var body applyPromoRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return fail(err)
		}
		promo, err := svc.ApplyPromo(r.Context(), userID, strings.TrimSpace(body.Code))
		if err != nil {
			return fail(err)
		}
		return success(map[string]string{"code": promo.Code})
	})
}
