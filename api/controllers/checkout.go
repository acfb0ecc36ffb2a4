package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shop-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/shop-backend/internal/checkout"
	"github.com/angelmondragon/shop-backend/pkg/logger"
)

type checkoutRequest struct {
	Currency  string     `json:"currency" validate:"omitempty,len=3,alpha"`
	AddressID *uuid.UUID `json:"address_id"`
}

// Checkout turns the caller's cart into an order and answers 201.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("checkout", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return fail(err)
		}
		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return fail(err)
		}
		result, err := svc.Execute(r.Context(), userID, checkoutsvc.Input{Currency: body.Currency, AddressID: body.AddressID})
		if err != nil {
			return fail(err)
		}
		return created(result)
	})
}
