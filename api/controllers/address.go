package controllers

import (
	"net/http"

	"github.com/angelmondragon/shop-backend/api/validators"
	"github.com/angelmondragon/shop-backend/internal/address"
	"github.com/angelmondragon/shop-backend/pkg/logger"
)

type createAddressRequest struct {
	Street     string `json:"street" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=120"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=64"`
	IsDefault  bool   `json:"is_default"`
}

func AddressList(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("address", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return fail(err)
		}
		list, err := svc.List(r.Context(), userID)
		if err != nil {
			return fail(err)
		}
		return success(list)
	})
}

// AddressCreate stores a shipping address checkout can reference.
func AddressCreate(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("address", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return fail(err)
		}
		var body createAddressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return fail(err)
		}
		dto, err := svc.Create(r.Context(), userID, address.CreateInput{
			Street:     validators.SanitizeString(body.Street, 255),
			City:       validators.SanitizeString(body.City, 120),
			PostalCode: validators.SanitizeString(body.PostalCode, 20),
			Country:    body.Country,
			IsDefault:  body.IsDefault,
		})
		if err != nil {
			return fail(err)
		}
		return created(dto)
	})
}
