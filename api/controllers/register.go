package controllers

import (
	"net/http"

	"github.com/angelmondragon/shop-backend/api/validators"
	"github.com/angelmondragon/shop-backend/internal/auth"
	"github.com/angelmondragon/shop-backend/pkg/logger"
)

// AuthRegister creates a customer account and answers 201. The caller still
// has to log in.
func AuthRegister(reg auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	if reg == nil {
		return unavailable("auth", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return fail(err)
		}
		user, err := reg.Register(r.Context(), body)
		if err != nil {
			return fail(err)
		}
		if logg != nil {
			logg.Info(logg.WithUserID(r.Context(), user.ID.String()), "auth.registered")
		}
		return created(user)
	})
}
