package controllers

import (
	"net/http"

	"github.com/angelmondragon/shop-backend/api/middleware"
	"github.com/angelmondragon/shop-backend/api/responses"
	"github.com/angelmondragon/shop-backend/api/validators"
	"github.com/angelmondragon/shop-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
	"github.com/angelmondragon/shop-backend/pkg/logger"
)

// Login also echoes the access token in this header for clients that
// cannot read the JSON body before redirecting.
const tokenHeader = "X-Shop-Token"

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("auth", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		err := validators.DecodeJSONBody(r, &body)
		var result *auth.LoginResponse
		if err == nil {
			result, err = svc.Login(r.Context(), body)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AuthLogout revokes the session behind the presented token. Other sessions
// of the same user stay open.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("auth", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			return fail(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
		}
		if err := svc.Logout(r.Context(), accessID); err != nil {
			return fail(err)
		}
		return success(map[string]string{"status": "logged_out"})
	})
}

func Profile(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("auth", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return fail(err)
		}
		user, err := svc.Profile(r.Context(), userID)
		if err != nil {
			return fail(err)
		}
		return success(user)
	})
}
