package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shop-backend/api/middleware"
	"github.com/angelmondragon/shop-backend/api/responses"
	"github.com/angelmondragon/shop-backend/api/validators"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
	"github.com/angelmondragon/shop-backend/pkg/logger"
	"github.com/angelmondragon/shop-backend/pkg/money"
	"github.com/angelmondragon/shop-backend/pkg/pagination"
)

// endpoint returns the success status and payload, or an error for the
// error envelope.
type endpoint func(r *http.Request) (int, any, error)

func serve(logg *logger.Logger, fn endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, data, err := fn(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, data)
	}
}

// unavailable answers every request when a service was not wired.
func unavailable(name string, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, func(*http.Request) (int, any, error) {
		return 0, nil, pkgerrors.Newf(pkgerrors.CodeInternal, "%s service unavailable", name)
	})
}

func success(data any) (int, any, error) { return http.StatusOK, data, nil }
func created(data any) (int, any, error) { return http.StatusCreated, data, nil }
func fail(err error) (int, any, error)    { return 0, nil, err }
func noContent() (int, any, error)        { return http.StatusNoContent, nil, nil }

func requireUser(r *http.Request) (uuid.UUID, error) {
	id := middleware.UserUUIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}

// queryCurrency is ?currency= upper-cased, or the default currency.
func queryCurrency(r *http.Request) string {
	return money.Normalize(validators.ParseQueryString(r, "currency", 8))
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: validators.ParseQueryString(r, "cursor", 256),
	}, nil
}
