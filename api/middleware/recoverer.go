package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/shop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
	"github.com/angelmondragon/shop-backend/pkg/logger"
	"github.com/angelmondragon/shop-backend/pkg/metrics"
)

// Recoverer turns a handler panic into a 500 INTERNAL_ERROR envelope and
// counts it. http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recoverer(logg *logger.Logger, m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				route := routePattern(r)
				m.IncPanic(route)

				err := fmt.Errorf("panic in %s %s: %v", r.Method, route, rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithField(ctx, "route", route)
					logg.Error(ctx, "panic.recovered", err)
				}
				// the panic is already logged with its stack
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected server error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
