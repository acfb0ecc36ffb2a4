package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shop-backend/api/validators"
	"github.com/angelmondragon/shop-backend/internal/orders"
	"github.com/angelmondragon/shop-backend/pkg/logger"
)

type fakePaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// OrderList pages through the caller's orders, newest first.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("orders", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return fail(err)
		}
		params, err := pageParams(r)
		if err != nil {
			return fail(err)
		}
		page, err := svc.List(r.Context(), userID, params)
		if err != nil {
			return fail(err)
		}
		return success(page)
	})
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("orders", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return fail(err)
		}
		orderID, err := validators.ParseURLUUID(r, "orderID")
		if err != nil {
			return fail(err)
		}
		dto, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			return fail(err)
		}
		return success(dto)
	})
}

// FakePayment marks one of the caller's orders paid without a gateway.
func FakePayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("orders", logg)
	}
	return serve(logg, func(r *http.Request) (int, any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return fail(err)
		}
		var body fakePaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return fail(err)
		}
		dto, err := svc.ConfirmPayment(r.Context(), userID, body.OrderID)
		if err != nil {
			return fail(err)
		}
		if logg != nil {
			logg.Info(logg.WithOrderID(r.Context(), dto.ID.String()), "order.payment_confirmed")
		}
		return success(dto)
	})
}
