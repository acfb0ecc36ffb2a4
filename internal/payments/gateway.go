package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
	pkgstripe "github.com/angelmondragon/shop-backend/pkg/stripe"
)

// PaymentIntentRequest asks the gateway to start collecting AmountMinor units (cents,
// kopecks) of Currency. Requests sharing an IdempotencyKey yield one intent.
type PaymentIntentRequest struct {
	AmountMinor    int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

// PaymentIntent is the gateway's handle for a pending payment. ClientSecret lets the
// browser confirm it.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// Gateway creates payment intents.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)
}

type intentCreator interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, currency, idempotencyKey string, metadata map[string]string) (*stripe.PaymentIntent, error)
}

var _ intentCreator = (*pkgstripe.Client)(nil)

type stripeGateway struct {
	client intentCreator
}

// NewStripeGateway adapts the Stripe client to Gateway.
func NewStripeGateway(client intentCreator) (Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	return &stripeGateway{client: client}, nil
}

func (g *stripeGateway) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	if req.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment currency is required")
	}

	intent, err := g.client.CreatePaymentIntent(ctx, req.AmountMinor, currency, req.IdempotencyKey, req.Metadata)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}
	return &PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}
