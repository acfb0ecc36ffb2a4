// Package stripe holds the configured Stripe credentials and the one call
// checkout makes: opening a PaymentIntent for a placed order.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/angelmondragon/shop-backend/pkg/config"
	"github.com/angelmondragon/shop-backend/pkg/logger"
)

var (
	ErrMissingKey = errors.New("stripe: secret key is required")
	ErrUnknownEnv = errors.New(`stripe: environment must be "test" or "live"`)
)

// Secret and restricted key prefixes accepted per environment.
var keyPrefixes = map[string][]string{
	"test": {"sk_test_", "rk_test_"},
	"live": {"sk_live_", "rk_live_"},
}

type intentFunc func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)

// Client opens payment intents against one Stripe account.
type Client struct {
	env         string
	publishable string
	newIntent   intentFunc
}

// NewClient checks that the secret key matches the configured environment
// before installing it, so a live key never runs under a test deployment.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env := cfg.Environment()
	prefixes, ok := keyPrefixes[env]
	if !ok {
		return nil, ErrUnknownEnv
	}
	secret := strings.TrimSpace(cfg.APIKey)
	if secret == "" {
		return nil, ErrMissingKey
	}
	if !hasAnyPrefix(secret, prefixes) {
		return nil, fmt.Errorf("stripe: %s environment needs a key starting with %s", env, strings.Join(prefixes, " or "))
	}

	stripe.Key = secret
	if logg != nil {
		logg.Info(logg.WithField(ctx, "stripe_env", env), "stripe.configured")
	}
	return &Client{
		env:         env,
		publishable: strings.TrimSpace(cfg.PublicKey),
		newIntent:   paymentintent.New,
	}, nil
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.env
}

// PublicKey is the publishable key browsers use to confirm an intent.
func (c *Client) PublicKey() string {
	if c == nil {
		return ""
	}
	return c.publishable
}

// CreatePaymentIntent opens an intent for amountMinor units of currency.
// A non-empty idempotencyKey makes Stripe return the same intent on retry.
func (c *Client) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency, idempotencyKey string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	if c == nil || c.newIntent == nil {
		return nil, ErrMissingKey
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	return c.newIntent(params)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
