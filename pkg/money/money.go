// Package money converts USD catalog prices into display currencies using a static
// rate table.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shop-backend/pkg/config"
)

const BaseCurrency = "USD"

// Rates maps an upper-case currency code to its multiplier relative to USD.
type Rates map[string]decimal.Decimal

// DefaultRates mirrors the built-in table used when no configuration is provided.
func DefaultRates() Rates {
	return Rates{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("0.9"),
		"RUB": decimal.NewFromInt(95),
	}
}

// ParseRates builds a Rates table from "CODE" -> "multiplier" pairs.
func ParseRates(raw map[string]string) (Rates, error) {
	rates := make(Rates, len(raw))
	for code, value := range raw {
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive", code)
		}
		rates[Normalize(code)] = rate
	}
	return rates, nil
}

// Converter is safe for concurrent use; the table is never mutated after construction.
type Converter struct {
	rates Rates
}

func NewConverter(rates Rates) *Converter {
	if len(rates) == 0 {
		rates = DefaultRates()
	}
	copied := make(Rates, len(rates))
	for code, rate := range rates {
		copied[Normalize(code)] = rate
	}
	return &Converter{rates: copied}
}

// NewConverterFromConfig parses the configured rate table.
func NewConverterFromConfig(cfg config.CurrencyConfig) (*Converter, error) {
	if len(cfg.Rates) == 0 {
		return NewConverter(nil), nil
	}
	rates, err := ParseRates(cfg.Rates)
	if err != nil {
		return nil, err
	}
	return NewConverter(rates), nil
}

// Rate returns the multiplier for currency. Unknown or empty codes fall back to 1.
func (c *Converter) Rate(currency string) decimal.Decimal {
	if rate, ok := c.rates[Normalize(currency)]; ok {
		return rate
	}
	return decimal.NewFromInt(1)
}

// Convert returns base (USD) expressed in currency, rounded half-up to 2 places.
func (c *Converter) Convert(base decimal.Decimal, currency string) decimal.Decimal {
	return base.Mul(c.Rate(currency)).Round(2)
}

// Normalize upper-cases a currency code and defaults empty input to USD.
func Normalize(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		return BaseCurrency
	}
	return code
}

// ToMinorUnits converts a 2-dp amount into integer cents for payment gateways.
// Fractions beyond two places are truncated.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Truncate(0).IntPart()
}

// Amount is a money value that always serialises with exactly two decimal places,
// so 5 is sent as "5.00".
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.StringFixed(2) + `"`), nil
}
