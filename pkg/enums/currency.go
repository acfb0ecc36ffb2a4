package enums

import (
	"fmt"
	"strings"
)

// Currency is an ISO-4217 style three letter code. Codes outside the known set are
// still accepted for pricing; they convert at rate 1.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
)

var knownCurrencies = []Currency{
	CurrencyUSD,
	CurrencyEUR,
	CurrencyRUB,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsKnown reports whether the currency is one of the built-in codes.
func (c Currency) IsKnown() bool {
	for _, candidate := range knownCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// Lower returns the lowercase form payment gateways expect.
func (c Currency) Lower() string {
	return strings.ToLower(string(c))
}

// ParseCurrency upper-cases and validates the shape of a currency code.
func ParseCurrency(value string) (Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(value))
	if len(code) != 3 {
		return "", fmt.Errorf("invalid currency %q", value)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("invalid currency %q", value)
		}
	}
	return Currency(code), nil
}
