package enums

import (
	"fmt"
	"strings"
)

// Currency is the ISO 4217 code an account is denominated in.
type Currency string

const (
	CurrencyXAF Currency = "XAF"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

var validCurrencies = []Currency{
	CurrencyXAF,
	CurrencyUSD,
	CurrencyEUR,
}

// IsValid reports whether the currency is supported.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts raw input into Currency.
func ParseCurrency(value string) (Currency, error) {
	normalized := Currency(strings.ToUpper(strings.TrimSpace(value)))
	for _, candidate := range validCurrencies {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
