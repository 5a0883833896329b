// Package types provides common value types used across till.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value in the smallest currency unit.
// Arithmetic is integer-only; decimal maths (rates, parsing) goes through
// shopspring/decimal and is rounded back to whole minor units.
//
// Examples:
//   - USD(2500) = $25.00
//   - CAD(1999) = C$19.99
type Money struct {
	Amount   int64  `json:"amount"`   // Smallest unit (cents)
	Currency string `json:"currency"` // ISO 4217 lowercase: "usd", "cad"
}

// USD creates a Money value in US Dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// CAD creates a Money value in Canadian Dollars (cents).
func CAD(cents int64) Money { return Money{Amount: cents, Currency: "cad"} }

// EUR creates a Money value in Euros (cents).
func EUR(cents int64) Money { return Money{Amount: cents, Currency: "eur"} }

// New creates a Money value in the given currency.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToLower(currency)}
}

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return Money{Amount: 0, Currency: strings.ToLower(currency)} }

// ParseMoney parses a major-unit amount such as "25", "25.5", "$1,250.00"
// into Money. The value is rounded half away from zero to the currency's
// minor unit.
func ParseMoney(s, currency string) (Money, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, currencySymbol(currency))
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return Money{}, fmt.Errorf("money: parse %q: empty amount", s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}

	return FromDecimal(d, currency), nil
}

// FromDecimal converts a major-unit decimal into Money.
func FromDecimal(d decimal.Decimal, currency string) Money {
	places := int32(currencyDecimals(currency))
	minor := d.Shift(places).Round(0).IntPart()
	return New(minor, currency)
}

// Decimal returns the value in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -int32(currencyDecimals(m.Currency)))
}

// MulRate multiplies by a fractional rate (0.30 for 30%) and rounds half away
// from zero to the minor unit.
func (m Money) MulRate(rate decimal.Decimal) Money {
	amount := decimal.NewFromInt(m.Amount).Mul(rate).Round(0).IntPart()
	return Money{Amount: amount, Currency: m.Currency}
}

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount, Currency: m.currencyWith(other)}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	return Money{Amount: m.Amount - other.Amount, Currency: m.currencyWith(other)}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values are equal (same amount and currency).
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// LessThan returns true if this Money is less than other. Panics if currencies don't match.
func (m Money) LessThan(other Money) bool {
	m.currencyWith(other)
	return m.Amount < other.Amount
}

// GreaterThan returns true if this Money is greater than other. Panics if currencies don't match.
func (m Money) GreaterThan(other Money) bool {
	m.currencyWith(other)
	return m.Amount > other.Amount
}

// Max returns the larger of two Money values. Panics if currencies don't match.
func (m Money) Max(other Money) Money {
	m.currencyWith(other)
	if m.Amount > other.Amount {
		return m
	}
	return other
}

// FormatMajor returns the major unit string without currency symbol:
// "25.00" for USD(2500).
func (m Money) FormatMajor() string {
	decimals := currencyDecimals(m.Currency)
	if decimals == 0 {
		return fmt.Sprintf("%d", m.Amount)
	}
	return m.Decimal().StringFixed(int32(decimals))
}

// String returns a human-readable string with currency symbol.
// Examples: "$25.00", "C$19.99"
func (m Money) String() string {
	if m.Amount < 0 {
		return "-" + currencySymbol(m.Currency) + m.Negate().FormatMajor()
	}
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// SameCurrency reports whether m and other can be combined. A value with
// no currency combines with any other.
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency || m.Currency == "" || other.Currency == ""
}

// currencyWith returns the currency shared by m and other. A zero value with
// no currency adopts the other side's currency. Panics on a real mismatch.
func (m Money) currencyWith(other Money) string {
	switch {
	case m.Currency == other.Currency:
		return m.Currency
	case m.Currency == "":
		return other.Currency
	case other.Currency == "":
		return m.Currency
	}
	panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
}

// currencySymbol returns the symbol for a currency code.
func currencySymbol(currency string) string {
	symbols := map[string]string{
		"usd": "$",
		"eur": "€",
		"gbp": "£",
		"jpy": "¥",
		"cad": "C$",
		"aud": "A$",
		"mxn": "MX$",
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sym
	}
	if currency == "" {
		return ""
	}
	return strings.ToUpper(currency) + " "
}

// currencyDecimals returns the number of decimal places for a currency.
func currencyDecimals(currency string) int {
	zeroDecimal := map[string]bool{
		"jpy": true,
		"krw": true,
		"vnd": true,
		"clp": true,
	}
	if zeroDecimal[strings.ToLower(currency)] {
		return 0
	}
	return 2
}

// Sum calculates the sum of multiple Money values. All must share a currency.
func Sum(values ...Money) Money {
	var result Money
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
