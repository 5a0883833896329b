package sale

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xraph/till/types"
)

// NoDiscountLabel is recorded when no discount was applied.
const NoDiscountLabel = "None"

var hundred = decimal.NewFromInt(100)

// Discount is either a percentage or a fixed amount taken off a price.
// The zero value applies no discount.
type Discount struct {
	Percent decimal.Decimal
	Amount  types.Money
}

// PercentOff returns a discount of pct percent (10 for 10%).
func PercentOff(pct decimal.Decimal) Discount {
	return Discount{Percent: pct}
}

// AmountOff returns a fixed-amount discount.
func AmountOff(amount types.Money) Discount {
	return Discount{Amount: amount}
}

// ParseDiscount parses labels such as "10%", "$5", "5.00" or "None".
func ParseDiscount(label, currency string) (Discount, error) {
	s := strings.TrimSpace(label)
	if s == "" || strings.EqualFold(s, NoDiscountLabel) {
		return Discount{}, nil
	}

	if pct, ok := strings.CutSuffix(s, "%"); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(pct))
		if err != nil {
			return Discount{}, fmt.Errorf("sale: parse discount %q: %w", label, err)
		}
		if d.IsNegative() || d.GreaterThan(hundred) {
			return Discount{}, fmt.Errorf("sale: parse discount %q: percent out of range", label)
		}
		return PercentOff(d), nil
	}

	m, err := types.ParseMoney(s, currency)
	if err != nil {
		return Discount{}, fmt.Errorf("sale: parse discount %q: %w", label, err)
	}
	if m.IsNegative() {
		return Discount{}, fmt.Errorf("sale: parse discount %q: negative amount", label)
	}
	return AmountOff(m), nil
}

// IsZero reports whether the discount changes nothing.
func (d Discount) IsZero() bool {
	return d.Percent.IsZero() && d.Amount.IsZero()
}

// Apply returns price after the discount, never below zero.
func (d Discount) Apply(price types.Money) types.Money {
	out := price
	if !d.Percent.IsZero() {
		out = out.Subtract(price.MulRate(d.Percent.Div(hundred)))
	}
	if !d.Amount.IsZero() {
		out = out.Subtract(d.Amount)
	}
	if out.IsNegative() {
		return types.Zero(price.Currency)
	}
	return out
}

// Label is the value written to the audit log's discount column.
func (d Discount) Label() string {
	switch {
	case d.IsZero():
		return NoDiscountLabel
	case !d.Percent.IsZero():
		return d.Percent.String() + "%"
	default:
		return d.Amount.String()
	}
}
