package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyPrefix is printed in front of every displayed amount.
const CurrencyPrefix = "Rs. "

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(1<<63 - 1)
	minCents = decimal.NewFromInt(-1 << 63)
)

// Money is an amount in integer cents.
type Money struct {
	Cents int64
}

// NewMoney builds a Money from whole units and cents, e.g. NewMoney(200, 50) is 200.50.
func NewMoney(units, cents int64) Money {
	return Money{Cents: units*100 + cents}
}

// ParseAmount converts a decimal string to Money with half-up rounding on the
// third decimal place.
//
// Zero and negative values are accepted here; whether they are allowed is a
// policy decision taken by the account. Returns ErrNotANumber when the input
// is not a decimal number or does not fit in int64 cents.
//
// Examples:
//
//	ParseAmount("200")    -> 200.00
//	ParseAmount("12.345") -> 12.35
//	ParseAmount("4800.0") -> 4800.00
//	ParseAmount("-5")     -> -5.00
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrNotANumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	cents := d.Round(2).Mul(hundred)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return Money{}, fmt.Errorf("%w: %q out of range", ErrNotANumber, s)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Validate reports ErrInvalidAmount for zero and negative amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// Sub returns m - o.
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Decimal returns the amount as a decimal in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Fixed renders the amount with exactly two decimals, e.g. "4800.00".
func (m Money) Fixed() string {
	return m.Decimal().StringFixed(2)
}

// String renders the amount for display, e.g. "Rs. 4800.00".
func (m Money) String() string {
	return CurrencyPrefix + m.Fixed()
}

// Record renders the compact form used in history entries and in the
// persisted balance line: trailing fractional zeros are dropped but one
// fractional digit is always kept ("200.0", "200.5", "0.01").
func (m Money) Record() string {
	s := m.Fixed()
	if strings.HasSuffix(s, "0") {
		s = s[:len(s)-1]
	}
	return s
}
