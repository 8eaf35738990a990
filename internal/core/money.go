// Package core provides the expense domain: records, money, the category
// registry and the summary aggregation.
//
// This file contains functions for parsing monetary amounts from strings
// and numbers and for formatting cents for display.
package core

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

const maxSafeUnits = (1<<63 - 1) / 100

var maxAmount = decimal.NewFromInt(maxSafeUnits)

// ParseAmount converts a decimal string to Money with half-up rounding on the
// third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) separators. Signs, exponents,
// zero and values that would overflow int64 cents are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> {1234}, nil
//	ParseAmount("12,34")  -> {1234}, nil
//	ParseAmount("12.346") -> {1235}, nil
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	m, err := parsePlainDecimal(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return Money{}, err
	}
	if m.Cents == 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// parsePlainDecimal reads unsigned digits with an optional dot. Zero is
// allowed.
func parsePlainDecimal(s string) (Money, error) {
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return Money{}, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return moneyFromDecimal(d)
}

// MoneyFromFloat converts a JSON-style number to Money. Zero is allowed,
// negative and non-finite values are not.
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, ErrInvalidAmount
	}
	return moneyFromDecimal(decimal.NewFromFloat(f))
}

func moneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() || d.GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Round(2).Shift(2).IntPart()}, nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Decimal returns the amount as a decimal with two places.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in currency units, for charts only.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// String formats the amount as "12.34".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format formats the amount for display, e.g. "$12.34".
func (m Money) Format() string {
	if m.Cents < 0 {
		return "-$" + Money{Cents: -m.Cents}.String()
	}
	return "$" + m.String()
}
