// Package types provides common type aliases and monetary utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// FromInt creates a Money value from an integer quantity.
func FromInt(i int64) Money {
	return decimal.NewFromInt(i)
}

// Round3 rounds to 3 decimal places, the precision all stored amounts carry.
func Round3(m Money) Money {
	return m.Round(3)
}

// Round2 rounds to 2 decimal places for API responses and documents.
func Round2(m Money) Money {
	return m.Round(2)
}

// TaxRate is a fractional VAT/IGV rate, e.g. 0.18 for 18%.
type TaxRate struct {
	rate decimal.Decimal
}

// NewTaxRate builds a TaxRate from a fraction such as 0.18.
func NewTaxRate(fraction float64) TaxRate {
	return TaxRate{rate: decimal.NewFromFloat(fraction)}
}

// Split decomposes a tax-inclusive total into subtotal and tax:
//
//	subtotal = total / (1 + rate)
//	tax      = total - subtotal
//
// Both parts are rounded to 2 decimals and always sum back to Round2(total).
func (t TaxRate) Split(total Money) (subtotal, tax Money) {
	total = Round2(total)
	subtotal = Round2(total.Div(decimal.NewFromInt(1).Add(t.rate)))
	tax = total.Sub(subtotal)
	return subtotal, tax
}

// WeightedAverageCost returns the new unit cost after receiving addQty units at
// addCost on top of curQty units carried at curCost:
//
//	(curQty*curCost + addQty*addCost) / (curQty + addQty)
//
// When both quantities are zero the incoming cost is returned unchanged.
func WeightedAverageCost(curQty int64, curCost Money, addQty int64, addCost Money) Money {
	totalQty := curQty + addQty
	if totalQty <= 0 {
		return Round3(addCost)
	}
	cur := curCost.Mul(decimal.NewFromInt(curQty))
	add := addCost.Mul(decimal.NewFromInt(addQty))
	return Round3(cur.Add(add).Div(decimal.NewFromInt(totalQty)))
}
