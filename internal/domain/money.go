package domain

import "fmt"

// Money is a monetary amount in minor units (cents).
type Money int64

// Times returns the amount multiplied by the given quantity.
func (m Money) Times(quantity int) Money {
	return m * Money(quantity)
}

// String formats the amount as a decimal with two fractional digits.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MoneyPtr returns a pointer to the given amount. Handy for optional discount prices.
func MoneyPtr(m Money) *Money {
	return &m
}
