package utils

import "github.com/shopspring/decimal"

// ProRata apportions total by the fraction part/whole. whole must be
// non-zero; callers guarantee that because part is always a matched slice of
// whole.
func ProRata(total, part, whole decimal.Decimal) decimal.Decimal {
	return total.Mul(part).Div(whole)
}

// RoundMoney rounds a reporting-currency amount to two decimal places for
// display and persistence. Engine internals keep full precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
