package util

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount (12.34) into cents (1234),
// rounding half away from zero.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

func FloatToMinorUnits(f float64) int64 {
	return ToMinorUnits(decimal.NewFromFloat(f))
}

// RatToMinorUnits converts an exact rational amount, as statement parsers
// produce, into cents.
func RatToMinorUnits(r *big.Rat) (int64, error) {
	d, err := decimal.NewFromString(r.FloatString(6))
	if err != nil {
		return 0, err
	}
	return ToMinorUnits(d), nil
}

// FormatMinorUnits renders cents as a major-unit string ("12.34").
func FormatMinorUnits(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}
