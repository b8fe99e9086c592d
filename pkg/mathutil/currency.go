// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"gonum.org/v1/gonum/floats"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// SafeDivide returns numerator/denominator, or fallback when the denominator
// is zero or the quotient is not finite.
func SafeDivide(numerator, denominator, fallback float64) float64 {
	if denominator == 0 {
		return fallback
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return fallback
	}
	return result
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	return SafeDivide(value, total, 0) * constants.PercentageMultiplier
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}

// Compound grows value at an annual percentage rate for a possibly
// fractional number of years.
func Compound(value, annualRatePercent, years float64) float64 {
	if years == 0 {
		return value
	}
	return value * math.Pow(1+annualRatePercent/constants.PercentageMultiplier, years)
}

// Sum adds a series of values.
func Sum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values)
}

// Clamp limits val to the closed interval [min, max].
func Clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
