// Package loans provides mortgage payment math and the month-by-month
// amortization used by the mortgage analyzer.
package loans

import (
	"math"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/mathutil"
)

// Payment holds the values for a given payment.
type Payment struct {
	Month              int
	Payment            float64
	Principal          float64
	Interest           float64
	RemainingPrincipal float64
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, downPayment, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return (principal - downPayment) / float64(termMonths)
	}

	periodicInterestRate := annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
	power := math.Pow((1.00 + periodicInterestRate), float64(termMonths))
	discountFactor := (power - 1.00) / power
	return (principal - downPayment) * periodicInterestRate / discountFactor
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// Amortize builds the month-by-month schedule of a fixed-rate loan. The
// final payment retires whatever balance floating point error leaves
// behind so the schedule always ends at zero.
func Amortize(principal, annualInterestRate float64, termMonths int) []Payment {
	if termMonths <= 0 || principal <= 0 {
		return nil
	}

	monthlyPayment := CalculateMonthlyPayment(principal, 0, annualInterestRate, termMonths)
	schedule := make([]Payment, 0, termMonths)
	balance := principal

	for month := 1; month <= termMonths; month++ {
		current := Payment{Month: month}
		current.Interest = CalculateInterestPayment(balance, annualInterestRate)
		current.Principal = monthlyPayment - current.Interest
		current.Payment = monthlyPayment

		if month == termMonths || mathutil.IsZero(balance - current.Principal) {
			// We will get machine error otherwise so just retire the balance.
			current.Principal = balance
			current.Payment = current.Principal + current.Interest
			current.RemainingPrincipal = 0.00
			schedule = append(schedule, current)
			break
		}

		current.RemainingPrincipal = balance - current.Principal
		balance = current.RemainingPrincipal
		schedule = append(schedule, current)
	}

	return schedule
}
