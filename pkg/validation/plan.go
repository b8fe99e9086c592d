package validation

import (
	"fmt"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/exits"
	"github.com/iwvelando/offplan-forecast/pkg/loans"
	"github.com/iwvelando/offplan-forecast/pkg/mathutil"
)

// ValidateUnallocatedShare warns when the pre-handover commitment is not
// fully scheduled by the down payment and installments.
func ValidateUnallocatedShare(p deal.Params) string {
	remainder := p.UnallocatedPreHandoverPercent()
	if remainder <= 0 {
		return ""
	}
	return fmt.Sprintf("%.2f%% of the pre-handover commitment has no installment and will be collected at handover",
		remainder)
}

// ValidateInstallmentTiming warns about time-triggered installments that
// only fall due at or after handover.
func ValidateInstallmentTiming(p deal.Params) []string {
	var warnings []string
	totalMonths := float64(p.TotalMonths())
	for i, payment := range p.AdditionalPayments {
		if payment.TriggerType != deal.TriggerTime || payment.PaymentPercent <= 0 {
			continue
		}
		if payment.TriggerValue >= totalMonths {
			warnings = append(warnings, fmt.Sprintf(
				"Installment %d falls due at month %.0f, at or after handover (month %.0f)",
				i+1, payment.TriggerValue, totalMonths))
		}
	}
	return warnings
}

// ValidateLoanSize warns when the mortgage would lend more than the balance
// outstanding at handover.
func ValidateLoanSize(p deal.Params, m deal.Mortgage) string {
	if !m.Enabled {
		return ""
	}
	if m.FinancingPercent > p.HandoverBalancePercent()+constants.PercentTolerance {
		return fmt.Sprintf("Mortgage finances %.2f%% but only %.2f%% is outstanding at handover",
			m.FinancingPercent, p.HandoverBalancePercent())
	}
	return ""
}

// ValidateExitPoints warns about exit points beyond the projection horizon.
func ValidateExitPoints(p deal.Params, points []exits.Point) []string {
	var warnings []string
	horizonEnd := float64(p.TotalMonths() + p.Horizon()*constants.MonthsPerYear)
	for _, point := range points {
		if point.Months > horizonEnd {
			warnings = append(warnings, fmt.Sprintf(
				"Exit point '%s' at month %.0f is beyond the %d-year horizon and is speculative",
				point.Label, point.Months, p.Horizon()))
		}
	}
	return warnings
}

// ValidateCashflow warns when rent does not cover the mortgage at the base rate.
func ValidateCashflow(a *loans.Analysis) string {
	if a == nil || a.MonthlyCashflow >= 0 {
		return ""
	}
	return fmt.Sprintf("Monthly cashflow is negative at the base rate (%.2f)", mathutil.Round(a.MonthlyCashflow))
}

// PlanValidator collects non-fatal warnings for one scenario.
type PlanValidator struct {
	Params     deal.Params
	Mortgage   deal.Mortgage
	ExitPoints []exits.Point
	Analysis   *loans.Analysis
}

// ValidateAll runs every plan check and returns the warnings in a stable order.
func (pv *PlanValidator) ValidateAll() []string {
	var warnings []string

	if warning := ValidateUnallocatedShare(pv.Params); warning != "" {
		warnings = append(warnings, warning)
	}
	warnings = append(warnings, ValidateInstallmentTiming(pv.Params)...)
	if warning := ValidateLoanSize(pv.Params, pv.Mortgage); warning != "" {
		warnings = append(warnings, warning)
	}
	warnings = append(warnings, ValidateExitPoints(pv.Params, pv.ExitPoints)...)
	if warning := ValidateCashflow(pv.Analysis); warning != "" {
		warnings = append(warnings, warning)
	}

	return warnings
}
