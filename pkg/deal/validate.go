package deal

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/datetime"
)

// ErrInvalidParams is wrapped by every validation failure.
var ErrInvalidParams = errors.New("invalid deal parameters")

// ErrInvalidMortgage is wrapped by every mortgage validation failure.
var ErrInvalidMortgage = errors.New("invalid mortgage parameters")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}

func invalidMortgage(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidMortgage, fmt.Sprintf(format, args...))
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func percentInRange(v float64) bool {
	return v >= 0 && v <= constants.PercentageMultiplier
}

// Validate checks that the params describe a computable deal. All failures
// are reported together.
func (p Params) Validate() error {
	var errs []error

	if !finite(p.BasePrice, p.DownpaymentPercent, p.PreHandoverPercent, p.OqoodFee, p.EOIFee,
		p.AppreciationRate, p.GrowthAppreciationRate, p.MatureAppreciationRate, p.GrowthPeriodYears,
		p.RentalYieldPercent, p.ServiceChargePerSqft, p.UnitSizeSqft) {
		return invalid("numeric fields must be finite")
	}

	if p.BasePrice <= 0 {
		errs = append(errs, invalid("basePrice must be positive, got %.2f", p.BasePrice))
	}
	if !percentInRange(p.DownpaymentPercent) {
		errs = append(errs, invalid("downpaymentPercent must be between 0 and 100, got %.2f", p.DownpaymentPercent))
	}
	if !percentInRange(p.PreHandoverPercent) {
		errs = append(errs, invalid("preHandoverPercent must be between 0 and 100, got %.2f", p.PreHandoverPercent))
	}
	if p.PreHandoverPercent < p.DownpaymentPercent {
		errs = append(errs, invalid("preHandoverPercent (%.2f) must not be below downpaymentPercent (%.2f)",
			p.PreHandoverPercent, p.DownpaymentPercent))
	}

	errs = append(errs, p.validateInstallments()...)
	errs = append(errs, p.validateDates()...)

	if p.OqoodFee < 0 || p.EOIFee < 0 {
		errs = append(errs, invalid("fees must not be negative"))
	}
	if p.EOIFee > p.DownpaymentAmount()+constants.CurrencyTolerance {
		errs = append(errs, invalid("eoiFee (%.2f) exceeds the down payment (%.2f)", p.EOIFee, p.DownpaymentAmount()))
	}

	rates := []struct {
		name  string
		value float64
	}{
		{"appreciationRate", p.AppreciationRate},
		{"growthAppreciationRate", p.GrowthAppreciationRate},
		{"matureAppreciationRate", p.MatureAppreciationRate},
	}
	for _, rate := range rates {
		if rate.value <= -constants.PercentageMultiplier {
			errs = append(errs, invalid("%s must be above -100, got %.2f", rate.name, rate.value))
		}
	}
	if p.GrowthPeriodYears < 0 {
		errs = append(errs, invalid("growthPeriodYears must not be negative, got %.2f", p.GrowthPeriodYears))
	}

	if p.RentalYieldPercent < 0 || p.ServiceChargePerSqft < 0 || p.UnitSizeSqft < 0 {
		errs = append(errs, invalid("rental yield, service charge and unit size must not be negative"))
	}

	if p.ShortTermRental != nil {
		errs = append(errs, p.ShortTermRental.validate()...)
	}

	if p.HorizonYears < 0 || p.HorizonYears > constants.MaxHorizonYears {
		errs = append(errs, invalid("horizonYears must be between 1 and %d, got %d", constants.MaxHorizonYears, p.HorizonYears))
	}

	return errors.Join(errs...)
}

func (p Params) validateInstallments() []error {
	var errs []error
	for i, payment := range p.AdditionalPayments {
		if !finite(payment.TriggerValue, payment.PaymentPercent) {
			errs = append(errs, invalid("additional payment %d has non-finite values", i+1))
			continue
		}
		switch payment.TriggerType {
		case TriggerTime:
			if payment.TriggerValue < 0 {
				errs = append(errs, invalid("additional payment %d: time trigger must not be negative, got %.2f", i+1, payment.TriggerValue))
			}
		case TriggerConstruction:
			if !percentInRange(payment.TriggerValue) {
				errs = append(errs, invalid("additional payment %d: construction trigger must be between 0 and 100, got %.2f", i+1, payment.TriggerValue))
			}
		default:
			errs = append(errs, invalid("additional payment %d: unknown trigger type %q", i+1, payment.TriggerType))
		}
	}

	committed := p.DownpaymentPercent + p.InstallmentPercent()
	if committed > p.PreHandoverPercent+constants.PercentTolerance {
		errs = append(errs, invalid("down payment and installments total %.2f%%, above the pre-handover share of %.2f%%",
			committed, p.PreHandoverPercent))
	}
	return errs
}

func (p Params) validateDates() []error {
	var errs []error
	if !datetime.ValidMonth(p.BookingMonth) {
		errs = append(errs, invalid("bookingMonth must be between 1 and 12, got %d", p.BookingMonth))
	}
	if p.HandoverMonth != 0 && !datetime.ValidMonth(p.HandoverMonth) {
		errs = append(errs, invalid("handoverMonth must be between 1 and 12, got %d", p.HandoverMonth))
	}
	if _, err := p.ResolvedHandoverMonth(); err != nil {
		errs = append(errs, invalid("handover month or quarter is required: %v", err))
	}
	if len(errs) > 0 {
		return errs
	}
	if total := p.TotalMonths(); total < 1 {
		errs = append(errs, invalid("handover must be at least one month after booking, got %d months", total))
	} else if total > constants.MaxConstructionMonths {
		errs = append(errs, invalid("handover must be at most %d months after booking, got %d months",
			constants.MaxConstructionMonths, total))
	}
	return errs
}

func (s ShortTermRental) validate() []error {
	var errs []error
	if !finite(s.AverageDailyRate, s.OccupancyPercent, s.OperatingExpensePercent, s.ManagementFeePercent) {
		return []error{invalid("short-term rental values must be finite")}
	}
	if s.AverageDailyRate < 0 {
		errs = append(errs, invalid("averageDailyRate must not be negative, got %.2f", s.AverageDailyRate))
	}
	if !percentInRange(s.OccupancyPercent) {
		errs = append(errs, invalid("occupancyPercent must be between 0 and 100, got %.2f", s.OccupancyPercent))
	}
	if s.OperatingExpensePercent < 0 || s.ManagementFeePercent < 0 ||
		s.OperatingExpensePercent+s.ManagementFeePercent > constants.PercentageMultiplier {
		errs = append(errs, invalid("operating expense and management fee must be non-negative and total at most 100%%"))
	}
	return errs
}

// Validate checks the mortgage assumptions. A disabled mortgage is always
// valid.
func (m Mortgage) Validate() error {
	if !m.Enabled {
		return nil
	}
	var errs []error
	if !finite(m.FinancingPercent, m.InterestRate, m.ProcessingFeePercent, m.ValuationFee,
		m.MortgageRegistrationPercent, m.LifeInsurancePercent, m.PropertyInsurance) {
		return invalidMortgage("numeric fields must be finite")
	}
	if m.FinancingPercent <= 0 || m.FinancingPercent > constants.PercentageMultiplier {
		errs = append(errs, invalidMortgage("financingPercent must be above 0 and at most 100, got %.2f", m.FinancingPercent))
	}
	if m.LoanTermYears < 1 || m.LoanTermYears > constants.MaxHorizonYears {
		errs = append(errs, invalidMortgage("loanTermYears must be between 1 and %d, got %d", constants.MaxHorizonYears, m.LoanTermYears))
	}
	if m.InterestRate < 0 {
		errs = append(errs, invalidMortgage("interestRate must not be negative, got %.2f", m.InterestRate))
	}
	if m.ProcessingFeePercent < 0 || m.ValuationFee < 0 || m.MortgageRegistrationPercent < 0 ||
		m.LifeInsurancePercent < 0 || m.PropertyInsurance < 0 {
		errs = append(errs, invalidMortgage("fees and insurance must not be negative"))
	}
	return errors.Join(errs...)
}
