// Package deal defines the immutable input records of a projection: the
// purchase and payment plan, the rental and appreciation assumptions, and
// the optional mortgage.
package deal

import (
	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/datetime"
	"github.com/iwvelando/offplan-forecast/pkg/mathutil"
)

// TriggerType identifies what makes an installment fall due.
type TriggerType string

const (
	// TriggerTime installments fall due at an elapsed-month mark.
	TriggerTime TriggerType = "time"
	// TriggerConstruction installments fall due at a construction-completion percentage.
	TriggerConstruction TriggerType = "constructionPercent"
)

// Installment is one milestone payment of the pre-handover plan.
type Installment struct {
	TriggerType    TriggerType `json:"triggerType" yaml:"triggerType"`
	TriggerValue   float64     `json:"triggerValue" yaml:"triggerValue"`
	PaymentPercent float64     `json:"paymentPercent" yaml:"paymentPercent"`
}

// ShortTermRental holds the nightly-rental assumptions.
type ShortTermRental struct {
	AverageDailyRate        float64 `json:"averageDailyRate" yaml:"averageDailyRate"`
	OccupancyPercent        float64 `json:"occupancyPercent" yaml:"occupancyPercent"`
	OperatingExpensePercent float64 `json:"operatingExpensePercent" yaml:"operatingExpensePercent"`
	ManagementFeePercent    float64 `json:"managementFeePercent" yaml:"managementFeePercent"`
}

// Params describes one deal. Values are treated as read-only by every
// calculation.
type Params struct {
	BasePrice          float64       `json:"basePrice" yaml:"basePrice"`
	DownpaymentPercent float64       `json:"downpaymentPercent" yaml:"downpaymentPercent"`
	PreHandoverPercent float64       `json:"preHandoverPercent" yaml:"preHandoverPercent"`
	AdditionalPayments []Installment `json:"additionalPayments,omitempty" yaml:"additionalPayments,omitempty"`

	BookingMonth    int `json:"bookingMonth" yaml:"bookingMonth"`
	BookingYear     int `json:"bookingYear" yaml:"bookingYear"`
	HandoverMonth   int `json:"handoverMonth,omitempty" yaml:"handoverMonth,omitempty"`
	HandoverQuarter int `json:"handoverQuarter,omitempty" yaml:"handoverQuarter,omitempty"`
	HandoverYear    int `json:"handoverYear" yaml:"handoverYear"`

	OqoodFee float64 `json:"oqoodFee" yaml:"oqoodFee"`
	EOIFee   float64 `json:"eoiFee" yaml:"eoiFee"`

	AppreciationRate       float64 `json:"appreciationRate" yaml:"appreciationRate"`
	GrowthAppreciationRate float64 `json:"growthAppreciationRate" yaml:"growthAppreciationRate"`
	MatureAppreciationRate float64 `json:"matureAppreciationRate" yaml:"matureAppreciationRate"`
	GrowthPeriodYears      float64 `json:"growthPeriodYears" yaml:"growthPeriodYears"`

	RentalYieldPercent   float64 `json:"rentalYieldPercent" yaml:"rentalYieldPercent"`
	ServiceChargePerSqft float64 `json:"serviceChargePerSqft" yaml:"serviceChargePerSqft"`
	UnitSizeSqft         float64 `json:"unitSizeSqft" yaml:"unitSizeSqft"`

	ShortTermRental      *ShortTermRental `json:"shortTermRental,omitempty" yaml:"shortTermRental,omitempty"`
	ShowAirbnbComparison bool             `json:"showAirbnbComparison" yaml:"showAirbnbComparison"`

	HorizonYears int `json:"horizonYears" yaml:"horizonYears"`
}

// ResolvedHandoverMonth returns the handover calendar month, mapping a
// quarter to its final month when no explicit month is set.
func (p Params) ResolvedHandoverMonth() (int, error) {
	if p.HandoverMonth != 0 {
		return p.HandoverMonth, nil
	}
	return datetime.QuarterEndMonth(p.HandoverQuarter)
}

// TotalMonths is the construction duration from booking to handover. It is
// only meaningful for validated params.
func (p Params) TotalMonths() int {
	handoverMonth, err := p.ResolvedHandoverMonth()
	if err != nil {
		return 0
	}
	return datetime.MonthsBetween(p.BookingMonth, p.BookingYear, handoverMonth, p.HandoverYear)
}

// Horizon returns the post-handover projection length in years.
func (p Params) Horizon() int {
	if p.HorizonYears <= 0 {
		return constants.DefaultHorizonYears
	}
	return p.HorizonYears
}

// DLDFee is the land department transfer fee.
func (p Params) DLDFee() float64 {
	return mathutil.ApplyPercentage(p.BasePrice, constants.DLDFeePercent)
}

// EntryCosts are the non-refundable purchase costs on top of the price.
func (p Params) EntryCosts() float64 {
	return p.DLDFee() + p.OqoodFee
}

// DownpaymentAmount is the cash due at booking.
func (p Params) DownpaymentAmount() float64 {
	return mathutil.ApplyPercentage(p.BasePrice, p.DownpaymentPercent)
}

// HandoverBalancePercent is the share of price due at handover.
func (p Params) HandoverBalancePercent() float64 {
	return constants.PercentageMultiplier - p.PreHandoverPercent
}

// InstallmentPercent sums the positive additional payments.
func (p Params) InstallmentPercent() float64 {
	total := 0.0
	for _, payment := range p.AdditionalPayments {
		if payment.PaymentPercent > 0 {
			total += payment.PaymentPercent
		}
	}
	return total
}

// UnallocatedPreHandoverPercent is the share of the pre-handover commitment
// not covered by the down payment and installments. It is collected with
// the handover tranche.
func (p Params) UnallocatedPreHandoverPercent() float64 {
	remainder := p.PreHandoverPercent - p.DownpaymentPercent - p.InstallmentPercent()
	if remainder < constants.PercentTolerance {
		return 0
	}
	return remainder
}

// AnnualServiceCharges is the yearly building service charge.
func (p Params) AnnualServiceCharges() float64 {
	return p.ServiceChargePerSqft * p.UnitSizeSqft
}

// GrossAnnualRent is the long-term rent on the purchase price.
func (p Params) GrossAnnualRent() float64 {
	return mathutil.ApplyPercentage(p.BasePrice, p.RentalYieldPercent)
}

// AnnualNetRent is the long-term rent after service charges.
func (p Params) AnnualNetRent() float64 {
	return p.GrossAnnualRent() - p.AnnualServiceCharges()
}

// ShortTermEnabled reports whether short-term projections are produced.
func (p Params) ShortTermEnabled() bool {
	return p.ShowAirbnbComparison && p.ShortTermRental != nil
}

// AnnualShortTermNet is the nightly-rental income after operating expenses
// and management fees, for a full year.
func (p Params) AnnualShortTermNet() float64 {
	if !p.ShortTermEnabled() {
		return 0
	}
	str := p.ShortTermRental
	gross := str.AverageDailyRate * constants.DaysPerYear * str.OccupancyPercent / constants.PercentageMultiplier
	kept := 1 - (str.OperatingExpensePercent+str.ManagementFeePercent)/constants.PercentageMultiplier
	return gross * kept
}

// TotalCapitalInvested is the capital recovered before a deal breaks even:
// the down payment, every installment and the handover balance (together
// the full purchase price) plus entry costs. The handover balance counts as
// the final installment, so break-even is measured against cash that is
// fully paid by handover, not only the pre-handover share.
func (p Params) TotalCapitalInvested() float64 {
	return p.BasePrice + p.EntryCosts()
}

// Mortgage holds the financing assumptions applied at handover.
type Mortgage struct {
	Enabled                     bool    `json:"enabled" yaml:"enabled"`
	FinancingPercent            float64 `json:"financingPercent" yaml:"financingPercent"`
	LoanTermYears               int     `json:"loanTermYears" yaml:"loanTermYears"`
	InterestRate                float64 `json:"interestRate" yaml:"interestRate"`
	ProcessingFeePercent        float64 `json:"processingFeePercent" yaml:"processingFeePercent"`
	ValuationFee                float64 `json:"valuationFee" yaml:"valuationFee"`
	MortgageRegistrationPercent float64 `json:"mortgageRegistrationPercent" yaml:"mortgageRegistrationPercent"`
	LifeInsurancePercent        float64 `json:"lifeInsurancePercent" yaml:"lifeInsurancePercent"`
	PropertyInsurance           float64 `json:"propertyInsurance" yaml:"propertyInsurance"`
}

// TermMonths is the number of monthly payments.
func (m Mortgage) TermMonths() int {
	return m.LoanTermYears * constants.MonthsPerYear
}
