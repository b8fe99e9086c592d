package config

import (
	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
)

// DealConfig is the configured form of deal.Params. Pointer fields are
// optional and take documented defaults when absent.
type DealConfig struct {
	BasePrice          float64             `yaml:"basePrice" json:"basePrice"`
	DownpaymentPercent float64             `yaml:"downpaymentPercent" json:"downpaymentPercent"`
	PreHandoverPercent float64             `yaml:"preHandoverPercent" json:"preHandoverPercent"`
	AdditionalPayments []InstallmentConfig `yaml:"additionalPayments,omitempty" json:"additionalPayments,omitempty"`

	BookingMonth    int `yaml:"bookingMonth" json:"bookingMonth"`
	BookingYear     int `yaml:"bookingYear" json:"bookingYear"`
	HandoverMonth   int `yaml:"handoverMonth,omitempty" json:"handoverMonth,omitempty"`
	HandoverQuarter int `yaml:"handoverQuarter,omitempty" json:"handoverQuarter,omitempty"`
	HandoverYear    int `yaml:"handoverYear" json:"handoverYear"`

	OqoodFee float64 `yaml:"oqoodFee,omitempty" json:"oqoodFee,omitempty"`
	EOIFee   float64 `yaml:"eoiFee,omitempty" json:"eoiFee,omitempty"`

	AppreciationRate       *float64 `yaml:"appreciationRate,omitempty" json:"appreciationRate,omitempty"`
	GrowthAppreciationRate *float64 `yaml:"growthAppreciationRate,omitempty" json:"growthAppreciationRate,omitempty"`
	MatureAppreciationRate *float64 `yaml:"matureAppreciationRate,omitempty" json:"matureAppreciationRate,omitempty"`
	GrowthPeriodYears      *float64 `yaml:"growthPeriodYears,omitempty" json:"growthPeriodYears,omitempty"`

	RentalYieldPercent   *float64 `yaml:"rentalYieldPercent,omitempty" json:"rentalYieldPercent,omitempty"`
	ServiceChargePerSqft float64  `yaml:"serviceChargePerSqft,omitempty" json:"serviceChargePerSqft,omitempty"`
	UnitSizeSqft         float64  `yaml:"unitSizeSqft,omitempty" json:"unitSizeSqft,omitempty"`

	ShortTermRental      *ShortTermRentalConfig `yaml:"shortTermRental,omitempty" json:"shortTermRental,omitempty"`
	ShowAirbnbComparison bool                   `yaml:"showAirbnbComparison,omitempty" json:"showAirbnbComparison,omitempty"`

	HorizonYears *int `yaml:"horizonYears,omitempty" json:"horizonYears,omitempty"`
}

// InstallmentConfig is one configured milestone payment.
type InstallmentConfig struct {
	TriggerType    string  `yaml:"triggerType" json:"triggerType"`
	TriggerValue   float64 `yaml:"triggerValue" json:"triggerValue"`
	PaymentPercent float64 `yaml:"paymentPercent" json:"paymentPercent"`
}

// ShortTermRentalConfig holds the nightly-rental settings.
type ShortTermRentalConfig struct {
	AverageDailyRate        float64  `yaml:"averageDailyRate" json:"averageDailyRate"`
	OccupancyPercent        *float64 `yaml:"occupancyPercent,omitempty" json:"occupancyPercent,omitempty"`
	OperatingExpensePercent *float64 `yaml:"operatingExpensePercent,omitempty" json:"operatingExpensePercent,omitempty"`
	ManagementFeePercent    *float64 `yaml:"managementFeePercent,omitempty" json:"managementFeePercent,omitempty"`
}

// MortgageConfig is the configured form of deal.Mortgage.
type MortgageConfig struct {
	Enabled                     bool    `yaml:"enabled" json:"enabled"`
	FinancingPercent            float64 `yaml:"financingPercent" json:"financingPercent"`
	LoanTermYears               int     `yaml:"loanTermYears" json:"loanTermYears"`
	InterestRate                float64 `yaml:"interestRate" json:"interestRate"`
	ProcessingFeePercent        float64 `yaml:"processingFeePercent,omitempty" json:"processingFeePercent,omitempty"`
	ValuationFee                float64 `yaml:"valuationFee,omitempty" json:"valuationFee,omitempty"`
	MortgageRegistrationPercent float64 `yaml:"mortgageRegistrationPercent,omitempty" json:"mortgageRegistrationPercent,omitempty"`
	LifeInsurancePercent        float64 `yaml:"lifeInsurancePercent,omitempty" json:"lifeInsurancePercent,omitempty"`
	PropertyInsurance           float64 `yaml:"propertyInsurance,omitempty" json:"propertyInsurance,omitempty"`
}

func floatOr(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}
	return *value
}

// ToParams converts the configuration into engine params, applying
// defaults to absent optional fields.
func (d DealConfig) ToParams() deal.Params {
	p := deal.Params{
		BasePrice:              d.BasePrice,
		DownpaymentPercent:     d.DownpaymentPercent,
		PreHandoverPercent:     d.PreHandoverPercent,
		BookingMonth:           d.BookingMonth,
		BookingYear:            d.BookingYear,
		HandoverMonth:          d.HandoverMonth,
		HandoverQuarter:        d.HandoverQuarter,
		HandoverYear:           d.HandoverYear,
		OqoodFee:               d.OqoodFee,
		EOIFee:                 d.EOIFee,
		AppreciationRate:       floatOr(d.AppreciationRate, constants.DefaultAppreciationRate),
		GrowthAppreciationRate: floatOr(d.GrowthAppreciationRate, constants.DefaultGrowthAppreciationRate),
		MatureAppreciationRate: floatOr(d.MatureAppreciationRate, constants.DefaultMatureAppreciationRate),
		GrowthPeriodYears:      floatOr(d.GrowthPeriodYears, constants.DefaultGrowthPeriodYears),
		RentalYieldPercent:     floatOr(d.RentalYieldPercent, constants.DefaultRentalYieldPercent),
		ServiceChargePerSqft:   d.ServiceChargePerSqft,
		UnitSizeSqft:           d.UnitSizeSqft,
		ShowAirbnbComparison:   d.ShowAirbnbComparison,
		HorizonYears:           constants.DefaultHorizonYears,
	}
	if d.HorizonYears != nil {
		p.HorizonYears = *d.HorizonYears
	}

	for _, payment := range d.AdditionalPayments {
		p.AdditionalPayments = append(p.AdditionalPayments, deal.Installment{
			TriggerType:    CanonicalTriggerType(payment.TriggerType),
			TriggerValue:   payment.TriggerValue,
			PaymentPercent: payment.PaymentPercent,
		})
	}

	if str := d.ShortTermRental; str != nil {
		p.ShortTermRental = &deal.ShortTermRental{
			AverageDailyRate:        str.AverageDailyRate,
			OccupancyPercent:        floatOr(str.OccupancyPercent, constants.DefaultOccupancyPercent),
			OperatingExpensePercent: floatOr(str.OperatingExpensePercent, constants.DefaultOperatingExpensePercent),
			ManagementFeePercent:    floatOr(str.ManagementFeePercent, constants.DefaultManagementFeePercent),
		}
	}
	return p
}

// CanonicalTriggerType accepts the common spellings of trigger types.
func CanonicalTriggerType(value string) deal.TriggerType {
	switch normalizeKey(value) {
	case "time", "month", "months":
		return deal.TriggerTime
	case "constructionpercent", "construction":
		return deal.TriggerConstruction
	default:
		return deal.TriggerType(value)
	}
}

// ToMortgage converts the configuration into engine mortgage params.
func (m *MortgageConfig) ToMortgage() deal.Mortgage {
	if m == nil {
		return deal.Mortgage{}
	}
	return deal.Mortgage{
		Enabled:                     m.Enabled,
		FinancingPercent:            m.FinancingPercent,
		LoanTermYears:               m.LoanTermYears,
		InterestRate:                m.InterestRate,
		ProcessingFeePercent:        m.ProcessingFeePercent,
		ValuationFee:                m.ValuationFee,
		MortgageRegistrationPercent: m.MortgageRegistrationPercent,
		LifeInsurancePercent:        m.LifeInsurancePercent,
		PropertyInsurance:           m.PropertyInsurance,
	}
}
