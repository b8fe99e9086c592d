// Package testutil provides shared fixtures for tests.
package testutil

import (
	"github.com/iwvelando/offplan-forecast/pkg/deal"
)

// BaseParams returns the reference deal: 1,000,000 price, 20% down, 30%
// pre-handover, two years of construction at 10% appreciation, no
// installments.
func BaseParams() deal.Params {
	return deal.Params{
		BasePrice:              1000000,
		DownpaymentPercent:     20,
		PreHandoverPercent:     30,
		BookingMonth:           1,
		BookingYear:            2025,
		HandoverMonth:          1,
		HandoverYear:           2027,
		OqoodFee:               5000,
		AppreciationRate:       10,
		GrowthAppreciationRate: 8,
		MatureAppreciationRate: 4,
		GrowthPeriodYears:      5,
		RentalYieldPercent:     7,
		ServiceChargePerSqft:   15,
		UnitSizeSqft:           1000,
		HorizonYears:           10,
	}
}

// InstallmentParams returns a deal with a 10/40/50 plan: 10% down, two
// construction milestones, one time milestone, handing over in July so the
// first income year is partial.
func InstallmentParams() deal.Params {
	p := BaseParams()
	p.DownpaymentPercent = 10
	p.PreHandoverPercent = 50
	p.BookingMonth = 7
	p.BookingYear = 2024
	p.HandoverMonth = 7
	p.HandoverYear = 2027
	p.EOIFee = 25000
	p.AdditionalPayments = []deal.Installment{
		{TriggerType: deal.TriggerConstruction, TriggerValue: 50, PaymentPercent: 15},
		{TriggerType: deal.TriggerTime, TriggerValue: 6, PaymentPercent: 10},
		{TriggerType: deal.TriggerConstruction, TriggerValue: 80, PaymentPercent: 15},
	}
	p.ShortTermRental = &deal.ShortTermRental{
		AverageDailyRate:        800,
		OccupancyPercent:        70,
		OperatingExpensePercent: 20,
		ManagementFeePercent:    15,
	}
	p.ShowAirbnbComparison = true
	return p
}

// BaseMortgage returns a 60% LTV, 25-year mortgage at 4.5%.
func BaseMortgage() deal.Mortgage {
	return deal.Mortgage{
		Enabled:                     true,
		FinancingPercent:            60,
		LoanTermYears:               25,
		InterestRate:                4.5,
		ProcessingFeePercent:        1,
		ValuationFee:                3000,
		MortgageRegistrationPercent: 0.25,
		LifeInsurancePercent:        0.3,
		PropertyInsurance:           1500,
	}
}
