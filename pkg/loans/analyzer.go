package loans

import (
	"errors"
	"fmt"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrMortgageDisabled is returned when analysis is requested for a mortgage
// that is switched off.
var ErrMortgageDisabled = errors.New("mortgage is not enabled")

// StressStatus classifies rent coverage of a stressed payment.
type StressStatus string

const (
	StressPositive StressStatus = "positive"
	StressTight    StressStatus = "tight"
	StressNegative StressStatus = "negative"
)

// YearRow aggregates twelve months of amortization.
type YearRow struct {
	Year            int     `json:"year"`
	YearlyPrincipal float64 `json:"yearlyPrincipal"`
	YearlyInterest  float64 `json:"yearlyInterest"`
	PrincipalPaid   float64 `json:"principalPaid"`
	InterestPaid    float64 `json:"interestPaid"`
	Balance         float64 `json:"balance"`
}

// StressScenario is the monthly position at a shocked interest rate.
type StressScenario struct {
	RateOffset     float64      `json:"rateOffset"`
	Rate           float64      `json:"rate"`
	MonthlyPayment float64      `json:"monthlyPayment"`
	NetCashflow    float64      `json:"netCashflow"`
	Coverage       float64      `json:"coverage"`
	Status         StressStatus `json:"status"`
}

// Analysis is the full mortgage picture for one deal.
type Analysis struct {
	LoanAmount            float64 `json:"loanAmount"`
	MonthlyPayment        float64 `json:"monthlyPayment"`
	TotalInterest         float64 `json:"totalInterest"`
	TotalPayable          float64 `json:"totalPayable"`
	EquityRequiredPercent float64 `json:"equityRequiredPercent"`
	GapPercent            float64 `json:"gapPercent"`
	GapAmount             float64 `json:"gapAmount"`
	HasGap                bool    `json:"hasGap"`

	ProcessingFee    float64 `json:"processingFee"`
	RegistrationFee  float64 `json:"registrationFee"`
	ValuationFee     float64 `json:"valuationFee"`
	TotalUpfrontFees float64 `json:"totalUpfrontFees"`

	AnnualLifeInsurance     float64 `json:"annualLifeInsurance"`
	AnnualPropertyInsurance float64 `json:"annualPropertyInsurance"`
	MonthlyInsurance        float64 `json:"monthlyInsurance"`
	TotalInsurance          float64 `json:"totalInsurance"`

	MonthlyNetRent  float64 `json:"monthlyNetRent"`
	MonthlyCashflow float64 `json:"monthlyCashflow"`

	AmortizationSchedule []YearRow       `json:"amortizationSchedule"`
	StressScenarios      []StressScenario `json:"stressScenarios"`
}

// Analyzer runs mortgage analyses.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a new analyzer instance.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

// Analyze computes the loan, gap financing, fees, insurance, yearly
// amortization and the rate stress table. annualNetRent is the long-term
// rent after service charges used for coverage.
func (a *Analyzer) Analyze(m deal.Mortgage, basePrice, preHandoverPercent, annualNetRent float64) (*Analysis, error) {
	if !m.Enabled {
		return nil, ErrMortgageDisabled
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if !(basePrice > 0) {
		return nil, fmt.Errorf("%w: base price must be positive, got %v", deal.ErrInvalidParams, basePrice)
	}
	if preHandoverPercent < 0 || preHandoverPercent > constants.PercentageMultiplier {
		return nil, fmt.Errorf("%w: pre-handover percent must be between 0 and 100, got %v",
			deal.ErrInvalidParams, preHandoverPercent)
	}

	analysis := &Analysis{}
	analysis.EquityRequiredPercent = constants.PercentageMultiplier - m.FinancingPercent
	analysis.GapPercent = analysis.EquityRequiredPercent - preHandoverPercent
	if analysis.GapPercent < 0 {
		analysis.GapPercent = 0
	}
	analysis.HasGap = analysis.GapPercent > 0
	analysis.GapAmount = mathutil.ApplyPercentage(basePrice, analysis.GapPercent)

	analysis.LoanAmount = mathutil.ApplyPercentage(basePrice, m.FinancingPercent)
	termMonths := m.TermMonths()
	analysis.MonthlyPayment = CalculateMonthlyPayment(analysis.LoanAmount, 0, m.InterestRate, termMonths)

	schedule := Amortize(analysis.LoanAmount, m.InterestRate, termMonths)
	analysis.AmortizationSchedule = aggregateYears(schedule)
	for _, payment := range schedule {
		analysis.TotalInterest += payment.Interest
	}
	analysis.TotalPayable = analysis.LoanAmount + analysis.TotalInterest

	analysis.ProcessingFee = mathutil.ApplyPercentage(analysis.LoanAmount, m.ProcessingFeePercent)
	analysis.RegistrationFee = mathutil.ApplyPercentage(analysis.LoanAmount, m.MortgageRegistrationPercent)
	analysis.ValuationFee = m.ValuationFee
	analysis.TotalUpfrontFees = analysis.ProcessingFee + analysis.RegistrationFee + analysis.ValuationFee

	analysis.AnnualLifeInsurance = mathutil.ApplyPercentage(analysis.LoanAmount, m.LifeInsurancePercent)
	analysis.AnnualPropertyInsurance = m.PropertyInsurance
	annualInsurance := analysis.AnnualLifeInsurance + analysis.AnnualPropertyInsurance
	analysis.MonthlyInsurance = annualInsurance / constants.MonthsPerYear
	analysis.TotalInsurance = annualInsurance * float64(m.LoanTermYears)

	analysis.MonthlyNetRent = annualNetRent / constants.MonthsPerYear
	analysis.MonthlyCashflow = analysis.MonthlyNetRent - analysis.MonthlyPayment - analysis.MonthlyInsurance

	analysis.StressScenarios = StressTest(analysis.LoanAmount, m.InterestRate, termMonths, analysis.MonthlyNetRent)

	a.logger.Debug("analyzed mortgage",
		zap.String("op", "loans.Analyze"),
		zap.Float64("loanAmount", analysis.LoanAmount),
		zap.Float64("monthlyPayment", analysis.MonthlyPayment),
		zap.Float64("gapPercent", analysis.GapPercent),
		zap.Float64("totalInterest", analysis.TotalInterest),
	)
	if analysis.HasGap {
		a.logger.Debug(fmt.Sprintf("payment plan leaves a %.2f%% gap to fund before disbursement", analysis.GapPercent),
			zap.String("op", "loans.Analyze"),
		)
	}

	return analysis, nil
}

// StressTest recomputes the payment at each configured rate shock and
// classifies how well monthly net rent covers it.
func StressTest(loanAmount, baseRate float64, termMonths int, monthlyNetRent float64) []StressScenario {
	scenarios := make([]StressScenario, 0, len(constants.StressRateOffsets))
	for _, offset := range constants.StressRateOffsets {
		rate := baseRate + offset
		payment := CalculateMonthlyPayment(loanAmount, 0, rate, termMonths)
		scenario := StressScenario{
			RateOffset:     offset,
			Rate:           rate,
			MonthlyPayment: payment,
			NetCashflow:    monthlyNetRent - payment,
			Coverage:       Coverage(monthlyNetRent, payment),
		}
		scenario.Status = ClassifyCoverage(scenario.Coverage)
		scenarios = append(scenarios, scenario)
	}
	return scenarios
}

// Coverage is rent as a percentage of debt service.
func Coverage(monthlyNetRent, monthlyPayment float64) float64 {
	if monthlyPayment <= 0 {
		return constants.UnboundedCoverage
	}
	return mathutil.SafeDivide(monthlyNetRent, monthlyPayment, 0) * constants.PercentageMultiplier
}

// ClassifyCoverage maps a coverage percentage to a stress status.
func ClassifyCoverage(coverage float64) StressStatus {
	switch {
	case coverage >= constants.StressPositiveCoverage:
		return StressPositive
	case coverage >= constants.StressTightCoverage:
		return StressTight
	default:
		return StressNegative
	}
}

func aggregateYears(schedule []Payment) []YearRow {
	var rows []YearRow
	principalPaid, interestPaid := 0.0, 0.0
	for _, payment := range schedule {
		year := (payment.Month-1)/constants.MonthsPerYear + 1
		if len(rows) == 0 || rows[len(rows)-1].Year != year {
			rows = append(rows, YearRow{Year: year})
		}
		row := &rows[len(rows)-1]
		row.YearlyPrincipal += payment.Principal
		row.YearlyInterest += payment.Interest
		principalPaid += payment.Principal
		interestPaid += payment.Interest
		row.PrincipalPaid = principalPaid
		row.InterestPaid = interestPaid
		row.Balance = payment.RemainingPrincipal
	}
	return rows
}
