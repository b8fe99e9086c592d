package loans

import (
	"errors"
	"testing"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAnalyzeGapFinancing(t *testing.T) {
	analyzer := NewAnalyzer(zaptest.NewLogger(t))

	analysis, err := analyzer.Analyze(testutil.BaseMortgage(), 1000000, 30, 55000)
	require.NoError(t, err)

	assert.Equal(t, 40.0, analysis.EquityRequiredPercent)
	assert.Equal(t, 10.0, analysis.GapPercent)
	assert.True(t, analysis.HasGap)
	assert.InDelta(t, 100000, analysis.GapAmount, 1e-6)
	assert.InDelta(t, 600000, analysis.LoanAmount, 1e-6)
}

func TestAnalyzeNoGapWhenPlanCoversEquity(t *testing.T) {
	analysis, err := NewAnalyzer(nil).Analyze(testutil.BaseMortgage(), 1000000, 50, 55000)
	require.NoError(t, err)

	assert.Equal(t, 0.0, analysis.GapPercent)
	assert.False(t, analysis.HasGap)
	assert.Equal(t, 0.0, analysis.GapAmount)
}

func TestAnalyzeZeroInterest(t *testing.T) {
	m := testutil.BaseMortgage()
	m.InterestRate = 0

	analysis, err := NewAnalyzer(nil).Analyze(m, 1000000, 30, 55000)
	require.NoError(t, err)

	assert.Equal(t, 600000.0/300, analysis.MonthlyPayment)
	assert.Equal(t, 0.0, analysis.TotalInterest)
	assert.Equal(t, analysis.LoanAmount, analysis.TotalPayable)
}

func TestAnalyzeAmortizationRows(t *testing.T) {
	analysis, err := NewAnalyzer(nil).Analyze(testutil.BaseMortgage(), 1000000, 30, 55000)
	require.NoError(t, err)

	rows := analysis.AmortizationSchedule
	require.Len(t, rows, 25)
	assert.Equal(t, 1, rows[0].Year)
	assert.InDelta(t, 586708.14, rows[0].Balance, 0.01)
	assert.InDelta(t, 600000-586708.14, rows[0].PrincipalPaid, 0.01)

	last := rows[len(rows)-1]
	assert.Equal(t, 25, last.Year)
	assert.Equal(t, 0.0, last.Balance)
	assert.InDelta(t, 600000, last.PrincipalPaid, 1e-6)
	assert.InDelta(t, analysis.TotalInterest, last.InterestPaid, 1e-6)
	assert.InDelta(t, 400498.46, analysis.TotalInterest, 0.01)

	for i := 1; i < len(rows); i++ {
		assert.Greater(t, rows[i].PrincipalPaid, rows[i-1].PrincipalPaid)
		assert.GreaterOrEqual(t, rows[i].InterestPaid, rows[i-1].InterestPaid)
		assert.Less(t, rows[i].Balance, rows[i-1].Balance)
	}
}

func TestAnalyzeFeesAndInsurance(t *testing.T) {
	analysis, err := NewAnalyzer(nil).Analyze(testutil.BaseMortgage(), 1000000, 30, 55000)
	require.NoError(t, err)

	assert.InDelta(t, 6000, analysis.ProcessingFee, 1e-6)
	assert.InDelta(t, 1500, analysis.RegistrationFee, 1e-6)
	assert.InDelta(t, 3000, analysis.ValuationFee, 1e-6)
	assert.InDelta(t, 10500, analysis.TotalUpfrontFees, 1e-6)

	assert.InDelta(t, 1800, analysis.AnnualLifeInsurance, 1e-6)
	assert.InDelta(t, 1500, analysis.AnnualPropertyInsurance, 1e-6)
	assert.InDelta(t, 275, analysis.MonthlyInsurance, 1e-6)
	assert.InDelta(t, 82500, analysis.TotalInsurance, 1e-6)

	assert.InDelta(t, 55000.0/12, analysis.MonthlyNetRent, 1e-9)
	assert.InDelta(t, 55000.0/12-analysis.MonthlyPayment-275, analysis.MonthlyCashflow, 1e-9)
}

func TestAnalyzeStressScenarios(t *testing.T) {
	analysis, err := NewAnalyzer(nil).Analyze(testutil.BaseMortgage(), 1000000, 30, 55000)
	require.NoError(t, err)

	scenarios := analysis.StressScenarios
	require.Len(t, scenarios, 4)

	expected := []struct {
		rate     float64
		payment  float64
		coverage float64
		status   StressStatus
	}{
		{4.5, 3334.99, 137.43, StressPositive},
		{5.5, 3684.52, 124.39, StressPositive},
		{6.5, 4051.24, 113.13, StressTight},
		{7.5, 4433.95, 103.37, StressTight},
	}
	for i, want := range expected {
		got := scenarios[i]
		assert.Equal(t, want.rate, got.Rate)
		assert.InDelta(t, want.payment, got.MonthlyPayment, 0.01)
		assert.InDelta(t, want.coverage, got.Coverage, 0.01)
		assert.Equal(t, want.status, got.Status)
		assert.InDelta(t, analysis.MonthlyNetRent-got.MonthlyPayment, got.NetCashflow, 1e-9)
	}
	assert.Equal(t, analysis.MonthlyPayment, scenarios[0].MonthlyPayment)
}

func TestStressTestNegativeCoverage(t *testing.T) {
	scenarios := StressTest(600000, 4.5, 300, 2000)
	for _, s := range scenarios {
		assert.Equal(t, StressNegative, s.Status)
		assert.Less(t, s.NetCashflow, 0.0)
	}
}

func TestClassifyCoverage(t *testing.T) {
	tests := []struct {
		coverage float64
		expected StressStatus
	}{
		{150, StressPositive},
		{120, StressPositive},
		{119.99, StressTight},
		{100, StressTight},
		{99.99, StressNegative},
		{0, StressNegative},
		{-20, StressNegative},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyCoverage(tt.coverage), "coverage %v", tt.coverage)
	}
}

func TestCoverageWithoutDebtService(t *testing.T) {
	assert.Equal(t, constants.UnboundedCoverage, Coverage(4000, 0))
	assert.Equal(t, StressPositive, ClassifyCoverage(Coverage(4000, 0)))
	assert.InDelta(t, 200, Coverage(4000, 2000), 1e-9)
}

func TestAnalyzeDisabled(t *testing.T) {
	m := testutil.BaseMortgage()
	m.Enabled = false

	_, err := NewAnalyzer(nil).Analyze(m, 1000000, 30, 55000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMortgageDisabled))
}

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	m := testutil.BaseMortgage()
	m.FinancingPercent = 120
	_, err := NewAnalyzer(nil).Analyze(m, 1000000, 30, 55000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, deal.ErrInvalidMortgage))

	_, err = NewAnalyzer(nil).Analyze(testutil.BaseMortgage(), 0, 30, 55000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, deal.ErrInvalidParams))

	_, err = NewAnalyzer(nil).Analyze(testutil.BaseMortgage(), 1000000, 130, 55000)
	require.Error(t, err)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	first, err := analyzer.Analyze(testutil.BaseMortgage(), 1000000, 30, 55000)
	require.NoError(t, err)
	second, err := analyzer.Analyze(testutil.BaseMortgage(), 1000000, 30, 55000)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
