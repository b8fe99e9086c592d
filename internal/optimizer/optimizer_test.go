package optimizer

import (
	"testing"

	"github.com/iwvelando/offplan-forecast/internal/config"
	"github.com/iwvelando/offplan-forecast/internal/forecast"
	"github.com/iwvelando/offplan-forecast/pkg/loans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func float(v float64) *float64 {
	return &v
}

func testScenario(name string, solvers ...config.SolverConfig) config.Scenario {
	return config.Scenario{
		Name:   name,
		Active: true,
		Deal: config.DealConfig{
			BasePrice:            1000000,
			DownpaymentPercent:   20,
			PreHandoverPercent:   30,
			BookingMonth:         1,
			BookingYear:          2025,
			HandoverMonth:        1,
			HandoverYear:         2027,
			OqoodFee:             5000,
			AppreciationRate:     float(10),
			RentalYieldPercent:   float(7),
			ServiceChargePerSqft: 15,
			UnitSizeSqft:         1000,
		},
		Mortgage: &config.MortgageConfig{
			Enabled:          true,
			FinancingPercent: 60,
			LoanTermYears:    25,
			InterestRate:     4.5,
		},
		Solvers: solvers,
	}
}

func TestNewRunnerRequiresConfiguration(t *testing.T) {
	_, err := NewRunner(nil, nil)
	require.Error(t, err)

	runner, err := NewRunner(nil, &config.Configuration{})
	require.NoError(t, err)
	require.NotNil(t, runner.logger)
}

func TestRunWithoutSolvers(t *testing.T) {
	conf := &config.Configuration{Scenarios: []config.Scenario{testScenario("Plain")}}
	runner, err := NewRunner(zaptest.NewLogger(t), conf)
	require.NoError(t, err)

	result, err := runner.Run()
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestBreakEvenRate(t *testing.T) {
	conf := &config.Configuration{Scenarios: []config.Scenario{
		testScenario("Financed", config.SolverConfig{Kind: "breakEvenRate"}),
	}}
	runner, err := NewRunner(zaptest.NewLogger(t), conf)
	require.NoError(t, err)

	result, err := runner.Run()
	require.NoError(t, err)
	require.Len(t, result.Summaries["Financed"], 1)

	summary := result.Summaries["Financed"][0]
	assert.Equal(t, config.SolverKindBreakEvenRate, summary.Kind)
	assert.Equal(t, fieldInterestRate, summary.Field)
	assert.Equal(t, 0.0, summary.Lower)
	assert.Equal(t, 20.0, summary.Upper)
	assert.Equal(t, "Financed", summary.Scenario)
	assert.Equal(t, 4.5, summary.Original)
	assert.True(t, summary.Converged)
	assert.Equal(t, 15, summary.Iterations)
	assert.InDelta(t, 7.8796, summary.Value, 0.001)
	assert.Equal(t, "7.88%", summary.ValueDisplay)
	assert.Empty(t, summary.Notes)

	// Rent still covers the payment at the solved rate.
	payment := loans.CalculateMonthlyPayment(600000, 0, summary.Value, 300)
	assert.GreaterOrEqual(t, loans.Coverage(55000.0/12, payment), 100.0)
}

func TestBreakEvenRateBounds(t *testing.T) {
	tests := []struct {
		name      string
		min, max  float64
		expected  float64
		converged bool
	}{
		{"Rent never covers", 9, 15, 9, false},
		{"Rent always covers", 0, 5, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &config.Configuration{Scenarios: []config.Scenario{
				testScenario("Bounded", config.SolverConfig{Kind: "breakEvenRate", Min: float(tt.min), Max: float(tt.max)}),
			}}
			runner, err := NewRunner(nil, conf)
			require.NoError(t, err)

			result, err := runner.Run()
			require.NoError(t, err)
			summary := result.Summaries["Bounded"][0]
			assert.Equal(t, tt.expected, summary.Value)
			assert.Equal(t, tt.converged, summary.Converged)
			assert.Len(t, summary.Notes, 1)
		})
	}
}

func TestBreakEvenRateWithoutMortgage(t *testing.T) {
	scenario := testScenario("Cash", config.SolverConfig{Kind: "breakEvenRate"})
	scenario.Mortgage = nil
	conf := &config.Configuration{Scenarios: []config.Scenario{scenario}}

	runner, err := NewRunner(nil, conf)
	require.NoError(t, err)
	result, err := runner.Run()
	require.NoError(t, err)

	summary := result.Summaries["Cash"][0]
	assert.False(t, summary.Converged)
	assert.Equal(t, []string{"scenario has no enabled mortgage"}, summary.Notes)
}

func TestTargetROE(t *testing.T) {
	conf := &config.Configuration{Scenarios: []config.Scenario{
		testScenario("Flip", config.SolverConfig{Kind: "targetROE", TargetROE: 10}),
	}}
	runner, err := NewRunner(nil, conf)
	require.NoError(t, err)

	result, err := runner.Run()
	require.NoError(t, err)
	summary := result.Summaries["Flip"][0]

	assert.True(t, summary.Converged)
	assert.Equal(t, 5.0, summary.Value)
	assert.Equal(t, "2025-06 (month 5)", summary.ValueDisplay)
	assert.Equal(t, 24.0, summary.Original)
	assert.Equal(t, "2027-01 (month 24)", summary.OriginalDisplay)
	assert.Equal(t, 6, summary.Iterations)
}

func TestTargetROEUnreachable(t *testing.T) {
	conf := &config.Configuration{Scenarios: []config.Scenario{
		testScenario("Moonshot", config.SolverConfig{Kind: "targetROE", TargetROE: 10000, MaxMonths: 60}),
	}}
	runner, err := NewRunner(nil, conf)
	require.NoError(t, err)

	result, err := runner.Run()
	require.NoError(t, err)
	summary := result.Summaries["Moonshot"][0]
	assert.False(t, summary.Converged)
	assert.Equal(t, 61, summary.Iterations)
	assert.Len(t, summary.Notes, 1)
}

func TestRunRejectsInvalidSolver(t *testing.T) {
	conf := &config.Configuration{Scenarios: []config.Scenario{
		testScenario("Broken", config.SolverConfig{Kind: "targetROE"}),
	}}
	runner, err := NewRunner(nil, conf)
	require.NoError(t, err)

	_, err = runner.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario Broken solver 1")
}

func TestRunSkipsInactiveScenarios(t *testing.T) {
	scenario := testScenario("Inactive", config.SolverConfig{Kind: "mystery"})
	scenario.Active = false
	conf := &config.Configuration{Scenarios: []config.Scenario{scenario}}

	runner, err := NewRunner(nil, conf)
	require.NoError(t, err)
	result, err := runner.Run()
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestResultApply(t *testing.T) {
	conf := &config.Configuration{Scenarios: []config.Scenario{
		testScenario("Flip", config.SolverConfig{Kind: "targetROE", TargetROE: 10}),
		testScenario("Other"),
	}}

	forecasts, err := forecast.GetForecast(nil, *conf)
	require.NoError(t, err)

	runner, err := NewRunner(nil, conf)
	require.NoError(t, err)
	result, err := runner.Run()
	require.NoError(t, err)

	result.Apply(forecasts)
	require.Len(t, forecasts, 2)
	assert.Len(t, forecasts[0].Optimizations, 1)
	assert.Empty(t, forecasts[1].Optimizations)
}
