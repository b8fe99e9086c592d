package projection

import (
	"errors"
	"testing"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/payments"
	"github.com/iwvelando/offplan-forecast/pkg/pricecurve"
	"github.com/iwvelando/offplan-forecast/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewEngineNilLogger(t *testing.T) {
	engine := NewEngine(nil)
	require.NotNil(t, engine)
	require.NotNil(t, engine.logger)
}

func TestProjectFullYearHandover(t *testing.T) {
	engine := NewEngine(zaptest.NewLogger(t))

	result, err := engine.Project(testutil.BaseParams())
	require.NoError(t, err)
	require.Len(t, result.Years, 12)

	assert.Equal(t, 2025, result.Years[0].Year)
	assert.Equal(t, 2036, result.Years[len(result.Years)-1].Year)

	construction := result.Years[0]
	assert.Nil(t, construction.NetIncome)
	assert.Equal(t, 0, construction.MonthsActive)
	assert.Equal(t, pricecurve.PhaseConstruction, construction.Phase)
	assert.InDelta(t, 200000, construction.EquityDeployed, 1e-6)

	handover := result.Years[2]
	assert.Equal(t, 2027, handover.Year)
	assert.True(t, handover.IsHandover)
	assert.False(t, handover.IsPartial())
	assert.Equal(t, 12, handover.MonthsActive)
	assert.Equal(t, pricecurve.PhaseGrowth, handover.Phase)
	require.NotNil(t, handover.NetIncome)
	assert.InDelta(t, 55000, *handover.NetIncome, 1e-6)
	assert.InDelta(t, 1000000, handover.EquityDeployed, 1e-6)

	for _, y := range result.Years {
		if y.Year != 2027 {
			assert.False(t, y.IsHandover, "year %d", y.Year)
		}
		assert.Nil(t, y.AirbnbNetIncome)
	}

	summary := result.Summary
	assert.InDelta(t, 1210000, summary.HandoverPrice, 1e-6)
	assert.InDelta(t, 1045000, summary.TotalCapitalInvested, 1e-6)
	assert.Equal(t, 2027, summary.FirstFullYear)
	assert.InDelta(t, 55000, summary.FirstFullYearNetIncome, 1e-6)
	assert.InDelta(t, 55000.0/1045000*100, summary.RentalYieldOnInvestment, 1e-9)
	assert.InDelta(t, 19.0, summary.YearsToPayOff, 1e-9)
	assert.InDelta(t, 550000, summary.TotalNetIncome, 1e-6)
	assert.InDelta(t, 55000, summary.AverageFullYearNetIncome, 1e-6)
	assert.Equal(t, 0, summary.BreakEvenYear)
	assert.Equal(t, constants.NeverPaysOff, summary.AirbnbYearsToPayOff)
}

func TestProjectPartialHandoverYear(t *testing.T) {
	engine := NewEngine(zaptest.NewLogger(t))

	result, err := engine.Project(testutil.InstallmentParams())
	require.NoError(t, err)
	require.Len(t, result.Years, 14)

	byYear := make(map[int]Year, len(result.Years))
	for _, y := range result.Years {
		byYear[y.Year] = y
	}

	handover := byYear[2027]
	assert.True(t, handover.IsHandover)
	assert.True(t, handover.IsPartial())
	assert.Equal(t, 6, handover.MonthsActive)
	require.NotNil(t, handover.NetIncome)
	assert.InDelta(t, 27500, *handover.NetIncome, 1e-6)
	require.NotNil(t, handover.AirbnbNetIncome)
	assert.InDelta(t, 66430, *handover.AirbnbNetIncome, 1e-6)

	full := byYear[2028]
	assert.Equal(t, 12, full.MonthsActive)
	assert.InDelta(t, 55000, *full.NetIncome, 1e-6)

	last := byYear[2037]
	assert.Equal(t, 6, last.MonthsActive)
	assert.InDelta(t, 27500, *last.NetIncome, 1e-6)

	assert.Equal(t, 2028, result.Summary.FirstFullYear)
	assert.InDelta(t, 55000, result.Summary.FirstFullYearNetIncome, 1e-6)
	// Ten years of income split across eleven calendar years.
	assert.InDelta(t, 550000, result.Summary.TotalNetIncome, 1e-6)
}

func TestProjectAirbnbBreakEven(t *testing.T) {
	engine := NewEngine(nil)

	result, err := engine.Project(testutil.InstallmentParams())
	require.NoError(t, err)

	flagged := 0
	for _, y := range result.Years {
		if y.IsAirbnbBreakEven {
			flagged++
			assert.Equal(t, 2035, y.Year)
			assert.GreaterOrEqual(t, y.AirbnbCumulativeNetIncome, result.Summary.TotalCapitalInvested)
		}
	}
	assert.Equal(t, 1, flagged)
	assert.Equal(t, 2035, result.Summary.AirbnbBreakEvenYear)
	assert.InDelta(t, 132860, result.Summary.AirbnbFirstFullYearNetIncome, 1e-6)
	assert.InDelta(t, 1045000.0/132860, result.Summary.AirbnbYearsToPayOff, 1e-9)
}

func TestProjectBreakEvenFlaggedOnce(t *testing.T) {
	p := testutil.BaseParams()
	p.RentalYieldPercent = 40
	p.HorizonYears = 8

	result, err := NewEngine(nil).Project(p)
	require.NoError(t, err)

	var flagged []int
	for _, y := range result.Years {
		if y.IsBreakEven {
			flagged = append(flagged, y.Year)
		}
	}
	// 385,000 a year against 1,045,000 of capital crosses in the third year.
	require.Equal(t, []int{2029}, flagged)
	assert.Equal(t, 2029, result.Summary.BreakEvenYear)
}

func TestProjectBreakEvenUsesFullCapital(t *testing.T) {
	p := testutil.BaseParams()
	p.RentalYieldPercent = 40
	p.HorizonYears = 8

	result, err := NewEngine(nil).Project(p)
	require.NoError(t, err)

	// 1,000,000 of tranches plus 40,000 DLD and 5,000 Oqood.
	assert.InDelta(t, 1045000, result.Summary.TotalCapitalInvested, 1e-6)
	assert.InDelta(t, p.BasePrice+p.EntryCosts(), result.Summary.TotalCapitalInvested, 1e-6)

	// The 345,000 paid before handover is recovered in the handover year;
	// the full capital is only recovered in the third income year.
	byYear := make(map[int]Year, len(result.Years))
	for _, y := range result.Years {
		byYear[y.Year] = y
	}
	assert.GreaterOrEqual(t, byYear[2027].CumulativeNetIncome, 345000.0)
	assert.False(t, byYear[2027].IsBreakEven)
	assert.Less(t, byYear[2028].CumulativeNetIncome, 1045000.0)
	assert.True(t, byYear[2029].IsBreakEven)
	assert.Equal(t, 2029, result.Summary.BreakEvenYear)
}

func TestProjectNonPositiveRentNeverPaysOff(t *testing.T) {
	p := testutil.BaseParams()
	p.RentalYieldPercent = 1
	p.ServiceChargePerSqft = 20

	result, err := NewEngine(nil).Project(p)
	require.NoError(t, err)
	assert.Less(t, result.Summary.FirstFullYearNetIncome, 0.0)
	assert.Equal(t, constants.NeverPaysOff, result.Summary.YearsToPayOff)
}

func TestProjectCumulativeNeverDecreasesWithPositiveRent(t *testing.T) {
	result, err := NewEngine(nil).Project(testutil.InstallmentParams())
	require.NoError(t, err)

	previous := 0.0
	for _, y := range result.Years {
		assert.GreaterOrEqual(t, y.CumulativeNetIncome, previous)
		previous = y.CumulativeNetIncome
	}
}

func TestProjectAgreesWithCurveAndEquity(t *testing.T) {
	for _, p := range []deal.Params{testutil.BaseParams(), testutil.InstallmentParams()} {
		result, err := NewEngine(nil).Project(p)
		require.NoError(t, err)

		for _, y := range result.Years {
			price, err := pricecurve.PriceAt(y.ElapsedMonths, p)
			require.NoError(t, err)
			assert.Equal(t, price, y.PropertyValue, "year %d", y.Year)

			equity, err := payments.EquityDeployedAt(y.ElapsedMonths, p)
			require.NoError(t, err)
			assert.Equal(t, equity, y.EquityDeployed, "year %d", y.Year)
		}
	}
}

func TestProjectQuarterHandover(t *testing.T) {
	p := testutil.BaseParams()
	p.HandoverMonth = 0
	p.HandoverQuarter = 2

	result, err := NewEngine(nil).Project(p)
	require.NoError(t, err)

	for _, y := range result.Years {
		if y.IsHandover {
			assert.Equal(t, 2027, y.Year)
			// Q2 resolves to June, 29 months after booking.
			assert.Equal(t, 7, y.MonthsActive)
		}
	}
}

func TestProjectRejectsInvalidParams(t *testing.T) {
	p := testutil.BaseParams()
	p.PreHandoverPercent = 10

	_, err := NewEngine(nil).Project(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, deal.ErrInvalidParams))
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd float64
		expected                   int
	}{
		{"Disjoint before", 0, 12, 24, 36, 0},
		{"Touching", 12, 24, 24, 36, 0},
		{"Contained", 24, 36, 24, 144, 12},
		{"Partial start", 30, 42, 36, 156, 6},
		{"Partial end", 150, 162, 36, 156, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, overlap(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}
