package pricecurve

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandoverPriceCompoundsOverConstruction(t *testing.T) {
	p := testutil.BaseParams()

	price, err := HandoverPrice(p)
	require.NoError(t, err)
	// 10% CAGR over 24 months: 1,000,000 * 1.1^2
	assert.InDelta(t, 1210000, price, 1e-6)

	atHandover, err := PriceAt(24, p)
	require.NoError(t, err)
	assert.InDelta(t, price, atHandover, 1e-6)
}

func TestPriceAtConstructionPowerCurve(t *testing.T) {
	p := testutil.BaseParams()
	curve, err := New(p)
	require.NoError(t, err)

	assert.Equal(t, 1000000.0, curve.PriceAt(0))
	assert.Equal(t, 1000000.0, curve.PriceAt(-6))

	expected := 1000000 + 210000*math.Pow(0.5, 0.7)
	assert.InDelta(t, expected, curve.PriceAt(12), 1e-6)

	// Sub-linear exponent front-loads appreciation.
	assert.Greater(t, curve.PriceAt(12), 1105000.0)
}

func TestPriceAtPostHandoverPhases(t *testing.T) {
	p := testutil.BaseParams()
	curve, err := New(p)
	require.NoError(t, err)

	handover := curve.HandoverPrice()

	assert.InDelta(t, handover*1.08, curve.PriceAt(36), 1e-6)
	assert.InDelta(t, handover*math.Pow(1.08, 1.5), curve.PriceAt(42), 1e-6)

	atMaturity := handover * math.Pow(1.08, 5)
	assert.InDelta(t, atMaturity, curve.PriceAt(24+60), 1e-6)
	assert.InDelta(t, atMaturity*math.Pow(1.04, 2), curve.PriceAt(24+84), 1e-6)

	// Far beyond the horizon the mature rate keeps compounding.
	assert.InDelta(t, atMaturity*math.Pow(1.04, 45), curve.PriceAt(24+600), 1e-3)
}

func TestPhaseAt(t *testing.T) {
	curve, err := New(testutil.BaseParams())
	require.NoError(t, err)

	assert.Equal(t, PhaseConstruction, curve.PhaseAt(0))
	assert.Equal(t, PhaseConstruction, curve.PhaseAt(23))
	assert.Equal(t, PhaseGrowth, curve.PhaseAt(24))
	assert.Equal(t, PhaseGrowth, curve.PhaseAt(83))
	assert.Equal(t, PhaseMature, curve.PhaseAt(84))
}

func TestPriceAtMonotonic(t *testing.T) {
	for _, p := range []deal.Params{testutil.BaseParams(), testutil.InstallmentParams()} {
		curve, err := New(p)
		require.NoError(t, err)

		previous := 0.0
		for m := 0.0; m <= 200; m += 0.25 {
			price := curve.PriceAt(m)
			assert.GreaterOrEqual(t, price, previous, "month %v", m)
			previous = price
		}
	}
}

func TestPriceAtZeroGrowthPeriod(t *testing.T) {
	p := testutil.BaseParams()
	p.GrowthPeriodYears = 0

	curve, err := New(p)
	require.NoError(t, err)
	assert.InDelta(t, curve.HandoverPrice()*1.04, curve.PriceAt(36), 1e-6)
	assert.Equal(t, PhaseMature, curve.PhaseAt(24))
}

func TestPriceAtIsPure(t *testing.T) {
	p := testutil.InstallmentParams()
	first, err := PriceAt(29.5, p)
	require.NoError(t, err)
	second, err := PriceAt(29.5, p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPriceAtRejectsInvalidParams(t *testing.T) {
	p := testutil.BaseParams()
	p.BasePrice = 0
	_, err := PriceAt(12, p)
	require.Error(t, err)
}

func TestPriceAtOverflow(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *deal.Params)
		months  float64
		wantErr bool
	}{
		{"fifty years past handover", func(p *deal.Params) {}, 24 + 600, false},
		{"a million months", func(p *deal.Params) {}, 1e6, true},
		{"growth overflows within the horizon", func(p *deal.Params) { p.GrowthAppreciationRate = 1e100 }, 36, true},
		{"construction overflows", func(p *deal.Params) { p.AppreciationRate = 1e200 }, 12, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.BaseParams()
			tt.mutate(&p)

			price, err := PriceAt(tt.months, p)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, deal.ErrInvalidParams), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.False(t, math.IsInf(price, 0))
			assert.False(t, math.IsNaN(price))
		})
	}
}

func TestQuoteMatchesPriceAt(t *testing.T) {
	curve, err := New(testutil.BaseParams())
	require.NoError(t, err)

	for _, m := range []float64{0, 12, 24, 84, 300} {
		quoted, err := curve.Quote(m)
		require.NoError(t, err)
		assert.Equal(t, curve.PriceAt(m), quoted)
	}
}

func TestPhaseMatchesPricingAtBoundaries(t *testing.T) {
	p := testutil.BaseParams()
	curve, err := New(p)
	require.NoError(t, err)

	handover := curve.HandoverPrice()
	// At handover the curve is already in the growth regime.
	assert.Equal(t, PhaseGrowth, curve.PhaseAt(24))
	assert.Equal(t, handover, curve.PriceAt(24))

	// At the end of the growth period the mature regime starts at the same value.
	assert.Equal(t, PhaseMature, curve.PhaseAt(84))
	assert.InDelta(t, handover*math.Pow(1.08, 5), curve.PriceAt(84), 1e-6)
	assert.InDelta(t, curve.PriceAt(84)*1.04, curve.PriceAt(96), 1e-6)
}
