// Package pricecurve maps elapsed months since booking to property value.
// The projection engine and the exit evaluator both price through this
// package so their figures always agree.
package pricecurve

import (
	"fmt"
	"math"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/mathutil"
)

// Phase names an appreciation regime.
type Phase string

const (
	PhaseConstruction Phase = "construction"
	PhaseGrowth       Phase = "growth"
	PhaseMature       Phase = "mature"
)

// Curve is a price curve bound to one set of deal params.
type Curve struct {
	basePrice     float64
	handoverPrice float64
	totalMonths   float64
	growthRate    float64
	matureRate    float64
	growthYears   float64
}

// New validates the params and binds a curve to them.
func New(p deal.Params) (*Curve, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := newCurve(p)
	horizonEnd := c.totalMonths + float64(p.Horizon()*constants.MonthsPerYear)
	if !finite(c.handoverPrice) || !finite(c.PriceAt(horizonEnd)) {
		return nil, fmt.Errorf("%w: appreciation overflows before the end of the %d-year horizon",
			deal.ErrInvalidParams, p.Horizon())
	}
	return c, nil
}

func newCurve(p deal.Params) *Curve {
	totalMonths := float64(p.TotalMonths())
	return &Curve{
		basePrice:     p.BasePrice,
		handoverPrice: mathutil.Compound(p.BasePrice, p.AppreciationRate, totalMonths/constants.MonthsPerYear),
		totalMonths:   totalMonths,
		growthRate:    p.GrowthAppreciationRate,
		matureRate:    p.MatureAppreciationRate,
		growthYears:   p.GrowthPeriodYears,
	}
}

// HandoverPrice is the value on completion.
func (c *Curve) HandoverPrice() float64 {
	return c.handoverPrice
}

// TotalMonths is the construction duration the curve was built for.
func (c *Curve) TotalMonths() float64 {
	return c.totalMonths
}

// PriceAt returns the property value after elapsedMonths. Values before
// booking are the purchase price.
func (c *Curve) PriceAt(elapsedMonths float64) float64 {
	if elapsedMonths <= 0 {
		return c.basePrice
	}
	if elapsedMonths < c.totalMonths {
		progress := math.Pow(elapsedMonths/c.totalMonths, constants.PriceCurveExponent)
		return c.basePrice + (c.handoverPrice-c.basePrice)*progress
	}

	yearsAfter := (elapsedMonths - c.totalMonths) / constants.MonthsPerYear
	if yearsAfter < c.growthYears {
		return mathutil.Compound(c.handoverPrice, c.growthRate, yearsAfter)
	}
	atMaturity := mathutil.Compound(c.handoverPrice, c.growthRate, c.growthYears)
	return mathutil.Compound(atMaturity, c.matureRate, yearsAfter-c.growthYears)
}

// Quote is PriceAt for callers that may ask for months far past the
// horizon. Values that overflow are reported as invalid params.
func (c *Curve) Quote(elapsedMonths float64) (float64, error) {
	price := c.PriceAt(elapsedMonths)
	if !finite(price) {
		return 0, fmt.Errorf("%w: property value after %.0f months is not representable", deal.ErrInvalidParams, elapsedMonths)
	}
	return price, nil
}

// PhaseAt classifies the appreciation regime in force at elapsedMonths.
func (c *Curve) PhaseAt(elapsedMonths float64) Phase {
	if elapsedMonths < c.totalMonths {
		return PhaseConstruction
	}
	if (elapsedMonths-c.totalMonths)/constants.MonthsPerYear < c.growthYears {
		return PhaseGrowth
	}
	return PhaseMature
}

// PriceAt evaluates the curve for the params in a single call.
func PriceAt(elapsedMonths float64, p deal.Params) (float64, error) {
	curve, err := New(p)
	if err != nil {
		return 0, err
	}
	return curve.Quote(elapsedMonths)
}

// HandoverPrice returns the completion value for the params.
func HandoverPrice(p deal.Params) (float64, error) {
	curve, err := New(p)
	if err != nil {
		return 0, err
	}
	return curve.HandoverPrice(), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
