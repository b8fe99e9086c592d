// Package exits quotes the outcome of selling a deal at an arbitrary
// elapsed month, during construction or after handover.
package exits

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/mathutil"
	"github.com/iwvelando/offplan-forecast/pkg/payments"
	"github.com/iwvelando/offplan-forecast/pkg/pricecurve"
)

// ErrNegativeExit is returned for exit points before booking.
var ErrNegativeExit = errors.New("exit month must not be negative")

// Costs are the transaction costs of selling.
type Costs struct {
	AgentCommissionPercent float64 `json:"agentCommissionPercent" yaml:"agentCommissionPercent"`
	NOCFee                 float64 `json:"nocFee" yaml:"nocFee"`
}

// Total returns the exit costs for a sale at exitPrice.
func (c Costs) Total(exitPrice float64) float64 {
	return mathutil.ApplyPercentage(exitPrice, c.AgentCommissionPercent) + c.NOCFee
}

func (c Costs) validate() error {
	if !isFinite(c.AgentCommissionPercent) || c.AgentCommissionPercent < 0 || c.AgentCommissionPercent > constants.PercentageMultiplier {
		return fmt.Errorf("%w: agent commission must be between 0 and 100, got %v", deal.ErrInvalidParams, c.AgentCommissionPercent)
	}
	if !isFinite(c.NOCFee) || c.NOCFee < 0 {
		return fmt.Errorf("%w: NOC fee must not be negative, got %v", deal.ErrInvalidParams, c.NOCFee)
	}
	return nil
}

// Scenario is the quote for one exit point.
type Scenario struct {
	Label          string  `json:"label,omitempty"`
	ExitMonths     float64 `json:"exitMonths"`
	ExitPrice      float64 `json:"exitPrice"`
	EquityDeployed float64 `json:"equityDeployed"`
	TotalCapital   float64 `json:"totalCapital"`
	Profit         float64 `json:"profit"`
	TrueProfit     float64 `json:"trueProfit"`
	ExitCosts      float64 `json:"exitCosts"`
	NetProfit      float64 `json:"netProfit"`
	ROE            float64 `json:"roe"`
	TrueROE        float64 `json:"trueRoe"`
	NetROE         float64 `json:"netRoe"`
	DisplayROE     float64 `json:"displayRoe"`
	AnnualizedROE  float64 `json:"annualizedRoe"`
	Speculative    bool    `json:"speculative"`
}

// Evaluator prices exits for one validated deal.
type Evaluator struct {
	params   deal.Params
	curve    *pricecurve.Curve
	resolver *payments.Resolver
}

// NewEvaluator validates the params and binds an evaluator to them.
func NewEvaluator(p deal.Params) (*Evaluator, error) {
	curve, err := pricecurve.New(p)
	if err != nil {
		return nil, err
	}
	resolver, err := payments.NewResolver(p)
	if err != nil {
		return nil, err
	}
	return &Evaluator{params: p, curve: curve, resolver: resolver}, nil
}

// Evaluate quotes a sale after exitMonths.
func (e *Evaluator) Evaluate(exitMonths, totalEntryCosts float64, costs Costs) (*Scenario, error) {
	if math.IsNaN(exitMonths) || math.IsInf(exitMonths, 0) {
		return nil, fmt.Errorf("%w: exit month must be finite", deal.ErrInvalidParams)
	}
	if exitMonths < 0 {
		return nil, fmt.Errorf("%w: got %v", ErrNegativeExit, exitMonths)
	}
	if !isFinite(totalEntryCosts) || totalEntryCosts < 0 {
		return nil, fmt.Errorf("%w: entry costs must not be negative, got %v", deal.ErrInvalidParams, totalEntryCosts)
	}
	if err := costs.validate(); err != nil {
		return nil, err
	}

	exitPrice, err := e.curve.Quote(exitMonths)
	if err != nil {
		return nil, err
	}

	s := &Scenario{
		ExitMonths:     exitMonths,
		ExitPrice:      exitPrice,
		EquityDeployed: e.resolver.EquityAt(exitMonths),
	}
	s.Profit = s.ExitPrice - e.params.BasePrice
	s.TrueProfit = s.Profit - totalEntryCosts
	s.TotalCapital = s.EquityDeployed + totalEntryCosts

	if s.EquityDeployed > 0 {
		s.ROE = mathutil.CalculatePercentage(s.Profit, s.EquityDeployed)
	}
	s.TrueROE = mathutil.CalculatePercentage(s.TrueProfit, s.TotalCapital)

	s.ExitCosts = costs.Total(s.ExitPrice)
	s.NetProfit = s.TrueProfit - s.ExitCosts
	s.NetROE = mathutil.CalculatePercentage(s.NetProfit, s.TotalCapital)

	if s.ExitCosts != 0 {
		s.DisplayROE = s.NetROE
	} else {
		s.DisplayROE = s.TrueROE
	}
	s.AnnualizedROE = Annualize(s.DisplayROE, exitMonths)

	horizonEnd := float64(e.params.TotalMonths() + e.params.Horizon()*constants.MonthsPerYear)
	s.Speculative = exitMonths > horizonEnd
	return s, nil
}

// Evaluate quotes a sale after exitMonths for the params in a single call.
func Evaluate(exitMonths float64, p deal.Params, totalEntryCosts float64, costs Costs) (*Scenario, error) {
	e, err := NewEvaluator(p)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(exitMonths, totalEntryCosts, costs)
}

// Annualize converts a holding-period return into a compound annual one.
// Exits at month zero and total losses annualize to the raw figure.
func Annualize(roePercent, months float64) float64 {
	if months <= 0 {
		return 0
	}
	growth := 1 + roePercent/constants.PercentageMultiplier
	if growth <= 0 {
		return roePercent
	}
	annualized := (math.Pow(growth, constants.MonthsPerYear/months) - 1) * constants.PercentageMultiplier
	if !isFinite(annualized) {
		return roePercent
	}
	return annualized
}

// Point is a labelled exit month.
type Point struct {
	Label  string  `json:"label" yaml:"label"`
	Months float64 `json:"months" yaml:"months"`
}

// DefaultPoints returns the standard exit points for a construction length:
// mid-construction, handover and one, three and five years after.
func DefaultPoints(totalMonths int) []Point {
	t := float64(totalMonths)
	return []Point{
		{Label: "Mid-construction", Months: math.Floor(t / 2)},
		{Label: "Handover", Months: t},
		{Label: "Handover +1y", Months: t + constants.MonthsPerYear},
		{Label: "Handover +3y", Months: t + 3*constants.MonthsPerYear},
		{Label: "Handover +5y", Months: t + 5*constants.MonthsPerYear},
	}
}

// EvaluatePoints quotes every point, labelling each scenario.
func (e *Evaluator) EvaluatePoints(points []Point, totalEntryCosts float64, costs Costs) ([]Scenario, error) {
	scenarios := make([]Scenario, 0, len(points))
	for _, point := range points {
		s, err := e.Evaluate(point.Months, totalEntryCosts, costs)
		if err != nil {
			return nil, fmt.Errorf("exit point %q: %w", point.Label, err)
		}
		s.Label = point.Label
		scenarios = append(scenarios, *s)
	}
	return scenarios, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
