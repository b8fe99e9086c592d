// Package forecast defines the data structures related to a given forecast and
// includes functions for computing the forecasts.
package forecast

import (
	"errors"
	"fmt"

	"github.com/iwvelando/offplan-forecast/internal/config"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/exits"
	"github.com/iwvelando/offplan-forecast/pkg/loans"
	"github.com/iwvelando/offplan-forecast/pkg/optimization"
	"github.com/iwvelando/offplan-forecast/pkg/payments"
	"github.com/iwvelando/offplan-forecast/pkg/projection"
	"github.com/iwvelando/offplan-forecast/pkg/validation"
	"go.uber.org/zap"
)

// Forecast holds all information related to a specific forecast.
type Forecast struct {
	Name          string                 `json:"name"`
	Currency      string                 `json:"currency"`
	Params        deal.Params            `json:"params"`
	Schedule      []payments.Event       `json:"schedule"`
	EquityByMonth []float64              `json:"equityByMonth"`
	Projection    *projection.Result     `json:"projection"`
	Mortgage      *loans.Analysis        `json:"mortgage,omitempty"`
	Exits         []exits.Scenario       `json:"exits"`
	Warnings      []string               `json:"warnings,omitempty"`
	Optimizations []optimization.Summary `json:"optimizations,omitempty"`
}

// GetForecast processes the Forecasts for all active Scenarios.
func GetForecast(logger *zap.Logger, conf config.Configuration) ([]Forecast, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var results []Forecast
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "forecast.GetForecast"),
			)
			continue
		}

		result, err := Compute(logger, conf, scenario)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		results = append(results, *result)
	}

	return results, nil
}

// Compute runs every calculation for a single scenario.
func Compute(logger *zap.Logger, conf config.Configuration, scenario config.Scenario) (*Forecast, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := scenario.Deal.ToParams()
	result := &Forecast{
		Name:     scenario.Name,
		Currency: conf.CurrencyCode(),
		Params:   p,
	}

	schedule, err := payments.Schedule(p)
	if err != nil {
		return nil, err
	}
	result.Schedule = schedule

	result.EquityByMonth, err = payments.Timeline(p)
	if err != nil {
		return nil, err
	}

	result.Projection, err = projection.NewEngine(logger).Project(p)
	if err != nil {
		return nil, err
	}

	var mortgage deal.Mortgage
	if m := conf.MortgageFor(scenario); m != nil {
		mortgage = m.ToMortgage()
	}
	analysis, err := loans.NewAnalyzer(logger).Analyze(mortgage, p.BasePrice, p.PreHandoverPercent, p.AnnualNetRent())
	switch {
	case errors.Is(err, loans.ErrMortgageDisabled):
		logger.Debug(fmt.Sprintf("scenario %s has no mortgage", scenario.Name),
			zap.String("op", "forecast.Compute"),
		)
	case err != nil:
		return nil, err
	default:
		result.Mortgage = analysis
	}

	evaluator, err := exits.NewEvaluator(p)
	if err != nil {
		return nil, err
	}
	points := conf.ExitPointsFor(scenario, p.TotalMonths())
	result.Exits, err = evaluator.EvaluatePoints(points, p.EntryCosts(), conf.ExitCostsFor(scenario))
	if err != nil {
		return nil, err
	}

	pv := validation.PlanValidator{
		Params:     p,
		Mortgage:   mortgage,
		ExitPoints: points,
		Analysis:   result.Mortgage,
	}
	result.Warnings = pv.ValidateAll()
	for _, warning := range result.Warnings {
		logger.Debug("plan warning: "+warning,
			zap.String("op", "forecast.Compute"),
			zap.String("scenario", scenario.Name),
		)
	}

	return result, nil
}

// FindScenario returns the forecast with the given name.
func FindScenario(results []Forecast, name string) (*Forecast, bool) {
	for i := range results {
		if results[i].Name == name {
			return &results[i], true
		}
	}
	return nil, false
}
