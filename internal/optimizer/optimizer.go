package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/offplan-forecast/internal/config"
	"github.com/iwvelando/offplan-forecast/internal/forecast"
	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/datetime"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/exits"
	"github.com/iwvelando/offplan-forecast/pkg/loans"
	"github.com/iwvelando/offplan-forecast/pkg/mathutil"
	"github.com/iwvelando/offplan-forecast/pkg/optimization"
	"go.uber.org/zap"
)

const (
	fieldInterestRate = "interestRate"
	fieldExitMonths   = "exitMonths"
)

type Runner struct {
	logger *zap.Logger
	conf   *config.Configuration
}

type solverTarget struct {
	scenario config.Scenario
	solver   *config.SolverConfig
}

// Result summarizes solver outcomes keyed by scenario name.
type Result struct {
	Summaries map[string][]optimization.Summary
}

// Empty indicates whether any solver summaries were produced.
func (r Result) Empty() bool {
	return len(r.Summaries) == 0
}

// Apply attaches solver summaries to the provided forecast results.
func (r Result) Apply(forecasts []forecast.Forecast) {
	if len(r.Summaries) == 0 {
		return
	}
	for i := range forecasts {
		summaries, ok := r.Summaries[forecasts[i].Name]
		if !ok {
			continue
		}
		forecasts[i].Optimizations = append(forecasts[i].Optimizations, summaries...)
	}
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, conf: conf}, nil
}

// Run executes all solver directives of the active scenarios.
func (r *Runner) Run() (*Result, error) {
	targets, err := r.collectTargets()
	if err != nil {
		return nil, err
	}

	summaries := make(map[string][]optimization.Summary)
	for _, target := range targets {
		var summary optimization.Summary
		switch target.solver.Kind {
		case config.SolverKindBreakEvenRate:
			summary, err = r.solveBreakEvenRate(target)
		case config.SolverKindTargetROE:
			summary, err = r.solveTargetROE(target)
		default:
			err = fmt.Errorf("solver kind %q is not supported", target.solver.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", target.scenario.Name, err)
		}
		summaries[target.scenario.Name] = append(summaries[target.scenario.Name], summary)

		r.logger.Info("solver finished",
			zap.String("op", "optimizer.Run"),
			zap.String("scenario", target.scenario.Name),
			zap.String("kind", summary.Kind),
			zap.Float64("original", summary.Original),
			zap.Float64("value", summary.Value),
			zap.String("valueDisplay", summary.ValueDisplay),
			zap.Int("iterations", summary.Iterations),
			zap.Bool("converged", summary.Converged),
		)
	}

	return &Result{Summaries: summaries}, nil
}

func (r *Runner) collectTargets() ([]solverTarget, error) {
	var targets []solverTarget
	for i := range r.conf.Scenarios {
		scenario := r.conf.Scenarios[i]
		if !scenario.Active {
			continue
		}
		for j := range scenario.Solvers {
			solver := &scenario.Solvers[j]
			if err := solver.Validate(); err != nil {
				return nil, fmt.Errorf("scenario %s solver %d: %w", scenario.Name, j+1, err)
			}
			targets = append(targets, solverTarget{scenario: scenario, solver: solver})
		}
	}
	return targets, nil
}

// solveBreakEvenRate bisects for the highest interest rate at which monthly
// net rent still covers the mortgage payment.
func (r *Runner) solveBreakEvenRate(target solverTarget) (optimization.Summary, error) {
	cfg := target.solver
	p := target.scenario.Deal.ToParams()
	if err := p.Validate(); err != nil {
		return optimization.Summary{}, err
	}

	summary := optimization.Summary{
		Scenario: target.scenario.Name,
		Kind:     cfg.Kind,
		Field:    fieldInterestRate,
		Lower:    *cfg.Min,
		Upper:    *cfg.Max,
		Target:   constants.StressTightCoverage,
	}

	mortgageConfig := r.conf.MortgageFor(target.scenario)
	if mortgageConfig == nil || !mortgageConfig.Enabled {
		summary.Notes = []string{"scenario has no enabled mortgage"}
		return summary, nil
	}
	m := mortgageConfig.ToMortgage()
	if err := m.Validate(); err != nil {
		return optimization.Summary{}, err
	}
	summary.Original = m.InterestRate
	summary.OriginalDisplay = formatRate(m.InterestRate)

	loan := mathutil.ApplyPercentage(p.BasePrice, m.FinancingPercent)
	monthlyRent := p.AnnualNetRent() / constants.MonthsPerYear
	coverageAt := func(rate float64) float64 {
		payment := loans.CalculateMonthlyPayment(loan, 0, rate, m.TermMonths())
		return loans.Coverage(monthlyRent, payment)
	}
	covered := func(rate float64) bool {
		return coverageAt(rate) >= constants.StressTightCoverage
	}

	lower, upper := *cfg.Min, *cfg.Max
	switch {
	case !covered(lower):
		summary.Value = lower
		summary.ValueDisplay = formatRate(lower)
		summary.Notes = []string{fmt.Sprintf("rent does not cover the payment even at %s", formatRate(lower))}
		return summary, nil
	case covered(upper):
		summary.Value = upper
		summary.ValueDisplay = formatRate(upper)
		summary.Converged = true
		summary.Notes = []string{fmt.Sprintf("rent covers the payment at every rate up to %s", formatRate(upper))}
		return summary, nil
	}

	iterations := 0
	for iterations < cfg.MaxIterations && math.Abs(upper-lower) > cfg.Tolerance {
		mid := (lower + upper) / 2
		if covered(mid) {
			lower = mid
		} else {
			upper = mid
		}
		iterations++
	}

	summary.Value = lower
	summary.ValueDisplay = formatRate(lower)
	summary.Iterations = iterations
	summary.Converged = math.Abs(upper-lower) <= cfg.Tolerance
	if !summary.Converged {
		summary.Notes = append(summary.Notes, fmt.Sprintf("stopped after %d iterations", iterations))
	}
	if lower < m.InterestRate {
		summary.Notes = append(summary.Notes, "configured rate is already above break-even")
	}
	return summary, nil
}

// solveTargetROE scans whole months from booking for the earliest exit
// whose headline ROE reaches the target.
func (r *Runner) solveTargetROE(target solverTarget) (optimization.Summary, error) {
	cfg := target.solver
	p := target.scenario.Deal.ToParams()
	evaluator, err := exits.NewEvaluator(p)
	if err != nil {
		return optimization.Summary{}, err
	}
	costs := r.conf.ExitCostsFor(target.scenario)
	totalMonths := p.TotalMonths()

	summary := optimization.Summary{
		Scenario:        target.scenario.Name,
		Kind:            cfg.Kind,
		Field:           fieldExitMonths,
		Upper:           float64(cfg.MaxMonths),
		Original:        float64(totalMonths),
		OriginalDisplay: formatMonth(p, totalMonths),
		Target:          cfg.TargetROE,
	}

	for month := 0; month <= cfg.MaxMonths; month++ {
		scenario, err := evaluator.Evaluate(float64(month), p.EntryCosts(), costs)
		if err != nil {
			return optimization.Summary{}, err
		}
		summary.Iterations++
		if scenario.DisplayROE >= cfg.TargetROE {
			summary.Value = float64(month)
			summary.ValueDisplay = formatMonth(p, month)
			summary.Converged = true
			if scenario.Speculative {
				summary.Notes = append(summary.Notes, "target is only reached beyond the projection horizon")
			}
			return summary, nil
		}
	}

	summary.Value = float64(cfg.MaxMonths)
	summary.ValueDisplay = formatMonth(p, cfg.MaxMonths)
	summary.Notes = []string{fmt.Sprintf("ROE of %.2f%% is not reached within %d months", cfg.TargetROE, cfg.MaxMonths)}
	return summary, nil
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate)
}

func formatMonth(p deal.Params, elapsed int) string {
	return fmt.Sprintf("%s (month %d)", datetime.MonthLabel(p.BookingMonth, p.BookingYear, elapsed), elapsed)
}
