// Package projection simulates a deal year by year across construction and
// the post-handover horizon: property value, long-term and short-term
// rental income, cumulative income and break-even.
package projection

import (
	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/datetime"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/mathutil"
	"github.com/iwvelando/offplan-forecast/pkg/payments"
	"github.com/iwvelando/offplan-forecast/pkg/pricecurve"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Year is the snapshot of one calendar year.
type Year struct {
	Year                      int              `json:"year"`
	ElapsedMonths             float64          `json:"elapsedMonths"`
	PropertyValue             float64          `json:"propertyValue"`
	EquityDeployed            float64          `json:"equityDeployed"`
	NetIncome                 *float64         `json:"netIncome"`
	AirbnbNetIncome           *float64         `json:"airbnbNetIncome"`
	CumulativeNetIncome       float64          `json:"cumulativeNetIncome"`
	AirbnbCumulativeNetIncome float64          `json:"airbnbCumulativeNetIncome"`
	Phase                     pricecurve.Phase `json:"phase"`
	IsHandover                bool             `json:"isHandover"`
	IsBreakEven               bool             `json:"isBreakEven"`
	IsAirbnbBreakEven         bool             `json:"isAirbnbBreakEven"`
	MonthsActive              int              `json:"monthsActive"`
}

// IsPartial reports whether the year earns income for less than twelve months.
func (y Year) IsPartial() bool {
	return y.MonthsActive > 0 && y.MonthsActive < constants.MonthsPerYear
}

// Summary holds the headline metrics of a projection.
type Summary struct {
	HandoverPrice                 float64 `json:"handoverPrice"`
	TotalCapitalInvested          float64 `json:"totalCapitalInvested"`
	FirstFullYear                 int     `json:"firstFullYear"`
	FirstFullYearNetIncome        float64 `json:"firstFullYearNetIncome"`
	RentalYieldOnInvestment       float64 `json:"rentalYieldOnInvestment"`
	YearsToPayOff                 float64 `json:"yearsToPayOff"`
	AirbnbFirstFullYearNetIncome  float64 `json:"airbnbFirstFullYearNetIncome"`
	AirbnbYieldOnInvestment       float64 `json:"airbnbYieldOnInvestment"`
	AirbnbYearsToPayOff           float64 `json:"airbnbYearsToPayOff"`
	BreakEvenYear                 int     `json:"breakEvenYear"`
	AirbnbBreakEvenYear           int     `json:"airbnbBreakEvenYear"`
	FinalPropertyValue            float64 `json:"finalPropertyValue"`
	TotalAppreciationPercent      float64 `json:"totalAppreciationPercent"`
	TotalNetIncome                float64 `json:"totalNetIncome"`
	AirbnbTotalNetIncome          float64 `json:"airbnbTotalNetIncome"`
	AverageFullYearNetIncome      float64 `json:"averageFullYearNetIncome"`
	AverageFullYearAirbnbIncome   float64 `json:"averageFullYearAirbnbIncome"`
}

// Result is the complete projection.
type Result struct {
	Years   []Year  `json:"years"`
	Summary Summary `json:"summary"`
}

// Engine runs projections.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a projection engine with the given logger.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Project simulates the deal from the booking year to the year containing
// the last month of the post-handover horizon.
func (e *Engine) Project(p deal.Params) (*Result, error) {
	curve, err := pricecurve.New(p)
	if err != nil {
		return nil, err
	}
	resolver, err := payments.NewResolver(p)
	if err != nil {
		return nil, err
	}

	totalMonths := p.TotalMonths()
	incomeStart := float64(totalMonths)
	incomeEnd := float64(totalMonths + p.Horizon()*constants.MonthsPerYear)
	handoverYear := datetime.YearOfElapsedMonth(totalMonths, p.BookingMonth, p.BookingYear)
	lastYear := datetime.YearOfElapsedMonth(int(incomeEnd)-1, p.BookingMonth, p.BookingYear)

	capital := p.TotalCapitalInvested()
	annualNet := p.AnnualNetRent()
	annualAirbnb := p.AnnualShortTermNet()
	airbnbEnabled := p.ShortTermEnabled()

	e.logger.Debug("starting projection",
		zap.String("op", "projection.Project"),
		zap.Int("totalMonths", totalMonths),
		zap.Int("handoverYear", handoverYear),
		zap.Int("lastYear", lastYear),
		zap.Float64("annualNetRent", annualNet),
		zap.Bool("airbnb", airbnbEnabled),
	)

	years := make([]Year, 0, lastYear-p.BookingYear+1)
	cumulative, airbnbCumulative := 0.0, 0.0
	brokeEven, airbnbBrokeEven := false, false

	for y := p.BookingYear; y <= lastYear; y++ {
		start, end := datetime.YearBounds(y, p.BookingMonth, p.BookingYear)
		active := overlap(start, end, incomeStart, incomeEnd)

		snapshot := Year{
			Year:           y,
			ElapsedMonths:  end,
			PropertyValue:  curve.PriceAt(end),
			EquityDeployed: resolver.EquityAt(end),
			IsHandover:     y == handoverYear,
			MonthsActive:   active,
		}
		if y < handoverYear {
			snapshot.Phase = pricecurve.PhaseConstruction
		} else {
			snapshot.Phase = curve.PhaseAt(maxFloat(start, incomeStart))
		}

		if active > 0 {
			fraction := float64(active) / constants.MonthsPerYear
			net := annualNet * fraction
			cumulative += net
			snapshot.NetIncome = &net
			if !brokeEven && cumulative >= capital {
				snapshot.IsBreakEven = true
				brokeEven = true
			}

			if airbnbEnabled {
				airbnb := annualAirbnb * fraction
				airbnbCumulative += airbnb
				snapshot.AirbnbNetIncome = &airbnb
				if !airbnbBrokeEven && airbnbCumulative >= capital {
					snapshot.IsAirbnbBreakEven = true
					airbnbBrokeEven = true
				}
			}
		}
		snapshot.CumulativeNetIncome = cumulative
		snapshot.AirbnbCumulativeNetIncome = airbnbCumulative

		years = append(years, snapshot)
	}

	result := &Result{
		Years:   years,
		Summary: summarize(p, curve, years, capital),
	}

	e.logger.Debug("projection complete",
		zap.String("op", "projection.Project"),
		zap.Int("years", len(years)),
		zap.Int("breakEvenYear", result.Summary.BreakEvenYear),
		zap.Float64("yearsToPayOff", result.Summary.YearsToPayOff),
	)
	return result, nil
}

func summarize(p deal.Params, curve *pricecurve.Curve, years []Year, capital float64) Summary {
	summary := Summary{
		HandoverPrice:        curve.HandoverPrice(),
		TotalCapitalInvested: capital,
		YearsToPayOff:        constants.NeverPaysOff,
		AirbnbYearsToPayOff:  constants.NeverPaysOff,
	}

	var incomes, airbnbIncomes, fullIncomes, fullAirbnb []float64
	foundFull := false
	for _, y := range years {
		if y.NetIncome != nil {
			incomes = append(incomes, *y.NetIncome)
		}
		if y.AirbnbNetIncome != nil {
			airbnbIncomes = append(airbnbIncomes, *y.AirbnbNetIncome)
		}
		if y.IsBreakEven {
			summary.BreakEvenYear = y.Year
		}
		if y.IsAirbnbBreakEven {
			summary.AirbnbBreakEvenYear = y.Year
		}
		if y.MonthsActive != constants.MonthsPerYear {
			continue
		}
		fullIncomes = append(fullIncomes, *y.NetIncome)
		if y.AirbnbNetIncome != nil {
			fullAirbnb = append(fullAirbnb, *y.AirbnbNetIncome)
		}
		if !foundFull {
			foundFull = true
			summary.FirstFullYear = y.Year
			summary.FirstFullYearNetIncome = *y.NetIncome
			if y.AirbnbNetIncome != nil {
				summary.AirbnbFirstFullYearNetIncome = *y.AirbnbNetIncome
			}
		}
	}

	summary.RentalYieldOnInvestment = mathutil.CalculatePercentage(summary.FirstFullYearNetIncome, capital)
	summary.YearsToPayOff = yearsToPayOff(capital, summary.FirstFullYearNetIncome)
	summary.AirbnbYieldOnInvestment = mathutil.CalculatePercentage(summary.AirbnbFirstFullYearNetIncome, capital)
	summary.AirbnbYearsToPayOff = yearsToPayOff(capital, summary.AirbnbFirstFullYearNetIncome)

	summary.TotalNetIncome = mathutil.Sum(incomes)
	summary.AirbnbTotalNetIncome = mathutil.Sum(airbnbIncomes)
	if len(fullIncomes) > 0 {
		summary.AverageFullYearNetIncome = stat.Mean(fullIncomes, nil)
	}
	if len(fullAirbnb) > 0 {
		summary.AverageFullYearAirbnbIncome = stat.Mean(fullAirbnb, nil)
	}

	if len(years) > 0 {
		summary.FinalPropertyValue = years[len(years)-1].PropertyValue
		summary.TotalAppreciationPercent = mathutil.CalculatePercentage(summary.FinalPropertyValue-p.BasePrice, p.BasePrice)
	}
	return summary
}

// yearsToPayOff returns capital/income, or the never sentinel when income
// does not cover anything.
func yearsToPayOff(capital, annualIncome float64) float64 {
	if annualIncome <= 0 {
		return constants.NeverPaysOff
	}
	return mathutil.SafeDivide(capital, annualIncome, constants.NeverPaysOff)
}

// overlap returns the whole months shared by [aStart, aEnd) and [bStart, bEnd).
func overlap(aStart, aEnd, bStart, bEnd float64) int {
	lo := maxFloat(aStart, bStart)
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi <= lo {
		return 0
	}
	return int(hi - lo)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
