// Package output provides utilities for formatting and displaying forecast results.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/offplan-forecast/internal/forecast"
	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/format"
	"github.com/iwvelando/offplan-forecast/pkg/projection"
	"golang.org/x/text/language"
)

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, results []forecast.Forecast) error {
	for i, result := range results {
		f, err := format.NewFormatter(result.Currency, language.English)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "--- Results for scenario %s (%s) ---\n", result.Name, f.Code())
		writeSchedule(w, f, result)
		writeProjection(w, f, result)
		writeSummary(w, f, result.Projection.Summary, result.Params.ShortTermEnabled())
		writeMortgage(w, f, result)
		writeExits(w, f, result)

		if len(result.Optimizations) > 0 {
			fmt.Fprintf(w, "\nSolvers\n")
			for _, summary := range result.Optimizations {
				fmt.Fprintf(w, "%s\n", summary)
			}
		}

		if len(result.Warnings) > 0 {
			fmt.Fprintf(w, "\nWarnings\n")
			for _, warning := range result.Warnings {
				fmt.Fprintf(w, "- %s\n", warning)
			}
		}

		if i < len(results)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
	return nil
}

func writeSchedule(w io.Writer, f *format.Formatter, result forecast.Forecast) {
	fmt.Fprintf(w, "\nPayment plan\n")
	fmt.Fprintf(w, "Month   | Payment | Amount | Cumulative\n")
	for _, event := range result.Schedule {
		fmt.Fprintf(w, "%s | %s | %s | %s\n", event.Month, event.Label, f.Money(event.Amount), f.Money(event.CumulativeAmount))
	}
}

func writeProjection(w io.Writer, f *format.Formatter, result forecast.Forecast) {
	shortTerm := result.Params.ShortTermEnabled()
	fmt.Fprintf(w, "\nYear | Phase | Value | Equity | Net income | Cumulative")
	if shortTerm {
		fmt.Fprintf(w, " | Short-term net | Short-term cumulative")
	}
	fmt.Fprintf(w, " | Notes\n")

	for _, y := range result.Projection.Years {
		fmt.Fprintf(w, "%d | %s | %s | %s | %s | %s",
			y.Year, y.Phase, f.Money(y.PropertyValue), f.Money(y.EquityDeployed),
			optionalMoney(f, y.NetIncome), f.Money(y.CumulativeNetIncome))
		if shortTerm {
			fmt.Fprintf(w, " | %s | %s", optionalMoney(f, y.AirbnbNetIncome), f.Money(y.AirbnbCumulativeNetIncome))
		}
		fmt.Fprintf(w, " | %s\n", strings.Join(yearNotes(y), ","))
	}
}

func yearNotes(y projection.Year) []string {
	var notes []string
	if y.IsHandover {
		notes = append(notes, "handover")
	}
	if y.IsPartial() {
		notes = append(notes, fmt.Sprintf("%d months", y.MonthsActive))
	}
	if y.IsBreakEven {
		notes = append(notes, "break-even")
	}
	if y.IsAirbnbBreakEven {
		notes = append(notes, "short-term break-even")
	}
	return notes
}

func optionalMoney(f *format.Formatter, value *float64) string {
	if value == nil {
		return "-"
	}
	return f.Money(*value)
}

func writeSummary(w io.Writer, f *format.Formatter, s projection.Summary, shortTerm bool) {
	fmt.Fprintf(w, "\nHandover price: %s\n", f.Money(s.HandoverPrice))
	fmt.Fprintf(w, "Total capital invested: %s\n", f.Money(s.TotalCapitalInvested))
	fmt.Fprintf(w, "First full year: %d, net income %s, yield on investment %s\n",
		s.FirstFullYear, f.Money(s.FirstFullYearNetIncome), f.Percent(s.RentalYieldOnInvestment))
	fmt.Fprintf(w, "Years to pay off: %s\n", f.Years(s.YearsToPayOff, constants.NeverPaysOff))
	if s.BreakEvenYear != 0 {
		fmt.Fprintf(w, "Break-even year: %d\n", s.BreakEvenYear)
	}
	fmt.Fprintf(w, "Final value: %s (%s appreciation)\n", f.Money(s.FinalPropertyValue), f.Percent(s.TotalAppreciationPercent))
	fmt.Fprintf(w, "Total net income: %s\n", f.Money(s.TotalNetIncome))
	if shortTerm {
		fmt.Fprintf(w, "Short-term first full year: %s, yield %s, years to pay off %s\n",
			f.Money(s.AirbnbFirstFullYearNetIncome), f.Percent(s.AirbnbYieldOnInvestment),
			f.Years(s.AirbnbYearsToPayOff, constants.NeverPaysOff))
		if s.AirbnbBreakEvenYear != 0 {
			fmt.Fprintf(w, "Short-term break-even year: %d\n", s.AirbnbBreakEvenYear)
		}
	}
}

func writeMortgage(w io.Writer, f *format.Formatter, result forecast.Forecast) {
	a := result.Mortgage
	if a == nil {
		return
	}
	fmt.Fprintf(w, "\nMortgage\n")
	fmt.Fprintf(w, "Loan: %s, monthly payment %s, total interest %s\n",
		f.Money(a.LoanAmount), f.Money(a.MonthlyPayment), f.Money(a.TotalInterest))
	if a.HasGap {
		fmt.Fprintf(w, "Gap to fund before disbursement: %s (%s)\n", f.Money(a.GapAmount), f.Percent(a.GapPercent))
	}
	fmt.Fprintf(w, "Upfront fees: %s, monthly insurance %s\n", f.Money(a.TotalUpfrontFees), f.Money(a.MonthlyInsurance))
	fmt.Fprintf(w, "Monthly cashflow: %s\n", f.Money(a.MonthlyCashflow))
	fmt.Fprintf(w, "Rate | Payment | Net cashflow | Coverage | Status\n")
	for _, s := range a.StressScenarios {
		fmt.Fprintf(w, "%s | %s | %s | %s | %s\n",
			f.Percent(s.Rate), f.Money(s.MonthlyPayment), f.Money(s.NetCashflow), f.Percent(s.Coverage), s.Status)
	}
}

func writeExits(w io.Writer, f *format.Formatter, result forecast.Forecast) {
	if len(result.Exits) == 0 {
		return
	}
	fmt.Fprintf(w, "\nExit | Month | Price | Equity | Net profit | ROE | Annualized\n")
	for _, s := range result.Exits {
		label := s.Label
		if s.Speculative {
			label += " (speculative)"
		}
		fmt.Fprintf(w, "%s | %.0f | %s | %s | %s | %s | %s\n",
			label, s.ExitMonths, f.Money(s.ExitPrice), f.Money(s.EquityDeployed),
			f.Money(s.NetProfit), f.Percent(s.DisplayROE), f.Percent(s.AnnualizedROE))
	}
}

// CsvFormat writes one row per scenario year in comma-separated value format.
func CsvFormat(w io.Writer, results []forecast.Forecast) {
	fmt.Fprintf(w, `"scenario","currency","year","phase","months active","property value","equity deployed","net income","cumulative net income","short-term net income","short-term cumulative net income","notes"`)
	fmt.Fprintf(w, "\n")
	for _, result := range results {
		for _, y := range result.Projection.Years {
			fmt.Fprintf(w, `"%s","%s","%d","%s","%d","%.2f","%.2f","%s","%.2f","%s","%.2f","%s"`,
				escape(result.Name), result.Currency, y.Year, y.Phase, y.MonthsActive,
				y.PropertyValue, y.EquityDeployed, optionalNumber(y.NetIncome), y.CumulativeNetIncome,
				optionalNumber(y.AirbnbNetIncome), y.AirbnbCumulativeNetIncome, strings.Join(yearNotes(y), ","))
			fmt.Fprintf(w, "\n")
		}
	}
}

// CsvString renders CsvFormat into a string.
func CsvString(results []forecast.Forecast) string {
	var b strings.Builder
	CsvFormat(&b, results)
	return b.String()
}

func optionalNumber(value *float64) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *value)
}

func escape(value string) string {
	return strings.ReplaceAll(value, `"`, `""`)
}
