// Package datetime provides calendar month arithmetic for booking and
// handover anchors.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
)

const (
	// DateTimeLayout is the format used for month labels.
	DateTimeLayout = constants.DateTimeLayout
)

// MonthsBetween returns the number of whole months from (fromMonth, fromYear)
// to (toMonth, toYear). Months are 1-based.
func MonthsBetween(fromMonth, fromYear, toMonth, toYear int) int {
	return (toYear-fromYear)*constants.MonthsPerYear + (toMonth - fromMonth)
}

// QuarterEndMonth maps a 1-based quarter to its final month.
func QuarterEndMonth(quarter int) (int, error) {
	if quarter < 1 || quarter > 4 {
		return 0, fmt.Errorf("quarter must be between 1 and 4, got %d", quarter)
	}
	return quarter * constants.MonthsPerQuarter, nil
}

// ValidMonth reports whether month is a 1-based calendar month.
func ValidMonth(month int) bool {
	return month >= 1 && month <= constants.MonthsPerYear
}

// MonthLabel returns the label of the calendar month reached after offset
// whole months from (month, year).
func MonthLabel(month, year, offset int) string {
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return t.AddDate(0, offset, 0).Format(DateTimeLayout)
}

// YearBounds returns the elapsed-month interval [start, end) covered by the
// calendar year relative to a booking anchor. The start is clamped to 0 for
// the booking year itself.
func YearBounds(year, bookingMonth, bookingYear int) (float64, float64) {
	start := (year-bookingYear)*constants.MonthsPerYear - (bookingMonth - 1)
	end := (year-bookingYear)*constants.MonthsPerYear + constants.MonthsPerYear + 1 - bookingMonth
	if start < 0 {
		start = 0
	}
	return float64(start), float64(end)
}

// YearOfElapsedMonth returns the calendar year containing the given whole
// elapsed month.
func YearOfElapsedMonth(elapsed, bookingMonth, bookingYear int) int {
	absolute := bookingYear*constants.MonthsPerYear + (bookingMonth - 1) + elapsed
	if absolute < 0 {
		return (absolute+1)/constants.MonthsPerYear - 1
	}
	return absolute / constants.MonthsPerYear
}
