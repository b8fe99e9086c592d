// Package format renders engine figures for display. It never changes the
// underlying numbers and takes the currency as an explicit ISO code.
package format

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders money and percentages for one currency and language.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter validates the ISO 4217 code and binds a printer for tag.
func NewFormatter(isoCode string, tag language.Tag) (*Formatter, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(isoCode)))
	if err != nil {
		return nil, fmt.Errorf("invalid currency code %q: %w", isoCode, err)
	}
	return &Formatter{unit: unit, printer: message.NewPrinter(tag)}, nil
}

// Code returns the ISO currency code.
func (f *Formatter) Code() string {
	return f.unit.String()
}

// Money returns the amount with the ISO code and grouped digits, e.g.
// "AED 1,234.56" or "AED -1,234.56".
func (f *Formatter) Money(amount float64) string {
	return f.unit.String() + " " + f.Number(amount)
}

// Number returns the amount with grouped digits and two decimals.
func (f *Formatter) Number(amount float64) string {
	rounded := mathRound(amount)
	if rounded == 0 {
		// Avoid rendering negative zero.
		rounded = 0
	}
	return f.printer.Sprintf("%.2f", rounded)
}

// Percent returns a percentage with two decimals.
func (f *Formatter) Percent(value float64) string {
	return f.printer.Sprintf("%.2f%%", mathRound(value))
}

// Years renders a years figure, treating the never sentinel specially.
func (f *Formatter) Years(value, never float64) string {
	if value >= never {
		return "never"
	}
	return f.printer.Sprintf("%.1f", value)
}

func mathRound(v float64) float64 {
	return math.Round(v*100) / 100
}
