// Package payments resolves an off-plan payment plan into cash outflows
// anchored to elapsed months, and answers how much equity has been deployed
// at any point of the plan.
package payments

import (
	"fmt"
	"sort"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/datetime"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/mathutil"
)

// Kind classifies a payment event.
type Kind string

const (
	KindEOI         Kind = "eoi"
	KindDownpayment Kind = "downpayment"
	KindInstallment Kind = "installment"
	KindRemainder   Kind = "preHandoverRemainder"
	KindHandover    Kind = "handover"
)

// Event is a single cash outflow of the plan.
type Event struct {
	Label            string  `json:"label"`
	Kind             Kind    `json:"kind"`
	ElapsedMonths    float64 `json:"elapsedMonths"`
	Month            string  `json:"month"`
	Percent          float64 `json:"percent"`
	Amount           float64 `json:"amount"`
	CumulativeAmount float64 `json:"cumulativeAmount"`
}

// ConstructionProgress converts elapsed months to the linear completion
// percentage used for milestone triggers. It is independent of the price
// curve.
func ConstructionProgress(elapsedMonths float64, totalMonths int) float64 {
	return mathutil.Clamp(elapsedMonths/float64(totalMonths)*constants.PercentageMultiplier, 0, constants.PercentageMultiplier)
}

// triggered reports whether an installment is due by elapsedMonths.
func triggered(payment deal.Installment, elapsedMonths float64, totalMonths int) bool {
	switch payment.TriggerType {
	case deal.TriggerTime:
		return payment.TriggerValue <= elapsedMonths
	case deal.TriggerConstruction:
		return payment.TriggerValue <= ConstructionProgress(elapsedMonths, totalMonths)
	}
	return false
}

// Resolver answers equity questions for one validated set of params.
type Resolver struct {
	params deal.Params
}

// NewResolver validates the params and binds a resolver to them.
func NewResolver(p deal.Params) (*Resolver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{params: p}, nil
}

// EquityAt returns the cumulative cash paid toward the price after
// elapsedMonths.
func (r *Resolver) EquityAt(elapsedMonths float64) float64 {
	return equityDeployedAt(elapsedMonths, r.params)
}

// EquityDeployedAt returns the cumulative cash paid toward the price after
// elapsedMonths. Entry costs are not included.
func EquityDeployedAt(elapsedMonths float64, p deal.Params) (float64, error) {
	r, err := NewResolver(p)
	if err != nil {
		return 0, err
	}
	return r.EquityAt(elapsedMonths), nil
}

// equityDeployedAt assumes validated params.
func equityDeployedAt(elapsedMonths float64, p deal.Params) float64 {
	if elapsedMonths < 0 {
		return 0
	}
	totalMonths := p.TotalMonths()

	percent := p.DownpaymentPercent
	for _, payment := range p.AdditionalPayments {
		if payment.PaymentPercent <= 0 {
			continue
		}
		if triggered(payment, elapsedMonths, totalMonths) {
			percent += payment.PaymentPercent
		}
	}
	if elapsedMonths >= float64(totalMonths) {
		percent += p.UnallocatedPreHandoverPercent() + p.HandoverBalancePercent()
	}
	return mathutil.ApplyPercentage(p.BasePrice, percent)
}

// TriggerMonth returns the elapsed month at which an installment falls due.
func TriggerMonth(payment deal.Installment, totalMonths int) float64 {
	if payment.TriggerType == deal.TriggerConstruction {
		return payment.TriggerValue / constants.PercentageMultiplier * float64(totalMonths)
	}
	return payment.TriggerValue
}

// Schedule lists every outflow of the plan in payment order with running
// cumulative totals.
func Schedule(p deal.Params) ([]Event, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	totalMonths := p.TotalMonths()
	var events []Event

	downpayment := p.DownpaymentAmount()
	if p.EOIFee > 0 {
		events = append(events, Event{
			Label:   "Expression of interest",
			Kind:    KindEOI,
			Percent: mathutil.CalculatePercentage(p.EOIFee, p.BasePrice),
			Amount:  p.EOIFee,
		})
		downpayment -= p.EOIFee
	}
	events = append(events, Event{
		Label:   "Down payment",
		Kind:    KindDownpayment,
		Percent: p.DownpaymentPercent - mathutil.CalculatePercentage(p.EOIFee, p.BasePrice),
		Amount:  downpayment,
	})

	for i, payment := range p.AdditionalPayments {
		if payment.PaymentPercent <= 0 {
			continue
		}
		label := fmt.Sprintf("Installment %d (month %.0f)", i+1, payment.TriggerValue)
		if payment.TriggerType == deal.TriggerConstruction {
			label = fmt.Sprintf("Installment %d (%.0f%% construction)", i+1, payment.TriggerValue)
		}
		events = append(events, Event{
			Label:         label,
			Kind:          KindInstallment,
			ElapsedMonths: TriggerMonth(payment, totalMonths),
			Percent:       payment.PaymentPercent,
			Amount:        mathutil.ApplyPercentage(p.BasePrice, payment.PaymentPercent),
		})
	}

	if remainder := p.UnallocatedPreHandoverPercent(); remainder > 0 {
		events = append(events, Event{
			Label:         "Pre-handover remainder",
			Kind:          KindRemainder,
			ElapsedMonths: float64(totalMonths),
			Percent:       remainder,
			Amount:        mathutil.ApplyPercentage(p.BasePrice, remainder),
		})
	}
	if balance := p.HandoverBalancePercent(); balance > 0 {
		events = append(events, Event{
			Label:         "Handover balance",
			Kind:          KindHandover,
			ElapsedMonths: float64(totalMonths),
			Percent:       balance,
			Amount:        mathutil.ApplyPercentage(p.BasePrice, balance),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ElapsedMonths < events[j].ElapsedMonths
	})

	cumulative := 0.0
	for i := range events {
		cumulative += events[i].Amount
		events[i].CumulativeAmount = cumulative
		events[i].Month = datetime.MonthLabel(p.BookingMonth, p.BookingYear, int(events[i].ElapsedMonths))
	}
	return events, nil
}

// Timeline returns the equity deployed at the end of every whole month from
// booking through handover, inclusive.
func Timeline(p deal.Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	totalMonths := p.TotalMonths()
	timeline := make([]float64, totalMonths+1)
	for m := 0; m <= totalMonths; m++ {
		timeline[m] = equityDeployedAt(float64(m), p)
	}
	return timeline, nil
}
