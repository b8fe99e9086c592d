package loans

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A 600,000 loan at 4.5% over 25 years, the 60% LTV mortgage on a
// 1,000,000 unit. Figures cross-checked against a standard amortization
// calculator.
var referenceSchedule = []struct {
	month     int
	payment   float64
	principal float64
	interest  float64
	balance   float64
}{
	{1, 3334.99, 1084.99, 2250.00, 598915.01},
	{2, 3334.99, 1089.06, 2245.93, 597825.94},
	{12, 3334.99, 1130.60, 2204.40, 586708.14},
	{60, 3334.99, 1353.12, 1981.88, 527147.42},
	{120, 3334.99, 1693.83, 1641.17, 435950.87},
	{180, 3334.99, 2120.33, 1214.67, 321791.40},
	{240, 3334.99, 2654.22, 680.78, 178887.06},
	{299, 3334.99, 3310.12, 24.87, 3322.54},
	{300, 3334.99, 3322.54, 12.46, 0.00},
}

func TestAmortizeAgainstReferenceSchedule(t *testing.T) {
	schedule := Amortize(600000, 4.5, 300)
	require.Len(t, schedule, 300)

	const tolerance = 0.05
	for _, ref := range referenceSchedule {
		t.Run(fmt.Sprintf("Month_%d", ref.month), func(t *testing.T) {
			payment := schedule[ref.month-1]
			require.Equal(t, ref.month, payment.Month)
			assert.InDelta(t, ref.payment, payment.Payment, tolerance)
			assert.InDelta(t, ref.principal, payment.Principal, tolerance)
			assert.InDelta(t, ref.interest, payment.Interest, tolerance)
			assert.InDelta(t, ref.balance, payment.RemainingPrincipal, tolerance)
		})
	}
}

func TestTotalInterestAgainstReference(t *testing.T) {
	total := 0.0
	for _, payment := range Amortize(600000, 4.5, 300) {
		total += payment.Interest
	}
	assert.InDelta(t, 400498.46, total, 0.05)
	assert.InDelta(t, 3334.99, CalculateMonthlyPayment(600000, 0, 4.5, 300), 0.01)
}
