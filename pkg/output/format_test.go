package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iwvelando/offplan-forecast/internal/config"
	"github.com/iwvelando/offplan-forecast/internal/forecast"
	"github.com/iwvelando/offplan-forecast/pkg/optimization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
common:
  currency: AED
scenarios:
  - name: Marina "1BR"
    active: true
    deal:
      basePrice: 1000000
      downpaymentPercent: 20
      preHandoverPercent: 30
      bookingMonth: 1
      bookingYear: 2025
      handoverMonth: 1
      handoverYear: 2027
      oqoodFee: 5000
      serviceChargePerSqft: 15
      unitSizeSqft: 1000
    mortgage:
      enabled: true
      financingPercent: 60
      loanTermYears: 25
      interestRate: 4.5
`

func sampleForecasts(t *testing.T) []forecast.Forecast {
	t.Helper()
	conf, err := config.LoadConfigurationFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	results, err := forecast.GetForecast(nil, *conf)
	require.NoError(t, err)
	require.Len(t, results, 1)
	return results
}

func TestPrettyFormat(t *testing.T) {
	results := sampleForecasts(t)
	results[0].Optimizations = []optimization.Summary{{
		Kind:            config.SolverKindBreakEvenRate,
		OriginalDisplay: "4.50%",
		ValueDisplay:    "7.88%",
		Iterations:      15,
		Converged:       true,
	}}

	var buf bytes.Buffer
	require.NoError(t, PrettyFormat(&buf, results))
	output := buf.String()

	expectedStrings := []string{
		`--- Results for scenario Marina "1BR" (AED) ---`,
		"Payment plan",
		"Down payment | AED 200,000.00 | AED 200,000.00",
		"Total capital invested: AED 1,045,000.00",
		"2027 | growth | AED 1,306,800.00",
		"| handover",
		"Mortgage",
		"Loan: AED 600,000.00",
		"breakEvenRate: 4.50% -> 7.88% (iterations 15, converged true)",
		"Warnings",
	}
	for _, expected := range expectedStrings {
		assert.Contains(t, output, expected)
	}
	assert.NotContains(t, output, "Short-term")
}

func TestPrettyFormatRejectsUnknownCurrency(t *testing.T) {
	results := sampleForecasts(t)
	results[0].Currency = "NOPE"

	var buf bytes.Buffer
	require.Error(t, PrettyFormat(&buf, results))
}

func TestCsvFormat(t *testing.T) {
	results := sampleForecasts(t)
	csv := CsvString(results)

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 1+len(results[0].Projection.Years))
	assert.True(t, strings.HasPrefix(lines[0], `"scenario","currency","year"`))

	// Construction years have no income.
	assert.Contains(t, lines[1], `"Marina ""1BR""","AED","2025","construction","0"`)
	assert.Contains(t, lines[1], `"200000.00",""`)
	assert.Contains(t, lines[3], `"2027","growth","12","1306800.00","1000000.00","55000.00"`)
	assert.Contains(t, lines[3], `"handover"`)
}
