// Package constants provides shared constants for the offplan-forecast application.
package constants

// DateTimeLayout is the format used for calendar month labels in schedules
// and output.
const DateTimeLayout = "2006-01"

// Calendar constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// MonthsPerQuarter is the number of months in a calendar quarter
	MonthsPerQuarter = 3

	// DaysPerYear is the number of nights a short-term rental can be let per year
	DaysPerYear = 365
)

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// DLDFeePercent is the land department transfer fee charged on the
	// purchase price. It is fixed by regulation and is not configurable.
	DLDFeePercent = 4.0

	// PriceCurveExponent shapes construction-phase appreciation: values below
	// one front-load the gain and flatten approaching handover.
	PriceCurveExponent = 0.7

	// NeverPaysOff is reported as years-to-pay-off when income never covers
	// the capital invested.
	NeverPaysOff = 999.0
)

// Stress test classification thresholds, as coverage percentages of the
// monthly debt service.
const (
	StressPositiveCoverage = 120.0
	StressTightCoverage    = 100.0

	// UnboundedCoverage is reported when there is no debt service to cover.
	UnboundedCoverage = 999.0
)

// StressRateOffsets are the percentage-point shocks applied to the base
// mortgage rate.
var StressRateOffsets = []float64{0, 1, 2, 3}

// Projection defaults
const (
	// DefaultHorizonYears is the post-handover projection length
	DefaultHorizonYears = 10

	// MaxHorizonYears bounds the work of a single projection
	MaxHorizonYears = 100

	// MaxConstructionMonths bounds the booking to handover span
	MaxConstructionMonths = 600

	// MaxSolverIterations bounds a bisection solver
	MaxSolverIterations = 1000

	// MaxSolverMonths bounds an exit-month scan: the longest construction
	// plus the longest horizon
	MaxSolverMonths = MaxConstructionMonths + MaxHorizonYears*MonthsPerYear

	// DefaultAppreciationRate is the construction-phase CAGR in percent
	DefaultAppreciationRate = 10.0

	// DefaultGrowthAppreciationRate is the early post-handover CAGR in percent
	DefaultGrowthAppreciationRate = 8.0

	// DefaultMatureAppreciationRate is the long-run CAGR in percent
	DefaultMatureAppreciationRate = 4.0

	// DefaultGrowthPeriodYears is the length of the growth phase
	DefaultGrowthPeriodYears = 5.0

	// DefaultRentalYieldPercent is the gross long-term rental yield
	DefaultRentalYieldPercent = 7.0

	// DefaultOccupancyPercent is the short-term rental occupancy
	DefaultOccupancyPercent = 70.0

	// DefaultOperatingExpensePercent is the short-term rental opex share
	DefaultOperatingExpensePercent = 20.0

	// DefaultManagementFeePercent is the short-term rental management share
	DefaultManagementFeePercent = 15.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// DefaultCurrency is the accounting currency when none is configured
	DefaultCurrency = "AED"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultCacheEntries bounds the in-memory forecast cache
	DefaultCacheEntries = 256
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentTolerance is the tolerance when summing plan percentages
	PercentTolerance = 0.0001
)
