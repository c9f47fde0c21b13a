// Package constants provides shared constants for the credit-calculator application.
package constants

// DateLayout is the ISO calendar date format used in config files, the API and
// all output.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DaysPerYear is the ACT/365 day-count denominator
	DaysPerYear = 365

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// LegalCapMarginPct is the margin over the reference rate that bounds the
	// nominal interest rate (percentage points).
	LegalCapMarginPct = 3.5
)

// Due date defaults
const (
	// DefaultDueDayOfMonth is the day of month installments fall due on
	DefaultDueDayOfMonth = 10

	// DefaultMinDaysToFirstDue is the minimum gap between disbursement and the
	// first installment
	DefaultMinDaysToFirstDue = 30
)

// IRR solver defaults
const (
	DefaultIRRLow           = -0.9999
	DefaultIRRHigh          = 10.0
	DefaultIRRTolerance     = 1e-10
	DefaultIRRMaxIterations = 200
	DefaultIRRMaxExpansions = 50
)

// Schedule method constants
const (
	// MethodDayCount is the ACT/365 payment search variant
	MethodDayCount = "daycount"

	// MethodClosedForm is the constant monthly rate annuity variant
	MethodClosedForm = "closedform"
)

// Holiday calendar constants
const (
	HolidaysPL   = "pl"
	HolidaysNone = "none"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Reference rate constants
const (
	// ReferenceRateSourceJSON selects the JSON document fetcher
	ReferenceRateSourceJSON = "json"

	// ReferenceRateSourceNBP selects the NBP XML fetcher
	ReferenceRateSourceNBP = "nbp"

	// DefaultReferenceRateURL points to a small JSON file that can be updated
	// independently of releases.
	DefaultReferenceRateURL = "https://raw.githubusercontent.com/MarcinWorkDev/credit-calculator-vibed/main/public/nbp-reference-rate.json"

	// DefaultNBPRatesURL is the NBP interest rate table.
	DefaultNBPRatesURL = "https://static.nbp.pl/dane/stopy/stopy_procentowe.xml"

	// ReferenceRateCacheKey is the cache key for the last fetched rate
	ReferenceRateCacheKey = "nbp:referenceRate:v1"
)
