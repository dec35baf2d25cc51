// Package constants provides shared constants for the installment-adjust application.
package constants

// DateLayout is the calendar date format expected in config files and used in
// rendered output.
const DateLayout = "2006-01-02"

// Interest constants
const (
	// DaysPerYear is the day-count basis for annual rates (actual/365 fixed)
	DaysPerYear = 365

	// PercentageMultiplier converts an annual percentage rate into a fraction
	PercentageMultiplier = 100

	// DefaultGraceDays is the prepayment grace buffer; excess realized within
	// this many days of the covered due date earns no discount
	DefaultGraceDays = 30
)

// Engine modes
const (
	// ModeWaterfall allocates raw receipts against the schedule in date order
	ModeWaterfall = "waterfall"

	// ModePerInstallment evaluates each installment against its linked receipts
	ModePerInstallment = "per-installment"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format consumed by the API layer
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultWorkers bounds the number of contracts computed concurrently
	DefaultWorkers = 4
)
