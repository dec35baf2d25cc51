// Package config defines the data structures related to configuration and
// includes functions for loading, validating and dumping the config.
package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/iwvelando/installment-adjust/pkg/validation"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration holds all configuration for installment-adjust.
type Configuration struct {
	Logging    LoggingConfig `yaml:"logging,omitempty"`
	Output     OutputConfig  `yaml:"output,omitempty"`
	Engine     EngineConfig  `yaml:"engine,omitempty"`
	RateTables RateTables    `yaml:"rateTables,omitempty"`
	AsOf       string        `yaml:"asOf,omitempty"`
	Contracts  []Contract    `yaml:"contracts"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// EngineConfig selects the reconciliation mode and its parameters.
type EngineConfig struct {
	Mode      string `yaml:"mode,omitempty"` // waterfall, per-installment
	GraceDays *int   `yaml:"graceDays,omitempty"`
	Workers   int    `yaml:"workers,omitempty"`
}

// RateTables holds the project's bracket tables. Normal and Special price
// late payment; Discount prices prepayment.
type RateTables struct {
	Normal   []Bracket `yaml:"normal,omitempty"`
	Special  []Bracket `yaml:"special,omitempty"`
	Discount []Bracket `yaml:"discount,omitempty"`
}

// Bracket is one day-count range of a rate table. A missing start or end
// leaves that side unbounded.
type Bracket struct {
	Start *int    `yaml:"start,omitempty"`
	End   *int    `yaml:"end,omitempty"`
	Rate  float64 `yaml:"rate"`
}

// Contract is one contract snapshot: its metadata, schedule and receipts.
type Contract struct {
	ID                string        `yaml:"id"`
	ContractDate      string        `yaml:"contractDate"`
	SupplementaryDate string        `yaml:"supplementaryDate,omitempty"`
	UseSpecialRules   bool          `yaml:"useSpecialRules,omitempty"`
	Price             Price         `yaml:"price,omitempty"`
	Installments      []Installment `yaml:"installments"`
	Payments          []Payment     `yaml:"payments,omitempty"`
}

// Price is the contract price split into its components, in won.
type Price struct {
	Land     int64 `yaml:"land,omitempty"`
	Building int64 `yaml:"building,omitempty"`
	VAT      int64 `yaml:"vat,omitempty"`
}

// Installment is one scheduled milestone.
type Installment struct {
	PayCode          int           `yaml:"payCode"`
	Category         string        `yaml:"category,omitempty"`
	Amount           int64         `yaml:"amount,omitempty"`
	Ratio            float64       `yaml:"ratio,omitempty"`
	DueDate          string        `yaml:"dueDate,omitempty"`
	DaysFromPrevious *int          `yaml:"daysFromPrevious,omitempty"`
	OverrideDueDate  string        `yaml:"overrideDueDate,omitempty"`
	Discount         DiscountTerms `yaml:"discount,omitempty"`
	Penalty          PenaltyTerms  `yaml:"penalty,omitempty"`
}

// DiscountTerms configure the prepayment discount of an installment.
type DiscountTerms struct {
	Enabled       bool    `yaml:"enabled,omitempty"`
	Rate          float64 `yaml:"rate,omitempty"`
	ReferenceDate string  `yaml:"referenceDate,omitempty"`
}

// PenaltyTerms configure the late penalty of an installment.
type PenaltyTerms struct {
	Enabled         bool    `yaml:"enabled,omitempty"`
	Rate            float64 `yaml:"rate,omitempty"`
	OverrideDueDate string  `yaml:"overrideDueDate,omitempty"`
}

// Payment is one receipt. PayCode is optional.
type Payment struct {
	ID      string `yaml:"id"`
	Amount  int64  `yaml:"amount"`
	Date    string `yaml:"date"`
	PayCode *int   `yaml:"payCode,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Environment variables such as ENGINE_MODE override
// the matching keys.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &configuration, nil
}

// DumpYAML serialises the configuration back to YAML.
func (c *Configuration) DumpYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("unable to encode configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("unable to encode configuration: %w", err)
	}
	return buf.Bytes(), nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	warnings = append(warnings, c.validateEngine()...)

	for _, table := range []struct {
		name     string
		brackets []Bracket
	}{
		{"normal", c.RateTables.Normal},
		{"special", c.RateTables.Special},
		{"discount", c.RateTables.Discount},
	} {
		if warning := validation.ValidateRateTable(table.name, toTable(table.brackets)); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	seen := make(map[string]bool, len(c.Contracts))
	for _, contract := range c.Contracts {
		if seen[contract.ID] {
			warnings = append(warnings, fmt.Sprintf("Contract '%s' is defined more than once", contract.ID))
		}
		seen[contract.ID] = true
		warnings = append(warnings, contract.validate()...)
	}

	return warnings
}
