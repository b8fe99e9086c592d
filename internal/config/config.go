// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and validating it.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/exits"
	"github.com/spf13/viper"
	"golang.org/x/text/currency"
)

// Configuration holds all configuration for offplan-forecast.
type Configuration struct {
	Common    Common        `yaml:"common" json:"common"`
	Scenarios []Scenario    `yaml:"scenarios" json:"scenarios"`
	Logging   LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty" json:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" json:"level,omitempty"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" json:"format,omitempty"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" json:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // pretty, csv
}

// Common holds the settings shared by all scenarios. Scenario values take
// precedence where both are set.
type Common struct {
	Currency   string          `yaml:"currency,omitempty" json:"currency,omitempty"`
	Mortgage   *MortgageConfig `yaml:"mortgage,omitempty" json:"mortgage,omitempty"`
	ExitCosts  exits.Costs     `yaml:"exitCosts,omitempty" json:"exitCosts,omitempty"`
	ExitPoints []exits.Point   `yaml:"exitPoints,omitempty" json:"exitPoints,omitempty"`
}

// Scenario holds one deal and its optional mortgage, exits and solvers.
type Scenario struct {
	Name       string          `yaml:"name" json:"name"`
	Active     bool            `yaml:"active" json:"active"`
	Deal       DealConfig      `yaml:"deal" json:"deal"`
	Mortgage   *MortgageConfig `yaml:"mortgage,omitempty" json:"mortgage,omitempty"`
	ExitCosts  *exits.Costs    `yaml:"exitCosts,omitempty" json:"exitCosts,omitempty"`
	ExitPoints []exits.Point   `yaml:"exitPoints,omitempty" json:"exitPoints,omitempty"`
	Solvers    []SolverConfig  `yaml:"solvers,omitempty" json:"solvers,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// CurrencyCode returns the configured ISO currency, or the default.
func (c *Configuration) CurrencyCode() string {
	code := strings.ToUpper(strings.TrimSpace(c.Common.Currency))
	if code == "" {
		return constants.DefaultCurrency
	}
	return code
}

// ActiveScenarios returns the scenarios flagged active, in file order.
func (c *Configuration) ActiveScenarios() []Scenario {
	var active []Scenario
	for _, scenario := range c.Scenarios {
		if scenario.Active {
			active = append(active, scenario)
		}
	}
	return active
}

// FindScenario returns the named scenario.
func (c *Configuration) FindScenario(name string) (*Scenario, bool) {
	for i := range c.Scenarios {
		if c.Scenarios[i].Name == name {
			return &c.Scenarios[i], true
		}
	}
	return nil, false
}

// Validate converts and validates every active scenario, joining all
// failures into one error.
func (c *Configuration) Validate() error {
	var errs []error
	if _, err := currency.ParseISO(c.CurrencyCode()); err != nil {
		errs = append(errs, fmt.Errorf("currency %q is not a valid ISO 4217 code", c.CurrencyCode()))
	}
	for _, scenario := range c.ActiveScenarios() {
		if err := scenario.Deal.ToParams().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("scenario %s: %w", scenario.Name, err))
		}
		if m := c.MortgageFor(scenario); m != nil {
			if err := m.ToMortgage().Validate(); err != nil {
				errs = append(errs, fmt.Errorf("scenario %s: %w", scenario.Name, err))
			}
		}
		for i := range scenario.Solvers {
			if err := scenario.Solvers[i].Validate(); err != nil {
				errs = append(errs, fmt.Errorf("scenario %s solver %d: %w", scenario.Name, i+1, err))
			}
		}
	}
	return errors.Join(errs...)
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(c.ActiveScenarios()) == 0 {
		warnings = append(warnings, "No active scenarios; nothing will be forecast")
	}

	seen := make(map[string]bool)
	for _, scenario := range c.Scenarios {
		name := strings.TrimSpace(scenario.Name)
		if name == "" {
			warnings = append(warnings, "Scenario with an empty name")
			continue
		}
		if seen[name] {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' is defined more than once", name))
		}
		seen[name] = true
	}

	for _, scenario := range c.ActiveScenarios() {
		d := scenario.Deal
		if d.HandoverMonth != 0 && d.HandoverQuarter != 0 {
			warnings = append(warnings, fmt.Sprintf(
				"Scenario '%s' sets both handoverMonth and handoverQuarter; handoverMonth is used", scenario.Name))
		}
		if d.ShowAirbnbComparison && d.ShortTermRental == nil {
			warnings = append(warnings, fmt.Sprintf(
				"Scenario '%s' asks for a short-term comparison without shortTermRental settings", scenario.Name))
		}
	}

	return warnings
}

// MortgageFor returns the scenario mortgage, falling back to the common one.
func (c *Configuration) MortgageFor(s Scenario) *MortgageConfig {
	if s.Mortgage != nil {
		return s.Mortgage
	}
	return c.Common.Mortgage
}

// ExitCostsFor returns the scenario exit costs, falling back to the common ones.
func (c *Configuration) ExitCostsFor(s Scenario) exits.Costs {
	if s.ExitCosts != nil {
		return *s.ExitCosts
	}
	return c.Common.ExitCosts
}

// ExitPointsFor returns the scenario exit points, then the common ones,
// then the defaults for the construction length.
func (c *Configuration) ExitPointsFor(s Scenario, totalMonths int) []exits.Point {
	if len(s.ExitPoints) > 0 {
		return s.ExitPoints
	}
	if len(c.Common.ExitPoints) > 0 {
		return c.Common.ExitPoints
	}
	return exits.DefaultPoints(totalMonths)
}
