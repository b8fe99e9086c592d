package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/offplan-forecast/pkg/constants"
)

const (
	SolverKindBreakEvenRate = "breakEvenRate"
	SolverKindTargetROE     = "targetROE"

	defaultRateMin       = 0.0
	defaultRateMax       = 20.0
	defaultRateTolerance = 0.001
	defaultMaxIterations = 50
	defaultScanYears     = 15
)

// SolverConfig defines a single solver directive for a scenario.
type SolverConfig struct {
	Kind          string   `yaml:"kind" json:"kind" mapstructure:"kind"`
	Min           *float64 `yaml:"min,omitempty" json:"min,omitempty" mapstructure:"min"`
	Max           *float64 `yaml:"max,omitempty" json:"max,omitempty" mapstructure:"max"`
	Tolerance     float64  `yaml:"tolerance,omitempty" json:"tolerance,omitempty" mapstructure:"tolerance"`
	MaxIterations int      `yaml:"maxIterations,omitempty" json:"maxIterations,omitempty" mapstructure:"maxIterations"`
	TargetROE     float64  `yaml:"targetRoe,omitempty" json:"targetRoe,omitempty" mapstructure:"targetRoe"`
	MaxMonths     int      `yaml:"maxMonths,omitempty" json:"maxMonths,omitempty" mapstructure:"maxMonths"`
}

func normalizeKey(value string) string {
	replacer := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(value)))
}

// CanonicalSolverKind returns the canonical identifier for a solver kind.
func CanonicalSolverKind(value string) string {
	switch normalizeKey(value) {
	case "breakevenrate", "breakeven":
		return SolverKindBreakEvenRate
	case "targetroe", "roe":
		return SolverKindTargetROE
	default:
		return strings.TrimSpace(value)
	}
}

// Normalize ensures defaults and canonical values are applied before validation.
func (s *SolverConfig) Normalize() {
	if s == nil {
		return
	}
	s.Kind = CanonicalSolverKind(s.Kind)
	if s.MaxIterations <= 0 {
		s.MaxIterations = defaultMaxIterations
	}
	switch s.Kind {
	case SolverKindBreakEvenRate:
		if s.Min == nil {
			v := defaultRateMin
			s.Min = &v
		}
		if s.Max == nil {
			v := defaultRateMax
			s.Max = &v
		}
		if s.Tolerance <= 0 {
			s.Tolerance = defaultRateTolerance
		}
	case SolverKindTargetROE:
		if s.MaxMonths <= 0 {
			s.MaxMonths = defaultScanYears * constants.MonthsPerYear
		}
	}
}

// Validate returns an error when the solver configuration is unsupported.
func (s *SolverConfig) Validate() error {
	if s == nil {
		return fmt.Errorf("solver configuration cannot be nil")
	}

	s.Normalize()

	if s.MaxIterations > constants.MaxSolverIterations {
		return fmt.Errorf("solver maxIterations %d exceeds limit of %d", s.MaxIterations, constants.MaxSolverIterations)
	}

	switch s.Kind {
	case SolverKindBreakEvenRate:
		if *s.Min < 0 {
			return fmt.Errorf("solver minimum rate %.2f must not be negative", *s.Min)
		}
		if *s.Min >= *s.Max {
			return fmt.Errorf("solver minimum %.2f must be less than maximum %.2f", *s.Min, *s.Max)
		}
	case SolverKindTargetROE:
		if s.TargetROE <= 0 {
			return fmt.Errorf("solver %s requires a positive targetRoe", s.Kind)
		}
		if s.MaxMonths > constants.MaxSolverMonths {
			return fmt.Errorf("solver maxMonths %d exceeds limit of %d", s.MaxMonths, constants.MaxSolverMonths)
		}
	default:
		return fmt.Errorf("solver kind %q is not supported", s.Kind)
	}
	return nil
}
