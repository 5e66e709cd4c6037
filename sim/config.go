package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned (wrapped) by NewConfig when an error
// rate lies outside [0, 1] or the duration is not positive.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Params is the raw input record for a simulation run.
// Only the error rates and Duration are range-checked by NewConfig.
type Params struct {
	// Initial state
	InitialOpenTickets   int64 `yaml:"initial_open_tickets" mapstructure:"initial_open_tickets"`
	InitialStartedCoding int64 `yaml:"initial_started_coding" mapstructure:"initial_started_coding"`
	InitialTestedCode    int64 `yaml:"initial_tested_code" mapstructure:"initial_tested_code"`
	InitialDeployedCode  int64 `yaml:"initial_deployed_code" mapstructure:"initial_deployed_code"`
	InitialClosedTickets int64 `yaml:"initial_closed_tickets" mapstructure:"initial_closed_tickets"`

	// Forward flow rates (items per step)
	TicketOpenRate  int64 `yaml:"ticket_open_rate" mapstructure:"ticket_open_rate"`
	StartCodingRate int64 `yaml:"start_coding_rate" mapstructure:"start_coding_rate"`
	TestingRate     int64 `yaml:"testing_rate" mapstructure:"testing_rate"`
	DeploymentRate  int64 `yaml:"deployment_rate" mapstructure:"deployment_rate"`
	CloseRate       int64 `yaml:"close_rate" mapstructure:"close_rate"`

	MaxConcurrentCoding int64 `yaml:"max_concurrent_coding" mapstructure:"max_concurrent_coding"` // WIP limit on started_coding

	// Error rates, fractions in [0, 1]
	TestingErrorRate    float64 `yaml:"testing_error_rate" mapstructure:"testing_error_rate"`
	DeploymentErrorRate float64 `yaml:"deployment_error_rate" mapstructure:"deployment_error_rate"`
	ProductionErrorRate float64 `yaml:"production_error_rate" mapstructure:"production_error_rate"`

	Duration int `yaml:"duration" mapstructure:"duration"` // number of steps Run executes
}

// DefaultParams returns the stock model's reference parameters:
// a backlog of 100, every rate at 10 items per step, a WIP limit of 50,
// and 15% / 10% / 25% testing, deployment and production error rates.
func DefaultParams() Params {
	return Params{
		InitialOpenTickets:  100,
		TicketOpenRate:      10,
		StartCodingRate:     10,
		TestingRate:         10,
		DeploymentRate:      10,
		CloseRate:           10,
		MaxConcurrentCoding: 50,
		TestingErrorRate:    0.15,
		DeploymentErrorRate: 0.10,
		ProductionErrorRate: 0.25,
		Duration:            100,
	}
}

// InitialStocks returns the initial stock vector described by p.
func (p Params) InitialStocks() Stocks {
	return Stocks{
		OpenTickets:   p.InitialOpenTickets,
		StartedCoding: p.InitialStartedCoding,
		TestedCode:    p.InitialTestedCode,
		DeployedCode:  p.InitialDeployedCode,
		ClosedTickets: p.InitialClosedTickets,
	}
}

// Config is a validated, immutable simulation configuration.
// The zero value is not valid; build one with NewConfig.
type Config struct {
	params Params
}

// NewConfig validates p and returns an immutable Config.
// The returned error wraps ErrInvalidConfiguration.
func NewConfig(p Params) (Config, error) {
	if err := validateRate("testing_error_rate", p.TestingErrorRate); err != nil {
		return Config{}, err
	}
	if err := validateRate("deployment_error_rate", p.DeploymentErrorRate); err != nil {
		return Config{}, err
	}
	if err := validateRate("production_error_rate", p.ProductionErrorRate); err != nil {
		return Config{}, err
	}
	if p.Duration <= 0 {
		return Config{}, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidConfiguration, p.Duration)
	}
	return Config{params: p}, nil
}

// Params returns a copy of the validated parameters.
func (c Config) Params() Params { return c.params }

// Duration is the number of steps Engine.Run executes.
func (c Config) Duration() int { return c.params.Duration }

// validateRate rejects values outside [0, 1]; NaN fails both comparisons.
func validateRate(name string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrInvalidConfiguration, name, v)
	}
	return nil
}
