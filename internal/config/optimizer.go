// Package config holds environment-driven configuration with range
// validation.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// OptimizerConfig holds configuration for the optimization loop and its
// surrounding services.
type OptimizerConfig struct {
	// DBPath is the sqlite database location
	// Default: .promptopt/promptopt.db
	DBPath string

	// TargetScore stops optimization once the evaluation score reaches it
	// Default: 0.9, Range: (0, 1]
	TargetScore float64

	// MaxIterations caps the number of loop iterations
	// Default: 10, Range: 1-100
	MaxIterations int

	// NoImprovementLimit is how many consecutive below-threshold iterations
	// are tolerated before stopping
	// Default: 3, Range: 1-20
	NoImprovementLimit int

	// MinImprovement is the score delta below which an iteration counts as
	// no improvement
	// Default: 0.01, Range: [0, 1)
	MinImprovement float64

	// SampleLimit caps how many labeled records each evaluation uses
	// Set to 0 for all available records
	// Default: 0, Range: 0-10000
	SampleLimit int

	// RequestsPerSecond throttles outbound model calls
	// Set to 0 to disable throttling
	// Default: 2, Range: 0-100
	RequestsPerSecond float64
}

// DefaultOptimizerConfig returns the default optimizer configuration.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		DBPath:             ".promptopt/promptopt.db",
		TargetScore:        0.9,
		MaxIterations:      10,
		NoImprovementLimit: 3,
		MinImprovement:     0.01,
		SampleLimit:        0,
		RequestsPerSecond:  2,
	}
}

// Validate checks if the configuration has valid values.
func (c OptimizerConfig) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}

	if c.TargetScore <= 0 || c.TargetScore > 1 {
		return fmt.Errorf("target_score must be in (0, 1] (got %g)", c.TargetScore)
	}

	if c.MaxIterations < 1 || c.MaxIterations > 100 {
		return fmt.Errorf("max_iterations must be between 1 and 100 (got %d)", c.MaxIterations)
	}

	if c.NoImprovementLimit < 1 || c.NoImprovementLimit > 20 {
		return fmt.Errorf("no_improvement_limit must be between 1 and 20 (got %d)",
			c.NoImprovementLimit)
	}

	if c.MinImprovement < 0 || c.MinImprovement >= 1 {
		return fmt.Errorf("min_improvement must be in [0, 1) (got %g)", c.MinImprovement)
	}

	if c.SampleLimit < 0 {
		return fmt.Errorf("sample_limit cannot be negative (got %d)", c.SampleLimit)
	}
	if c.SampleLimit > 10000 {
		return fmt.Errorf("sample_limit too large (got %d, max 10000)", c.SampleLimit)
	}

	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second cannot be negative (got %g)",
			c.RequestsPerSecond)
	}
	if c.RequestsPerSecond > 100 {
		return fmt.Errorf("requests_per_second too large (got %g, max 100)",
			c.RequestsPerSecond)
	}

	return nil
}

// String returns a human-readable representation of the config.
func (c OptimizerConfig) String() string {
	return fmt.Sprintf(
		"OptimizerConfig{DBPath: %s, TargetScore: %g, MaxIterations: %d, "+
			"NoImprovementLimit: %d, MinImprovement: %g, SampleLimit: %d, "+
			"RequestsPerSecond: %g}",
		c.DBPath, c.TargetScore, c.MaxIterations, c.NoImprovementLimit,
		c.MinImprovement, c.SampleLimit, c.RequestsPerSecond,
	)
}

// OptimizerConfigFromEnv creates an OptimizerConfig from environment
// variables, falling back to defaults
//
// Environment variables:
//   - PROMPTOPT_DB_PATH: sqlite database location (default: .promptopt/promptopt.db)
//   - PROMPTOPT_TARGET_SCORE: score that stops optimization early (default: 0.9)
//   - PROMPTOPT_MAX_ITERATIONS: iteration cap (default: 10)
//   - PROMPTOPT_NO_IMPROVEMENT_LIMIT: consecutive flat iterations tolerated (default: 3)
//   - PROMPTOPT_MIN_IMPROVEMENT: smallest delta counting as improvement (default: 0.01)
//   - PROMPTOPT_SAMPLE_LIMIT: records per evaluation, 0 for all (default: 0)
//   - PROMPTOPT_REQUESTS_PER_SECOND: model call throttle, 0 to disable (default: 2)
//
// Returns an error if any environment variable has an invalid value.
func OptimizerConfigFromEnv() (OptimizerConfig, error) {
	cfg := DefaultOptimizerConfig()

	if err := parseEnvString("PROMPTOPT_DB_PATH", &cfg.DBPath); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("PROMPTOPT_TARGET_SCORE", &cfg.TargetScore); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("PROMPTOPT_MAX_ITERATIONS", &cfg.MaxIterations); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("PROMPTOPT_NO_IMPROVEMENT_LIMIT", &cfg.NoImprovementLimit); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("PROMPTOPT_MIN_IMPROVEMENT", &cfg.MinImprovement); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("PROMPTOPT_SAMPLE_LIMIT", &cfg.SampleLimit); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("PROMPTOPT_REQUESTS_PER_SECOND", &cfg.RequestsPerSecond); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid optimizer configuration from environment: %w", err)
	}

	return cfg, nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvFloat parses a float from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}
