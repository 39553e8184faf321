// ============================================================================
// Scheduler Configuration
// ============================================================================
//
// Package: internal/config
// Purpose: YAML-tagged configuration for the scheduler core, loaded by
//          the CLI's run command.
//
// Grounded on internal/cli/cli.go's nested-struct Config shape
// (Worker/WAL/Snapshot/Metrics sections, yaml tags), adapted to the
// scheduler's own knobs and split into its own package so
// internal/scheduler can depend on configuration without pulling in
// Cobra.
//
// ============================================================================

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the scheduler's top-level configuration.
type Config struct {
	// CheckInvariants turns on the scheduler's internal consistency
	// checks (cycle_count monotonicity, non-negative per-band budgets,
	// ...) at the cost of doing the extra bookkeeping every cycle. A
	// violation is treated as a hook error: it kills the scheduler.
	CheckInvariants bool `yaml:"check_invariants"`

	Queue struct {
		// MaxJobsPerCycle bounds each priority band, 0 means
		// unbounded (limited only by what BeginCycle snapshots).
		MaxJobsPerCycle int `yaml:"max_jobs_per_cycle"`
	} `yaml:"queue"`

	VLPool struct {
		StepBudget int `yaml:"step_budget"`
	} `yaml:"vlpool"`

	Clock struct {
		AlarmPrecision time.Duration `yaml:"alarm_precision"`
	} `yaml:"clock"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`
}

// Default returns the configuration the scheduler runs with when no
// file is supplied.
func Default() Config {
	var c Config
	c.VLPool.StepBudget = 1000
	c.Clock.AlarmPrecision = time.Millisecond
	c.Metrics.Enabled = true
	c.Metrics.Port = 9090
	return c
}

// Load reads and parses a YAML config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}
