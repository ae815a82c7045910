// Package config provides configuration management for the LeapRDF CLI.
//
// The shared target type lives in pkg/core and is re-exported here via a
// type alias for convenience.
package config

import (
	"time"

	"github.com/leapstack-labs/leaprdf/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
// This allows CLI code to use config.TargetConfig without importing pkg/core.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
//
// Refresh is deliberately absent: dropping existing stores is only ever
// requested with the --refresh flag of the provision command.
type Config struct {
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Target       *TargetConfig        `koanf:"target"`
	Layout       string               `koanf:"layout"`
	Prefix       string               `koanf:"prefix"`
	StepTimeout  time.Duration        `koanf:"step_timeout"`
	Parallelism  int                  `koanf:"parallelism"`
	FailFast     bool                 `koanf:"fail_fast"`
	BatchSize    int                  `koanf:"batch_size"`
	Datasets     map[string]string    `koanf:"datasets"` // dataset name -> source
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Target   *TargetConfig     `koanf:"target"`
	Datasets map[string]string `koanf:"datasets"`
}

// Default configuration values.
const (
	DefaultOutput     = "auto" // Auto-detect: TTY=table, non-TTY=markdown
	DefaultTargetType = "mysql"
	DefaultStoreDir   = "stores"
)

// ProvisionConfig converts the CLI configuration into the provisioner's.
func (c *Config) ProvisionConfig(refresh bool) core.ProvisionConfig {
	var target core.TargetConfig
	if c.Target != nil {
		target = *c.Target
	}
	return core.ProvisionConfig{
		Target:      target,
		Refresh:     refresh,
		Layout:      core.LayoutKind(c.Layout),
		Prefix:      c.Prefix,
		StepTimeout: c.StepTimeout,
		Parallelism: c.Parallelism,
		FailFast:    c.FailFast,
		BatchSize:   c.BatchSize,
	}.WithDefaults()
}
