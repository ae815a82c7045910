package core

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Default provisioning values.
const (
	DefaultPrefix      = "rdf_"
	DefaultParallelism = 4
	DefaultBatchSize   = 1000
)

// TargetConfig holds the backend the stores live in.
type TargetConfig struct {
	Type string `koanf:"type"` // mysql, postgres, sqlite, duckdb

	// File-backed backends keep one file per store in this directory.
	Path string `koanf:"path"`

	// Network backends
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Additional driver-specific options (e.g., sslmode)
	Options map[string]string `koanf:"options"`

	// Params holds backend-specific configuration decoded by each backend.
	Params map[string]any `koanf:"params"`
}

// Address returns the backend address used for logging and handles.
// File-backed targets report their directory.
func (t TargetConfig) Address() string {
	if t.Path != "" && t.Host == "" {
		return t.Path
	}
	if t.Port == 0 {
		return t.Host
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// ProvisionConfig is resolved once at startup and never mutated afterwards.
type ProvisionConfig struct {
	Target TargetConfig

	// Refresh drops and recreates stores that already exist.
	// Destructive, so it is only ever set explicitly.
	Refresh bool

	Layout LayoutKind
	Prefix string

	// StepTimeout bounds every backend round-trip. Zero means no bound.
	StepTimeout time.Duration

	Parallelism int
	FailFast    bool
	BatchSize   int
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (c ProvisionConfig) WithDefaults() ProvisionConfig {
	if c.Layout == "" {
		c.Layout = LayoutHash
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.Parallelism <= 0 {
		c.Parallelism = DefaultParallelism
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

// Validate checks the values the provisioner relies on.
func (c ProvisionConfig) Validate() error {
	if c.Target.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !c.Layout.Valid() {
		return fmt.Errorf("unknown layout %q (expected one of %v)", c.Layout, Layouts())
	}
	if c.StepTimeout < 0 {
		return fmt.Errorf("step timeout must not be negative")
	}
	return nil
}
