package config

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"
)

// OutputModes lists the accepted values of --output.
var OutputModes = []string{"auto", "table", "markdown", "json", "yaml"}

// ValidateTarget checks that the target names a registered backend.
func ValidateTarget(t *TargetConfig) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !backend.IsRegistered(t.Type) {
		return fmt.Errorf("unknown backend type %q (available: %v)", t.Type, backend.List())
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target port %d out of range", t.Port)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	if !core.LayoutKind(c.Layout).Valid() {
		return fmt.Errorf("unknown layout %q (expected one of %v)", c.Layout, core.Layouts())
	}
	if !slices.Contains(OutputModes, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (expected one of %v)", c.OutputFormat, OutputModes)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	if c.StepTimeout < 0 {
		return fmt.Errorf("step_timeout must not be negative")
	}
	return nil
}
