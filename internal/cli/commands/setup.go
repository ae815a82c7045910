package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leaprdf/internal/cli/config"
	"github.com/leapstack-labs/leaprdf/internal/cli/output"
	"github.com/leapstack-labs/leaprdf/pkg/provision"
	"github.com/leapstack-labs/leaprdf/pkg/store"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg         *config.Config
	Logger      *slog.Logger
	Provisioner *provision.Provisioner
	Renderer    *output.Renderer
}

// NewCommandContext creates a CommandContext with a provisioner and renderer.
// Refresh is only ever enabled by the caller's explicit flag.
func NewCommandContext(cmd *cobra.Command, refresh bool) (*CommandContext, error) {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	logger := config.GetLogger(cmd.Context())

	pcfg := cfg.ProvisionConfig(refresh)
	p, err := provision.New(pcfg, store.NewConnector(pcfg.Target, pcfg.BatchSize, logger), logger)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:         cfg,
		Logger:      logger,
		Provisioner: p,
		Renderer:    output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}, nil
}

// EnsureStoreDir creates the directory of a file-backed target. Only
// commands that create stores call it, so read-only commands report a
// mistyped path as an unreachable backend.
func (c *CommandContext) EnsureStoreDir() error {
	if !config.IsFileBacked(c.Cfg.Target) {
		return nil
	}
	if err := os.MkdirAll(c.Cfg.Target.Path, 0o750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}
