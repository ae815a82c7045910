// Package cli provides the command-line interface for LeapRDF.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leaprdf/internal/cli/commands"
	"github.com/leapstack-labs/leaprdf/internal/cli/config"
	"github.com/spf13/cobra"

	// Backends register themselves via init()
	_ "github.com/leapstack-labs/leaprdf/pkg/backends/duckdb"
	_ "github.com/leapstack-labs/leaprdf/pkg/backends/mysql"
	_ "github.com/leapstack-labs/leaprdf/pkg/backends/postgres"
	_ "github.com/leapstack-labs/leaprdf/pkg/backends/sqlite"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leaprdf",
		Short: "LeapRDF - RDF dataset provisioning",
		Long: `LeapRDF turns RDF dumps into queryable SQL stores.

Each named dataset is loaded from an N-Triples or N-Quads source into its own
store (a MySQL or PostgreSQL database, or a SQLite or DuckDB file) exactly
once. Failed loads are rolled back by dropping the store.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help, version and completion commands
			switch cmd.Name() {
			case "help", "version", "completion", "__complete":
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", slog.String("path", configFile))
			}
			if cfg.Environment != "" {
				logger.Debug("using environment", slog.String("environment", cfg.Environment))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} {{.Version}} (commit %s, built %s)\n", GitCommit, BuildDate))

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./leaprdf.yaml)")
	pf.StringP("env", "e", "", "Environment from the config file to use (e.g., dev, prod)")
	pf.String("backend", "", "Store backend (mysql|postgres|sqlite|duckdb)")
	pf.String("host", "", "Database server host")
	pf.Int("port", 0, "Database server port")
	pf.String("user", "", "Database user")
	pf.String("password", "", "Database password")
	pf.String("path", "", "Store directory for sqlite and duckdb")
	pf.String("layout", "", "Store layout for new stores (hash|simple)")
	pf.String("prefix", "", "Prefix of physical store names")
	pf.Duration("step-timeout", 0, "Timeout for each backend step (0 = none)")
	pf.Int("parallelism", 0, "Datasets provisioned concurrently")
	pf.Bool("fail-fast", false, "Cancel remaining datasets after the first failure")
	pf.Int("batch-size", 0, "Statements per insert batch")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.StringP("output", "o", "", "Output format (auto|table|markdown|json|yaml)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputModes, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("backend", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"mysql", "postgres", "sqlite", "duckdb"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("layout", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"hash", "simple"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewProvisionCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewDropCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command. Cancelling ctx stops in-flight provisioning;
// stores that were being created are still dropped.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for LeapRDF.

To load completions:

Bash:
  $ source <(leaprdf completion bash)

Zsh:
  $ leaprdf completion zsh > "${fpath[1]}/_leaprdf"

Fish:
  $ leaprdf completion fish | source

PowerShell:
  PS> leaprdf completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
