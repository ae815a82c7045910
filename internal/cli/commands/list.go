package commands

import (
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the stores in the backend",
		Long: `List every store in the configured backend whose name carries the
configured prefix. The backend catalog is queried directly.`,
		Example: `  # List stores as a table
  leaprdf list

  # List stores as JSON
  leaprdf list --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd, false)
			if err != nil {
				return err
			}

			stores, err := cmdCtx.Provisioner.Stores(cmd.Context())
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.Structured() {
				return r.Data(stores)
			}
			rows := make([][]any, 0, len(stores))
			for _, s := range stores {
				rows = append(rows, []any{s})
			}
			r.Table([]string{"Store"}, rows)
			return nil
		},
	}
}
