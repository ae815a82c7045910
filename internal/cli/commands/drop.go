package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDropCommand creates the drop command.
func NewDropCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop <name> [name ...]",
		Short: "Drop dataset stores",
		Long: `Drop the stores of the named datasets, including all loaded data.
This cannot be undone, so --yes is required.`,
		Example: `  leaprdf drop people --yes`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to drop %d store(s) without --yes", len(args))
			}

			cmdCtx, err := NewCommandContext(cmd, false)
			if err != nil {
				return err
			}

			results := make(map[string]string, len(args))
			for _, name := range args {
				existed, err := cmdCtx.Provisioner.Remove(cmd.Context(), name)
				if err != nil {
					return err
				}
				if existed {
					results[name] = "dropped"
					cmdCtx.Renderer.Infof("dropped %s", name)
				} else {
					results[name] = "not found"
					cmdCtx.Renderer.Infof("%s has no store", name)
				}
			}

			if cmdCtx.Renderer.Structured() {
				return cmdCtx.Renderer.Data(results)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the drop")
	return cmd
}
