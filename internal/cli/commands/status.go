package commands

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/spf13/cobra"
)

type datasetStatus struct {
	core.Handle `yaml:",inline"`
	Exists      bool `json:"exists" yaml:"exists"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [name ...]",
		Short: "Show whether dataset stores exist",
		Long: `Show the store, layout and record count of each dataset. Without
arguments, every dataset in the config file is shown. Nothing is created.`,
		Example: `  leaprdf status
  leaprdf status people places`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd, false)
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				for name := range cmdCtx.Cfg.Datasets {
					names = append(names, name)
				}
				sort.Strings(names)
			}
			if len(names) == 0 {
				return fmt.Errorf("no datasets given and none configured")
			}

			statuses := make([]datasetStatus, 0, len(names))
			for _, name := range names {
				h, ok, err := cmdCtx.Provisioner.Describe(cmd.Context(), name)
				if err != nil {
					return err
				}
				if !ok {
					h = core.Handle{Dataset: name}
				}
				statuses = append(statuses, datasetStatus{Handle: h, Exists: ok})
			}

			r := cmdCtx.Renderer
			if r.Structured() {
				return r.Data(statuses)
			}
			rows := make([][]any, 0, len(statuses))
			for _, s := range statuses {
				if !s.Exists {
					rows = append(rows, []any{s.Dataset, "-", "-", "-", "missing"})
					continue
				}
				rows = append(rows, []any{s.Dataset, s.Name, s.Layout, s.Records, "present"})
			}
			r.Table([]string{"Dataset", "Store", "Layout", "Records", "Status"}, rows)
			return nil
		},
	}
}
