package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leaprdf/internal/cli/output"
	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/leapstack-labs/leaprdf/pkg/provision"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// NewProvisionCommand creates the provision command.
func NewProvisionCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "provision [name=source ...]",
		Short: "Create and populate dataset stores",
		Long: `Make datasets queryable. Each dataset gets its own store, created and
loaded from its N-Triples or N-Quads source the first time. Existing stores
are reused as they are unless --refresh is given.

Without arguments, the datasets map of the config file is provisioned.
A store that fails to load is dropped again; nothing half-loaded remains.`,
		Example: `  # Provision the datasets listed in leaprdf.yaml
  leaprdf provision

  # Provision one dataset into a local SQLite directory
  leaprdf provision --backend sqlite --path ./stores people=./people.nt

  # Rebuild an existing store from a compressed remote dump
  leaprdf provision --refresh places=https://example.org/places.nq.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, args, refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Drop and recreate stores that already exist")
	return cmd
}

// datasetResult is one row of the provision report.
type datasetResult struct {
	core.Handle `yaml:",inline"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
	Phase       string `json:"phase,omitempty" yaml:"phase,omitempty"`
}

func runProvision(cmd *cobra.Command, args []string, refresh bool) error {
	cmdCtx, err := NewCommandContext(cmd, refresh)
	if err != nil {
		return err
	}
	if err := cmdCtx.EnsureStoreDir(); err != nil {
		return err
	}

	reqs, err := parseDatasets(args, cmdCtx.Cfg.Datasets)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return fmt.Errorf("no datasets to provision\nHint: pass name=source arguments or add a datasets map to leaprdf.yaml")
	}

	handles, provErr := cmdCtx.Provisioner.Provision(cmd.Context(), reqs)

	results := make([]datasetResult, 0, len(reqs))
	failures := make(map[string]*provision.Error)
	for _, e := range multierr.Errors(provErr) {
		var pe *provision.Error
		if errors.As(e, &pe) {
			failures[pe.Dataset] = pe
		}
	}
	for _, req := range reqs {
		if h, ok := handles[req.Name]; ok {
			results = append(results, datasetResult{Handle: h})
			continue
		}
		res := datasetResult{Handle: core.Handle{Dataset: req.Name}}
		if pe, ok := failures[req.Name]; ok {
			res.Error = pe.Err.Error()
			res.Phase = string(pe.Phase)
		} else {
			// Valid request held back because another request was invalid.
			res.Phase = "skipped"
		}
		results = append(results, res)
	}

	if err := renderProvision(cmdCtx.Renderer, results); err != nil {
		return err
	}
	if provErr != nil {
		return fmt.Errorf("%d of %d datasets failed: %w", len(multierr.Errors(provErr)), len(reqs), provErr)
	}
	return nil
}

func renderProvision(r *output.Renderer, results []datasetResult) error {
	if r.Structured() {
		return r.Data(results)
	}

	rows := make([][]any, 0, len(results))
	for _, res := range results {
		status := "reused"
		switch {
		case res.Phase == "skipped":
			status = "skipped"
		case res.Phase != "":
			status = "failed (" + res.Phase + ")"
		case res.Created:
			status = "created"
		}
		rows = append(rows, []any{res.Dataset, res.Name, res.Layout, res.Records, status})
	}
	r.Table([]string{"Dataset", "Store", "Layout", "Records", "Status"}, rows)
	return nil
}

// parseDatasets builds requests from name=source arguments, falling back to
// the configured datasets when no arguments are given.
func parseDatasets(args []string, configured map[string]string) ([]core.DatasetRequest, error) {
	if len(args) == 0 {
		names := make([]string, 0, len(configured))
		for name := range configured {
			names = append(names, name)
		}
		sort.Strings(names)

		reqs := make([]core.DatasetRequest, 0, len(names))
		for _, name := range names {
			reqs = append(reqs, core.DatasetRequest{Name: name, Source: configured[name]})
		}
		return reqs, nil
	}

	reqs := make([]core.DatasetRequest, 0, len(args))
	for _, arg := range args {
		name, source, ok := strings.Cut(arg, "=")
		if !ok {
			// A bare name refers to a configured dataset.
			src, found := configured[arg]
			if !found {
				return nil, fmt.Errorf("dataset %q is not configured; use name=source", arg)
			}
			name, source = arg, src
		}
		reqs = append(reqs, core.DatasetRequest{Name: name, Source: source})
	}
	return reqs, nil
}
