package commands

import (
	"testing"

	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		name  string
		use   string
		flags []string
	}{
		{name: "provision", use: "provision [name=source ...]", flags: []string{"refresh"}},
		{name: "list", use: "list"},
		{name: "status", use: "status [name ...]"},
		{name: "drop", use: "drop <name> [name ...]", flags: []string{"yes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := map[string]*cobra.Command{
				"provision": NewProvisionCommand(),
				"list":      NewListCommand(),
				"status":    NewStatusCommand(),
				"drop":      NewDropCommand(),
			}[tt.name]

			assert.Equal(t, tt.use, cmd.Use)
			assert.NotEmpty(t, cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestProvisionRefreshDefaultsOff(t *testing.T) {
	f := NewProvisionCommand().Flags().Lookup("refresh")
	require.NotNil(t, f)
	assert.Equal(t, "false", f.DefValue)
}

func TestParseDatasets(t *testing.T) {
	configured := map[string]string{
		"people": "people.nt",
		"places": "places.nq",
	}

	tests := []struct {
		name    string
		args    []string
		want    []core.DatasetRequest
		wantErr string
	}{
		{
			name: "configured datasets sorted by name",
			want: []core.DatasetRequest{
				{Name: "people", Source: "people.nt"},
				{Name: "places", Source: "places.nq"},
			},
		},
		{
			name: "explicit name=source",
			args: []string{"things=https://example.org/things.nt.gz"},
			want: []core.DatasetRequest{{Name: "things", Source: "https://example.org/things.nt.gz"}},
		},
		{
			name: "bare configured name",
			args: []string{"places"},
			want: []core.DatasetRequest{{Name: "places", Source: "places.nq"}},
		},
		{
			name: "source containing equals sign",
			args: []string{"q=http://example.org/dump?format=nt"},
			want: []core.DatasetRequest{{Name: "q", Source: "http://example.org/dump?format=nt"}},
		},
		{
			name:    "bare unknown name",
			args:    []string{"unknown"},
			wantErr: `dataset "unknown" is not configured`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDatasets(tt.args, configured)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
