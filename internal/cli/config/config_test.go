package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import backend packages to ensure backends are registered via init()
	_ "github.com/leapstack-labs/leaprdf/pkg/backends/mysql"
	_ "github.com/leapstack-labs/leaprdf/pkg/backends/postgres"
	_ "github.com/leapstack-labs/leaprdf/pkg/backends/sqlite"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaprdf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("env", "", "")
	fs.String("backend", "", "")
	fs.String("host", "", "")
	fs.Int("port", 0, "")
	fs.String("path", "", "")
	fs.String("layout", "", "")
	fs.Int("parallelism", 0, "")
	fs.Duration("step-timeout", 0, "")
	fs.Bool("fail-fast", false, "")
	fs.StringP("output", "o", "", "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Target.Type)
	assert.Equal(t, "localhost", cfg.Target.Host)
	assert.Equal(t, 3306, cfg.Target.Port)
	assert.Equal(t, "root", cfg.Target.User)
	assert.Empty(t, cfg.Target.Password)
	assert.Equal(t, "hash", cfg.Layout)
	assert.Equal(t, core.DefaultPrefix, cfg.Prefix)
	assert.Equal(t, core.DefaultParallelism, cfg.Parallelism)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())

	pc := cfg.ProvisionConfig(false)
	assert.False(t, pc.Refresh)
	assert.Equal(t, "localhost:3306", pc.Target.Address())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `
target:
  type: postgres
  host: db.internal
  user: loader
  password: ${LEAPRDF_TEST_SECRET}
  options:
    sslmode: require
layout: simple
step_timeout: 45s
datasets:
  people: data/people.nt
  places: https://example.org/places.nq.gz
`)
	t.Setenv("LEAPRDF_TEST_SECRET", "s3cret")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, filepath.Dir(path), cfg.ProjectRoot)
	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, 5432, cfg.Target.Port)
	assert.Equal(t, "loader", cfg.Target.User)
	assert.Equal(t, "s3cret", cfg.Target.Password)
	assert.Equal(t, "require", cfg.Target.Options["sslmode"])
	assert.Equal(t, "simple", cfg.Layout)
	assert.Equal(t, 45*time.Second, cfg.StepTimeout)
	assert.Equal(t, map[string]string{
		"people": "data/people.nt",
		"places": "https://example.org/places.nq.gz",
	}, cfg.Datasets)
}

func TestLoadConfig_Precedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `
target:
  type: mysql
  host: file-host
  port: 3307
parallelism: 2
`)
	t.Setenv("LEAPRDF_TARGET__HOST", "env-host")
	t.Setenv("LEAPRDF_PARALLELISM", "6")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--parallelism", "8", "--step-timeout", "10s", "--fail-fast"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Target.Host, "env overrides file")
	assert.Equal(t, 3307, cfg.Target.Port, "file overrides defaults")
	assert.Equal(t, 8, cfg.Parallelism, "flags override env")
	assert.Equal(t, 10*time.Second, cfg.StepTimeout)
	assert.True(t, cfg.FailFast)
}

func TestLoadConfig_Environment(t *testing.T) {
	path := writeConfig(t, `
target:
  type: mysql
  host: dev-db
datasets:
  people: people.nt
environments:
  prod:
    target:
      host: prod-db
      password: hunter2
    datasets:
      places: places.nt
`)

	t.Run("selected by flag", func(t *testing.T) {
		ResetConfig()
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--env", "prod"}))

		cfg, err := LoadConfig(path, flags)
		require.NoError(t, err)
		assert.Equal(t, "prod-db", cfg.Target.Host)
		assert.Equal(t, "hunter2", cfg.Target.Password)
		assert.Equal(t, map[string]string{"people": "people.nt", "places": "places.nt"}, cfg.Datasets)
	})

	t.Run("flags still win over environment", func(t *testing.T) {
		ResetConfig()
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--env", "prod", "--host", "cli-db"}))

		cfg, err := LoadConfig(path, flags)
		require.NoError(t, err)
		assert.Equal(t, "cli-db", cfg.Target.Host)
	})

	t.Run("unknown environment", func(t *testing.T) {
		ResetConfig()
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--env", "staging"}))

		_, err := LoadConfig(path, flags)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `environment "staging" is not defined`)
	})
}

func TestLoadConfig_FileBackendPath(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "target:\n  type: sqlite\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), DefaultStoreDir), cfg.Target.Path)

	ResetConfig()
	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--backend", "sqlite", "--path", "/var/lib/leaprdf"}))
	cfg, err = LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/leaprdf", cfg.Target.Path)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		args      []string
		errSubstr string
	}{
		{
			name:      "unknown backend",
			content:   "target:\n  type: oracle\n",
			errSubstr: `unknown backend type "oracle"`,
		},
		{
			name:      "unknown layout",
			args:      []string{"--layout", "tree"},
			errSubstr: `unknown layout "tree"`,
		},
		{
			name:      "unknown output",
			args:      []string{"-o", "xml"},
			errSubstr: `unknown output format "xml"`,
		},
		{
			name:      "zero parallelism",
			args:      []string{"--parallelism", "0"},
			errSubstr: "parallelism must be at least 1",
		},
		{
			name:      "port out of range",
			args:      []string{"--port", "70000"},
			errSubstr: "out of range",
		},
		{
			name:      "malformed yaml",
			content:   "target: [unclosed\n",
			errSubstr: "failed to load config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			content := tt.content
			if content == "" {
				content = "prefix: rdf_\n"
			}
			flags := newFlags()
			require.NoError(t, flags.Parse(tt.args))

			_, err := LoadConfig(writeConfig(t, content), flags)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LEAPRDF_TEST_USER", "alice")

	tests := []struct {
		in   string
		want string
	}{
		{in: "${LEAPRDF_TEST_USER}", want: "alice"},
		{in: "pre-${LEAPRDF_TEST_USER}-post", want: "pre-alice-post"},
		{in: "${LEAPRDF_TEST_UNSET}", want: "${LEAPRDF_TEST_UNSET}"},
		{in: "plain", want: "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnvVars(tt.in), tt.in)
	}
}

func TestApplyTargetDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   TargetConfig
		want TargetConfig
	}{
		{
			name: "empty means mysql",
			in:   TargetConfig{},
			want: TargetConfig{Type: "mysql", Host: "localhost", Port: 3306, User: "root"},
		},
		{
			name: "postgres keeps explicit values",
			in:   TargetConfig{Type: "Postgres", Host: "pg", User: "etl"},
			want: TargetConfig{Type: "postgres", Host: "pg", Port: 5432, User: "etl"},
		},
		{
			name: "duckdb store directory",
			in:   TargetConfig{Type: "duckdb"},
			want: TargetConfig{Type: "duckdb", Path: DefaultStoreDir},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			ApplyTargetDefaults(&got)
			assert.Equal(t, tt.want, got)
		})
	}
}
