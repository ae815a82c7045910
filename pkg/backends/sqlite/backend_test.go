package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) *Backend {
	t.Helper()
	b := New(nil)
	require.NoError(t, b.Connect(context.Background(), core.TargetConfig{Type: "sqlite", Path: t.TempDir()}))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_Connect(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(t *testing.T) core.TargetConfig
		wantErr string
	}{
		{
			name: "existing directory",
			cfg: func(t *testing.T) core.TargetConfig {
				return core.TargetConfig{Path: t.TempDir()}
			},
		},
		{
			name: "missing directory",
			cfg: func(t *testing.T) core.TargetConfig {
				return core.TargetConfig{Path: filepath.Join(t.TempDir(), "missing")}
			},
			wantErr: "store directory unavailable",
		},
		{
			name: "bad params",
			cfg: func(t *testing.T) core.TargetConfig {
				return core.TargetConfig{Path: t.TempDir(), Params: map[string]any{"pragmas": 12}}
			},
			wantErr: "invalid sqlite params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(nil).Connect(context.Background(), tt.cfg(t))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBackend_StoreLifecycle(t *testing.T) {
	ctx := context.Background()
	b := connect(t)

	names, err := b.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, b.CreateStore(ctx, "rdf_alpha"))
	require.Error(t, b.CreateStore(ctx, "rdf_alpha"), "creating an existing store must fail")

	db, err := b.OpenStore(ctx, "rdf_alpha")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "CREATE TABLE t (v TEXT)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO t VALUES ('sentinel')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	names, err = b.ListStores(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rdf_alpha"}, names)

	require.NoError(t, b.DropStore(ctx, "rdf_alpha"))
	require.NoError(t, b.DropStore(ctx, "rdf_alpha"), "drop is idempotent")

	names, err = b.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("/data/rdf_alpha.db", &Params{Pragmas: map[string]string{"synchronous": "NORMAL"}})

	assert.Equal(t,
		"file:/data/rdf_alpha.db?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29&_pragma=journal_mode%28WAL%29&_pragma=synchronous%28NORMAL%29",
		dsn)
}

func TestBackend_Registry(t *testing.T) {
	assert.True(t, backend.IsRegistered("sqlite"))
	factory, ok := backend.Get("sqlite")
	require.True(t, ok)
	_, ok = factory(nil).(*Backend)
	assert.True(t, ok)
}
