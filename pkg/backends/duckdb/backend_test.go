package duckdb

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_StoreLifecycle(t *testing.T) {
	ctx := context.Background()
	b := New(nil)
	require.NoError(t, b.Connect(ctx, core.TargetConfig{Type: "duckdb", Path: t.TempDir()}))
	defer func() { _ = b.Close() }()

	require.NoError(t, b.CreateStore(ctx, "rdf_alpha"))
	require.Error(t, b.CreateStore(ctx, "rdf_alpha"))

	db, err := b.OpenStore(ctx, "rdf_alpha")
	require.NoError(t, err)
	var one int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
	require.NoError(t, db.Close())

	names, err := b.ListStores(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rdf_alpha"}, names)

	require.NoError(t, b.DropStore(ctx, "rdf_alpha"))
	names, err = b.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestBackend_Registry(t *testing.T) {
	assert.True(t, backend.IsRegistered("duckdb"))
	factory, ok := backend.Get("duckdb")
	require.True(t, ok)
	d, ok := factory(nil).(*Backend)
	require.True(t, ok)
	assert.Equal(t, "duckdb", d.Dialect().Name)
}
