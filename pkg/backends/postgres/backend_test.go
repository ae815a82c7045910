package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   core.TargetConfig
		database string
		expected string
	}{
		{
			name: "basic connection",
			config: core.TargetConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "user",
				Password: "pass",
			},
			database: "rdf_alpha",
			expected: "host=localhost port=5432 dbname=rdf_alpha sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: core.TargetConfig{
				Host:    "prod.example.com",
				Port:    5432,
				User:    "admin",
				Options: map[string]string{"sslmode": "require"},
			},
			database: "postgres",
			expected: "host=prod.example.com port=5432 dbname=postgres sslmode=require user=admin",
		},
		{
			name:     "defaults",
			config:   core.TargetConfig{},
			database: "rdf_beta",
			expected: "host=localhost port=5432 dbname=rdf_beta sslmode=disable",
		},
		{
			name: "password with space and quote",
			config: core.TargetConfig{
				Host:     "db",
				User:     "rdf",
				Password: `s3cret pass'o\rd`,
			},
			database: "rdf_alpha",
			expected: `host=db port=5432 dbname=rdf_alpha sslmode=disable user=rdf password='s3cret pass\'o\\rd'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config, tt.database))
		})
	}
}

func TestBuildPostgresDSN_ParsesCredentials(t *testing.T) {
	for _, password := range []string{"plain", "s3cret pass", `it's`, `back\slash`, "tab\there"} {
		t.Run(password, func(t *testing.T) {
			cfg := core.TargetConfig{Host: "db", Port: 5433, User: "rdf user", Password: password}

			parsed, err := pgconn.ParseConfig(buildPostgresDSN(cfg, "rdf_alpha"))
			require.NoError(t, err)
			assert.Equal(t, "db", parsed.Host)
			assert.Equal(t, uint16(5433), parsed.Port)
			assert.Equal(t, "rdf user", parsed.User)
			assert.Equal(t, password, parsed.Password)
			assert.Equal(t, "rdf_alpha", parsed.Database)
		})
	}
}

func newMocked(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b := New(nil)
	b.DB = db
	return b, mock
}

func TestBackend_CatalogAndSchema(t *testing.T) {
	ctx := context.Background()
	b, mock := newMocked(t)

	mock.ExpectQuery("SELECT datname FROM pg_database").WillReturnRows(
		sqlmock.NewRows([]string{"datname"}).AddRow("postgres").AddRow("rdf_alpha"))
	mock.ExpectExec(`CREATE DATABASE "rdf_beta"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DROP DATABASE IF EXISTS "rdf_beta"`).WillReturnResult(sqlmock.NewResult(0, 0))

	names, err := b.ListStores(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"postgres", "rdf_alpha"}, names)

	require.NoError(t, b.CreateStore(ctx, "rdf_beta"))
	require.NoError(t, b.DropStore(ctx, "rdf_beta"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_CreateStoreErrors(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		errMsg string
	}{
		{name: "duplicate database", code: sqlstateDuplicateDatabase, errMsg: "already exists"},
		{name: "insufficient privilege", code: sqlstateInsufficientPrivilege, errMsg: "insufficient privilege"},
		{name: "other", code: "XX000", errMsg: "failed to execute SQL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, mock := newMocked(t)
			mock.ExpectExec("CREATE DATABASE").WillReturnError(&pgconn.PgError{Code: tt.code, Message: "boom"})

			err := b.CreateStore(context.Background(), "rdf_alpha")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBackend_NotConnected(t *testing.T) {
	ctx := context.Background()
	b := New(nil)

	_, err := b.ListStores(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not established")

	err = b.CreateStore(ctx, "rdf_alpha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not established")
}

func TestBackend_Registry(t *testing.T) {
	assert.True(t, backend.IsRegistered("postgres"))

	factory, ok := backend.Get("postgres")
	require.True(t, ok)

	pg, ok := factory(nil).(*Backend)
	require.True(t, ok, "factory should return *Backend")
	assert.Equal(t, "postgres", pg.Dialect().Name)
	assert.NoError(t, pg.Close())
}
