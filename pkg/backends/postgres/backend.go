// Package postgres provides a PostgreSQL store backend for LeapRDF.
//
// Each store is a PostgreSQL database on the configured server.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"
)

// Defaults used when the target leaves them unset.
const (
	DefaultHost          = "localhost"
	DefaultPort          = 5432
	DefaultAdminDatabase = "postgres"
)

// SQLSTATE codes surfaced by CreateStore.
const (
	sqlstateDuplicateDatabase     = "42P04"
	sqlstateInsufficientPrivilege = "42501"
)

var dialect = &backend.Dialect{
	Name:                "postgres",
	Placeholder:         backend.PlaceholderDollar,
	Ignore:              backend.IgnoreOnConflict,
	Quote:               '"',
	MaxIdentifierLength: 63,
}

// Backend implements backend.Backend for PostgreSQL.
type Backend struct {
	backend.BaseSQLBackend
}

// New creates a new PostgreSQL backend instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{
		BaseSQLBackend: backend.BaseSQLBackend{Logger: logger},
	}
}

// Connect establishes a connection to the maintenance database.
// Override it with the "admin_database" option.
func (b *Backend) Connect(ctx context.Context, cfg core.TargetConfig) error {
	admin := DefaultAdminDatabase
	if db, ok := cfg.Options["admin_database"]; ok && db != "" {
		admin = db
	}

	b.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", admin))

	db, err := backend.OpenPool(ctx, "pgx", buildPostgresDSN(cfg, admin))
	if err != nil {
		return err
	}

	b.DB = db
	b.Cfg = cfg
	return nil
}

// ListStores lists the non-template databases.
func (b *Backend) ListStores(ctx context.Context) ([]string, error) {
	return b.QueryStrings(ctx, "SELECT datname FROM pg_database WHERE NOT datistemplate ORDER BY datname")
}

// CreateStore creates the database.
func (b *Backend) CreateStore(ctx context.Context, name string) error {
	b.Logger.Debug("creating database", slog.String("store", name))
	if err := b.Exec(ctx, "CREATE DATABASE "+dialect.QuoteIdent(name)); err != nil {
		return describe(name, err)
	}
	return nil
}

// DropStore drops the database if it exists.
func (b *Backend) DropStore(ctx context.Context, name string) error {
	b.Logger.Debug("dropping database", slog.String("store", name))
	return b.Exec(ctx, "DROP DATABASE IF EXISTS "+dialect.QuoteIdent(name))
}

// OpenStore opens a pool connected to the store database.
func (b *Backend) OpenStore(ctx context.Context, name string) (*sql.DB, error) {
	return backend.OpenPool(ctx, "pgx", buildPostgresDSN(b.Cfg, name))
}

// Dialect returns the PostgreSQL dialect.
func (b *Backend) Dialect() *backend.Dialect {
	return dialect
}

// buildPostgresDSN constructs a keyword/value PostgreSQL connection string.
func buildPostgresDSN(cfg core.TargetConfig, database string) string {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	pairs := []string{
		"host=" + dsnValue(host),
		fmt.Sprintf("port=%d", port),
		"dbname=" + dsnValue(database),
		"sslmode=" + dsnValue(sslmode),
	}
	if cfg.User != "" {
		pairs = append(pairs, "user="+dsnValue(cfg.User))
	}
	if cfg.Password != "" {
		pairs = append(pairs, "password="+dsnValue(cfg.Password))
	}
	return strings.Join(pairs, " ")
}

// dsnValue quotes v by libpq rules when it contains whitespace, a quote or
// a backslash. Plain values are left bare.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r\f\v'\\") {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

// describe adds context to server errors that operators commonly hit.
func describe(name string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case sqlstateDuplicateDatabase:
		return fmt.Errorf("store %s already exists: %w", name, err)
	case sqlstateInsufficientPrivilege:
		return fmt.Errorf("insufficient privilege to create store %s: %w", name, err)
	}
	return err
}

// Ensure Backend implements backend.Backend interface
var _ backend.Backend = (*Backend)(nil)
