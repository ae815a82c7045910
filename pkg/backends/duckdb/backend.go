// Package duckdb provides an embedded DuckDB store backend for LeapRDF.
//
// Each store is one DuckDB file inside the target directory.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// FileExt is the extension of store files.
const FileExt = ".duckdb"

var dialect = &backend.Dialect{
	Name:                "duckdb",
	Placeholder:         backend.PlaceholderQuestion,
	Ignore:              backend.IgnoreInsertOr,
	Quote:               '"',
	MaxIdentifierLength: 63,
}

// Backend implements backend.Backend for DuckDB files.
type Backend struct {
	backend.BaseSQLBackend
	catalog backend.FileCatalog
	params  *Params
}

// New creates a new DuckDB backend instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{
		BaseSQLBackend: backend.BaseSQLBackend{Logger: logger},
	}
}

// Connect checks the store directory. No server connection is held.
func (b *Backend) Connect(_ context.Context, cfg core.TargetConfig) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	catalog := backend.FileCatalog{Dir: cfg.Path, Ext: FileExt, Sidecars: []string{".wal"}}
	if err := catalog.Check(); err != nil {
		return err
	}

	b.Cfg = cfg
	b.catalog = catalog
	b.params = params
	return nil
}

// ListStores lists the store files in the directory.
func (b *Backend) ListStores(_ context.Context) ([]string, error) {
	return b.catalog.List()
}

// CreateStore creates the store database file.
// An empty file is not a valid DuckDB database, so the file is initialized
// by opening it once.
func (b *Backend) CreateStore(ctx context.Context, name string) error {
	if err := b.catalog.Reserve(name); err != nil {
		return err
	}
	// Reserve guarded against collisions; DuckDB needs to write its own header.
	if err := b.catalog.Remove(name); err != nil {
		return err
	}
	db, err := backend.OpenPool(ctx, "duckdb", b.catalog.Path(name))
	if err != nil {
		return err
	}
	return db.Close()
}

// DropStore removes the store file and its WAL.
func (b *Backend) DropStore(_ context.Context, name string) error {
	return b.catalog.Remove(name)
}

// OpenStore opens the store file and applies configured settings.
func (b *Backend) OpenStore(ctx context.Context, name string) (*sql.DB, error) {
	db, err := backend.OpenPool(ctx, "duckdb", b.catalog.Path(name))
	if err != nil {
		return nil, err
	}
	// Settings are per connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range settingStatements(b.params) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply duckdb setting: %w", err)
		}
	}
	return db, nil
}

// Dialect returns the DuckDB dialect.
func (b *Backend) Dialect() *backend.Dialect {
	return dialect
}

// settingStatements renders SET statements in a stable order.
func settingStatements(p *Params) []string {
	if p == nil || len(p.Settings) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stmts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := strings.ReplaceAll(p.Settings[k], "'", "''")
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", k, v))
	}
	return stmts
}

// Ensure Backend implements backend.Backend interface
var _ backend.Backend = (*Backend)(nil)
