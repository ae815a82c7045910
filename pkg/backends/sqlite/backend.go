// Package sqlite provides an embedded SQLite store backend for LeapRDF.
//
// Each store is one database file inside the target directory, so the
// directory listing is the catalog.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

// FileExt is the extension of store files.
const FileExt = ".db"

// Params holds SQLite-specific configuration.
// Parsed from core.TargetConfig.Params using mapstructure.
type Params struct {
	// Pragmas applied to every store connection (e.g., synchronous: NORMAL).
	Pragmas map[string]string `mapstructure:"pragmas"`
}

// ParseParams decodes Params from the raw target params.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	if err := mapstructure.Decode(raw, p); err != nil {
		return nil, fmt.Errorf("invalid sqlite params: %w", err)
	}
	return p, nil
}

var dialect = &backend.Dialect{
	Name:                "sqlite",
	Placeholder:         backend.PlaceholderQuestion,
	Ignore:              backend.IgnoreInsertOr,
	Quote:               '"',
	MaxIdentifierLength: 63,
}

// Backend implements backend.Backend for SQLite files.
type Backend struct {
	backend.BaseSQLBackend
	catalog backend.FileCatalog
	params  *Params
}

// New creates a new SQLite backend instance.
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

	catalog := backend.FileCatalog{
		Dir:      cfg.Path,
		Ext:      FileExt,
		Sidecars: []string{"-wal", "-shm", "-journal"},
	}
	if err := catalog.Check(); err != nil {
		return err
	}

	b.Logger.Debug("using sqlite store directory", slog.String("path", cfg.Path))

	b.Cfg = cfg
	b.catalog = catalog
	b.params = params
	return nil
}

// ListStores lists the store files in the directory.
func (b *Backend) ListStores(_ context.Context) ([]string, error) {
	return b.catalog.List()
}

// CreateStore creates the empty store file.
func (b *Backend) CreateStore(_ context.Context, name string) error {
	b.Logger.Debug("creating store file", slog.String("path", b.catalog.Path(name)))
	return b.catalog.Reserve(name)
}

// DropStore removes the store file and its journal files.
func (b *Backend) DropStore(_ context.Context, name string) error {
	b.Logger.Debug("removing store file", slog.String("path", b.catalog.Path(name)))
	return b.catalog.Remove(name)
}

// OpenStore opens the store file. SQLite allows a single writer, so the
// pool is limited to one connection.
func (b *Backend) OpenStore(ctx context.Context, name string) (*sql.DB, error) {
	db, err := backend.OpenPool(ctx, "sqlite", buildDSN(b.catalog.Path(name), b.params))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// Dialect returns the SQLite dialect.
func (b *Backend) Dialect() *backend.Dialect {
	return dialect
}

// buildDSN builds a modernc.org/sqlite URI with pragmas.
func buildDSN(path string, params *Params) string {
	pragmas := map[string]string{
		"busy_timeout": "5000",
		"journal_mode": "WAL",
		"foreign_keys": "1",
	}
	if params != nil {
		for k, v := range params.Pragmas {
			pragmas[k] = v
		}
	}

	keys := make([]string, 0, len(pragmas))
	for k := range pragmas {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		q.Add("_pragma", fmt.Sprintf("%s(%s)", k, pragmas[k]))
	}
	return "file:" + path + "?" + q.Encode()
}

// Ensure Backend implements backend.Backend interface
var _ backend.Backend = (*Backend)(nil)
