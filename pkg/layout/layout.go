// Package layout materializes and writes the physical triple layout of a store.
package layout

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// gooseDialects maps backend dialects to goose dialects. Dialects missing
// here get their migrations applied directly in one transaction.
var gooseDialects = map[string]goose.Dialect{
	"mysql":    goose.DialectMySQL,
	"postgres": goose.DialectPostgres,
	"sqlite":   goose.DialectSQLite3,
}

// Migrations returns the migration files for a layout and dialect.
func Migrations(kind core.LayoutKind, dialect string) (fs.FS, error) {
	dir := path.Join("migrations", string(kind), dialect)
	if _, err := fs.Stat(migrations, dir); err != nil {
		return nil, fmt.Errorf("no %s layout for dialect %s", kind, dialect)
	}
	return fs.Sub(migrations, dir)
}

// Apply creates the layout tables in an empty store.
func Apply(ctx context.Context, db *sql.DB, d *backend.Dialect, kind core.LayoutKind) error {
	fsys, err := Migrations(kind, d.Name)
	if err != nil {
		return err
	}

	gd, ok := gooseDialects[d.Name]
	if !ok {
		return applyDirect(ctx, db, fsys)
	}

	provider, err := goose.NewProvider(gd, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to prepare layout migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run layout migrations: %w", err)
	}
	return nil
}

// applyDirect executes every migration file, in name order, in one transaction.
func applyDirect(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin layout transaction: %w", err)
	}
	for _, name := range files {
		stmt, err := fs.ReadFile(fsys, name)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, string(stmt)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit layout: %w", err)
	}
	return nil
}

// Detect reports which layout an existing store uses.
func Detect(ctx context.Context, db *sql.DB) (core.LayoutKind, error) {
	if tableExists(ctx, db, "nodes") {
		return core.LayoutHash, nil
	}
	if tableExists(ctx, db, "triples") {
		return core.LayoutSimple, nil
	}
	return "", fmt.Errorf("store has no recognizable layout")
}

func tableExists(ctx context.Context, db *sql.DB, table string) bool {
	rows, err := db.QueryContext(ctx, "SELECT 1 FROM "+table+" WHERE 1 = 0")
	if err != nil {
		return false
	}
	_ = rows.Close()
	return true
}

// Count returns the number of statements (triples and quads) in a store.
func Count(ctx context.Context, db *sql.DB) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM triples) + (SELECT COUNT(*) FROM quads)").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count statements: %w", err)
	}
	return n, nil
}
