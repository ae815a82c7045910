package backend

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leaprdf/pkg/core"
)

// BaseSQLBackend provides common database/sql functionality for server backends.
// Embed this struct in concrete implementations to get standard
// Close, Exec and QueryStrings implementations.
type BaseSQLBackend struct {
	DB     *sql.DB
	Cfg    core.TargetConfig
	Logger *slog.Logger
}

// Close closes the server connection.
func (b *BaseSQLBackend) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing backend connection")
		}
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLBackend) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// QueryStrings runs a query returning a single string column.
func (b *BaseSQLBackend) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// IsConnected returns true if the server connection is established.
func (b *BaseSQLBackend) IsConnected() bool {
	return b.DB != nil
}

// OpenPool opens a pool for driver/dsn and verifies it with a ping.
func OpenPool(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	return db, nil
}
