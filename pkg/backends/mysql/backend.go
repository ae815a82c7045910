// Package mysql provides a MySQL store backend for LeapRDF.
//
// Each store is a MySQL database on the configured server.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"
)

// Defaults match a stock local server.
const (
	DefaultHost = "localhost"
	DefaultPort = 3306
	DefaultUser = "root"
)

// MySQL server error numbers surfaced by CreateStore.
const (
	errDBCreateExists = 1007
	errAccessDenied   = 1044
)

// Params holds MySQL-specific configuration.
// Parsed from core.TargetConfig.Params using mapstructure.
type Params struct {
	// Charset of created databases (default utf8mb4).
	Charset string `mapstructure:"charset"`

	// Collation of created databases.
	Collation string `mapstructure:"collation"`

	// TLS is passed through to the driver ("true", "skip-verify", or a registered config).
	TLS string `mapstructure:"tls"`
}

// ParseParams decodes Params from the raw target params.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	if err := mapstructure.Decode(raw, p); err != nil {
		return nil, fmt.Errorf("invalid mysql params: %w", err)
	}
	return p, nil
}

var dialect = &backend.Dialect{
	Name:                "mysql",
	Placeholder:         backend.PlaceholderQuestion,
	Ignore:              backend.IgnoreInsertIgnore,
	Quote:               '`',
	MaxIdentifierLength: 64,
}

// Backend implements backend.Backend for MySQL.
type Backend struct {
	backend.BaseSQLBackend
	params *Params
}

// New creates a new MySQL backend instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{
		BaseSQLBackend: backend.BaseSQLBackend{Logger: logger},
	}
}

// Connect establishes a server-level connection (no default database).
func (b *Backend) Connect(ctx context.Context, cfg core.TargetConfig) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	b.Logger.Debug("connecting to mysql", slog.String("address", buildAddr(cfg)))

	db, err := backend.OpenPool(ctx, "mysql", buildDSN(cfg, params, ""))
	if err != nil {
		return err
	}

	b.DB = db
	b.Cfg = cfg
	b.params = params
	return nil
}

// ListStores lists the databases on the server.
func (b *Backend) ListStores(ctx context.Context) ([]string, error) {
	return b.QueryStrings(ctx, "SHOW DATABASES")
}

// CreateStore creates the database.
func (b *Backend) CreateStore(ctx context.Context, name string) error {
	stmt := "CREATE DATABASE " + dialect.QuoteIdent(name)
	if b.params != nil {
		if cs := b.charset(); cs != "" {
			stmt += " CHARACTER SET " + cs
		}
		if b.params.Collation != "" {
			stmt += " COLLATE " + b.params.Collation
		}
	}
	b.Logger.Debug("creating database", slog.String("store", name))
	if err := b.Exec(ctx, stmt); err != nil {
		return describe(name, err)
	}
	return nil
}

// DropStore drops the database if it exists.
func (b *Backend) DropStore(ctx context.Context, name string) error {
	b.Logger.Debug("dropping database", slog.String("store", name))
	return b.Exec(ctx, "DROP DATABASE IF EXISTS "+dialect.QuoteIdent(name))
}

// OpenStore opens a pool whose default database is the store.
func (b *Backend) OpenStore(ctx context.Context, name string) (*sql.DB, error) {
	return backend.OpenPool(ctx, "mysql", buildDSN(b.Cfg, b.params, name))
}

// Dialect returns the MySQL dialect.
func (b *Backend) Dialect() *backend.Dialect {
	return dialect
}

func (b *Backend) charset() string {
	if b.params.Charset != "" {
		return b.params.Charset
	}
	return "utf8mb4"
}

// buildDSN constructs a go-sql-driver DSN for the target and database.
func buildDSN(cfg core.TargetConfig, params *Params, dbName string) string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = buildAddr(cfg)
	mc.User = cfg.User
	if mc.User == "" {
		mc.User = DefaultUser
	}
	mc.Passwd = cfg.Password
	mc.DBName = dbName
	mc.ParseTime = true
	if params != nil && params.TLS != "" {
		mc.TLSConfig = params.TLS
	}
	if len(cfg.Options) > 0 {
		mc.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}

func buildAddr(cfg core.TargetConfig) string {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// describe adds context to server errors that operators commonly hit.
func describe(name string, err error) error {
	var merr *mysql.MySQLError
	if !errors.As(err, &merr) {
		return err
	}
	switch merr.Number {
	case errDBCreateExists:
		return fmt.Errorf("store %s already exists: %w", name, err)
	case errAccessDenied:
		return fmt.Errorf("insufficient privilege to create store %s: %w", name, err)
	}
	return err
}

// Ensure Backend implements backend.Backend interface
var _ backend.Backend = (*Backend)(nil)
