// Package backend provides the database backend contract that stores live in.
//
// A backend knows how to list, create, open and drop whole stores (databases
// or database files). Concrete implementations are in pkg/backends/
// subdirectories and register themselves from init().
package backend

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leaprdf/pkg/core"
)

// Backend defines the interface that all store backends must implement.
type Backend interface {
	// Connect establishes the server-level connection used for catalog and
	// schema operations.
	Connect(ctx context.Context, cfg core.TargetConfig) error

	// Close closes the connection and releases resources.
	Close() error

	// ListStores returns the names of all stores visible in the backend.
	ListStores(ctx context.Context) ([]string, error)

	// CreateStore creates an empty store. It fails if the store exists.
	CreateStore(ctx context.Context, name string) error

	// DropStore removes a store. Dropping a missing store is not an error.
	DropStore(ctx context.Context, name string) error

	// OpenStore opens a connection scoped to one store.
	// The caller owns the returned pool and must close it.
	OpenStore(ctx context.Context, name string) (*sql.DB, error)

	// Dialect returns the SQL dialect used inside stores.
	Dialect() *Dialect
}
