package core

import "context"

// CatalogInspector lists the stores that exist in a backend.
type CatalogInspector interface {
	ListStoreNames(ctx context.Context) ([]string, error)
}

// SchemaManager creates, opens and drops named stores.
type SchemaManager interface {
	// Create creates the store and materializes its layout.
	Create(ctx context.Context, name string, layout LayoutKind) (Handle, error)

	// Open returns a handle to an existing store.
	Open(ctx context.Context, name string) (Handle, error)

	// Drop removes the store. Dropping a missing store is not an error.
	Drop(ctx context.Context, name string) error
}

// BulkLoader streams a source into an already created store.
type BulkLoader interface {
	Load(ctx context.Context, h Handle, source string, format Format) (int64, error)
}

// Session is one scoped set of backend connections.
// Close releases everything the session opened.
type Session interface {
	CatalogInspector
	SchemaManager
	BulkLoader
	Close() error
}

// Connector opens sessions against the configured backend.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}
