// Package store binds a backend, the layouts and the loader into the
// sessions the provisioner works with.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leaprdf/pkg/backend"
	"github.com/leapstack-labs/leaprdf/pkg/core"
	"github.com/leapstack-labs/leaprdf/pkg/layout"
	"github.com/leapstack-labs/leaprdf/pkg/loader"
	"go.uber.org/multierr"
)

// Connector opens sessions against one configured target.
type Connector struct {
	target core.TargetConfig
	loader *loader.Loader
	logger *slog.Logger
}

// NewConnector creates a connector. If logger is nil, a discard logger is used.
func NewConnector(target core.TargetConfig, batchSize int, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Connector{
		target: target,
		loader: loader.New(batchSize, logger),
		logger: logger,
	}
}

// Connect creates the backend and opens its admin connection.
func (c *Connector) Connect(ctx context.Context) (core.Session, error) {
	b, err := backend.New(c.target, c.logger)
	if err != nil {
		return nil, err
	}
	if err := b.Connect(ctx, c.target); err != nil {
		_ = b.Close()
		return nil, err
	}
	return &Session{
		backend: b,
		target:  c.target,
		loader:  c.loader,
		logger:  c.logger,
	}, nil
}

// Session implements core.Session over a backend. Store pools are opened
// per operation and closed before the operation returns.
type Session struct {
	backend backend.Backend
	target  core.TargetConfig
	loader  *loader.Loader
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// ListStoreNames queries the backend catalog.
func (s *Session) ListStoreNames(ctx context.Context) ([]string, error) {
	names, err := s.backend.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return names, nil
}

// Create creates the store and applies the layout. A partially created
// store is left for the caller to drop.
func (s *Session) Create(ctx context.Context, name string, kind core.LayoutKind) (core.Handle, error) {
	if limit := s.backend.Dialect().MaxIdentifierLength; limit > 0 && len(name) > limit {
		return core.Handle{}, fmt.Errorf("store name %s exceeds the %s limit of %d bytes", name, s.backend.Dialect().Name, limit)
	}
	if err := s.backend.CreateStore(ctx, name); err != nil {
		return core.Handle{}, fmt.Errorf("failed to create store %s: %w", name, err)
	}

	err := s.withStore(ctx, name, func(db *sql.DB) error {
		s.logger.Debug("creating layout", slog.String("store", name), slog.String("layout", string(kind)))
		return layout.Apply(ctx, db, s.backend.Dialect(), kind)
	})
	if err != nil {
		return core.Handle{}, fmt.Errorf("failed to create layout in %s: %w", name, err)
	}

	h := s.handle(name, kind)
	h.Created = true
	return h, nil
}

// Open describes an existing store.
func (s *Session) Open(ctx context.Context, name string) (core.Handle, error) {
	var h core.Handle
	err := s.withStore(ctx, name, func(db *sql.DB) error {
		kind, err := layout.Detect(ctx, db)
		if err != nil {
			return err
		}
		n, err := layout.Count(ctx, db)
		if err != nil {
			return err
		}
		h = s.handle(name, kind)
		h.Records = n
		return nil
	})
	if err != nil {
		return core.Handle{}, fmt.Errorf("failed to open store %s: %w", name, err)
	}
	return h, nil
}

// Drop removes the store if it exists.
func (s *Session) Drop(ctx context.Context, name string) error {
	if err := s.backend.DropStore(ctx, name); err != nil {
		return fmt.Errorf("failed to drop store %s: %w", name, err)
	}
	return nil
}

// Load streams source into the store described by h and returns the number
// of statements the store holds afterwards.
func (s *Session) Load(ctx context.Context, h core.Handle, source string, format core.Format) (int64, error) {
	var total int64
	err := s.withStore(ctx, h.Name, func(db *sql.DB) error {
		s.logger.Debug("populating store", slog.String("store", h.Name), slog.String("source", source))
		if _, err := s.loader.Load(ctx, db, s.backend.Dialect(), h.Layout, source, format); err != nil {
			return err
		}
		n, err := layout.Count(ctx, db)
		if err != nil {
			return err
		}
		total = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load %s into %s: %w", source, h.Name, err)
	}
	return total, nil
}

// Close closes the admin connection. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.backend.Close()
	})
	return s.closeErr
}

// withStore opens a pool scoped to one store for the duration of fn.
func (s *Session) withStore(ctx context.Context, name string, fn func(*sql.DB) error) (err error) {
	db, err := s.backend.OpenStore(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()
	return fn(db)
}

func (s *Session) handle(name string, kind core.LayoutKind) core.Handle {
	return core.Handle{
		Backend: s.target.Type,
		Address: s.target.Address(),
		Name:    name,
		Layout:  kind,
	}
}

var (
	_ core.Connector = (*Connector)(nil)
	_ core.Session   = (*Session)(nil)
)
