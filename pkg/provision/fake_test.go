package provision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/leaprdf/pkg/core"
)

// fakeServer is an in-memory backend shared by every session it hands out.
type fakeServer struct {
	mu sync.Mutex

	stores map[string]int64 // store -> records

	// Failure injection, keyed by operation then store name ("" = any store).
	fail map[string]map[string]error
	// block makes an operation wait for context cancellation.
	block map[string]bool

	calls    map[string]int
	sessions int
	closed   int
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		stores: make(map[string]int64),
		fail:   make(map[string]map[string]error),
		block:  make(map[string]bool),
		calls:  make(map[string]int),
	}
}

func (f *fakeServer) failOn(op, store string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[op] == nil {
		f.fail[op] = make(map[string]error)
	}
	f.fail[op][store] = err
}

func (f *fakeServer) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeServer) has(store string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.stores[store]
	return ok
}

func (f *fakeServer) openSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions - f.closed
}

// enter records a call and returns the injected failure, if any.
func (f *fakeServer) enter(ctx context.Context, op, store string) error {
	f.mu.Lock()
	f.calls[op]++
	block := f.block[op]
	err := f.fail[op][store]
	if err == nil {
		err = f.fail[op][""]
	}
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (f *fakeServer) Connect(ctx context.Context) (core.Session, error) {
	if err := f.enter(ctx, "connect", ""); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions++
	return &fakeSession{server: f}, nil
}

type fakeSession struct {
	server *fakeServer
	closed bool
}

func (s *fakeSession) ListStoreNames(ctx context.Context) ([]string, error) {
	if err := s.server.enter(ctx, "list", ""); err != nil {
		return nil, err
	}
	s.server.mu.Lock()
	defer s.server.mu.Unlock()
	names := make([]string, 0, len(s.server.stores))
	for n := range s.server.stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeSession) Create(ctx context.Context, name string, kind core.LayoutKind) (core.Handle, error) {
	if err := s.server.enter(ctx, "create", name); err != nil {
		// A failed create may leave the store half made.
		s.server.mu.Lock()
		s.server.stores[name] = 0
		s.server.mu.Unlock()
		return core.Handle{}, err
	}
	s.server.mu.Lock()
	defer s.server.mu.Unlock()
	if _, ok := s.server.stores[name]; ok {
		return core.Handle{}, fmt.Errorf("store %s already exists", name)
	}
	s.server.stores[name] = 0
	return core.Handle{Backend: "fake", Name: name, Layout: kind, Created: true}, nil
}

func (s *fakeSession) Open(ctx context.Context, name string) (core.Handle, error) {
	if err := s.server.enter(ctx, "open", name); err != nil {
		return core.Handle{}, err
	}
	s.server.mu.Lock()
	defer s.server.mu.Unlock()
	n, ok := s.server.stores[name]
	if !ok {
		return core.Handle{}, errors.New("no such store")
	}
	return core.Handle{Backend: "fake", Name: name, Layout: core.LayoutHash, Records: n}, nil
}

func (s *fakeSession) Drop(ctx context.Context, name string) error {
	if err := s.server.enter(ctx, "drop", name); err != nil {
		return err
	}
	s.server.mu.Lock()
	defer s.server.mu.Unlock()
	delete(s.server.stores, name)
	return nil
}

func (s *fakeSession) Load(ctx context.Context, h core.Handle, source string, _ core.Format) (int64, error) {
	if err := s.server.enter(ctx, "load", h.Name); err != nil {
		// Rows written before the failure stay until the store is dropped.
		s.server.mu.Lock()
		s.server.stores[h.Name] = 1
		s.server.mu.Unlock()
		return 0, err
	}
	s.server.mu.Lock()
	defer s.server.mu.Unlock()
	n := int64(len(source))
	s.server.stores[h.Name] = n
	return n, nil
}

func (s *fakeSession) Close() error {
	s.server.mu.Lock()
	defer s.server.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.server.closed++
	}
	return nil
}
