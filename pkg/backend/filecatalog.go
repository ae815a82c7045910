package backend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// FileCatalog keeps one database file per store in a single directory.
// It backs the embedded engines, where "the catalog" is the directory listing.
type FileCatalog struct {
	Dir string
	Ext string // including the dot, e.g. ".db"

	// Sidecars are suffixes of companion files removed with the store
	// (e.g. "-wal", "-shm").
	Sidecars []string
}

// Check verifies the catalog directory exists.
func (c FileCatalog) Check() error {
	if c.Dir == "" {
		return fmt.Errorf("store directory not configured (set target.path)")
	}
	info, err := os.Stat(c.Dir)
	if err != nil {
		return fmt.Errorf("store directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store directory %s is not a directory", c.Dir)
	}
	return nil
}

// Path returns the file backing the named store.
func (c FileCatalog) Path(name string) string {
	return filepath.Join(c.Dir, name+c.Ext)
}

// List returns the store names present in the directory.
func (c FileCatalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), c.Ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), c.Ext))
	}
	sort.Strings(names)
	return names, nil
}

// Reserve creates the empty store file, failing if it already exists.
func (c FileCatalog) Reserve(name string) error {
	f, err := os.OpenFile(c.Path(name), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("store %s already exists", name)
		}
		return fmt.Errorf("failed to create store file: %w", err)
	}
	return f.Close()
}

// Remove deletes the store file and its sidecars. Missing files are ignored.
func (c FileCatalog) Remove(name string) error {
	base := c.Path(name)
	var err error
	for _, p := range append([]string{base}, c.sidecarPaths(base)...) {
		if rerr := os.Remove(p); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			err = multierr.Append(err, rerr)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to remove store %s: %w", name, err)
	}
	return nil
}

func (c FileCatalog) sidecarPaths(base string) []string {
	out := make([]string, 0, len(c.Sidecars))
	for _, s := range c.Sidecars {
		out = append(out, base+s)
	}
	return out
}
