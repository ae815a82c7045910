// Package sqlite provides an embedded SQLite store backend for LeapRDF.
//
// This file registers the SQLite backend with the backend registry.
// Import this package with a blank identifier to register the backend:
//
//	import _ "github.com/leapstack-labs/leaprdf/pkg/backends/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/leaprdf/pkg/backend"
)

func init() {
	backend.Register("sqlite", func(logger *slog.Logger) backend.Backend { return New(logger) })
}
