// Package postgres provides a PostgreSQL store backend for LeapRDF.
//
// This file registers the PostgreSQL backend with the backend registry.
// Import this package with a blank identifier to register the backend:
//
//	import _ "github.com/leapstack-labs/leaprdf/pkg/backends/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/leaprdf/pkg/backend"
)

func init() {
	backend.Register("postgres", func(logger *slog.Logger) backend.Backend { return New(logger) })
}
