// Package duckdb provides an embedded DuckDB store backend for LeapRDF.
//
// This file registers the DuckDB backend with the backend registry.
// Import this package with a blank identifier to register the backend:
//
//	import _ "github.com/leapstack-labs/leaprdf/pkg/backends/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leaprdf/pkg/backend"
)

func init() {
	backend.Register("duckdb", func(logger *slog.Logger) backend.Backend { return New(logger) })
}
