// Package mysql provides a MySQL store backend for LeapRDF.
//
// This file registers the MySQL backend with the backend registry.
// Import this package with a blank identifier to register the backend:
//
//	import _ "github.com/leapstack-labs/leaprdf/pkg/backends/mysql"
package mysql

import (
	"log/slog"

	"github.com/leapstack-labs/leaprdf/pkg/backend"
)

func init() {
	backend.Register("mysql", func(logger *slog.Logger) backend.Backend { return New(logger) })
}
