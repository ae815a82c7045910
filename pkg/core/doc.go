// Package core defines the shared language of the LeapRDF system.
//
// This package contains:
//   - Domain values (DatasetRequest, Handle, LayoutKind, Format)
//   - Collaborator interfaces (CatalogInspector, SchemaManager, BulkLoader)
//   - Configuration types (TargetConfig, ProvisionConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
