// Package sqlite provides a persistent driven.DocumentStore on SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Documents are stored as JSON text and queried with the
// json1 functions: filters compile to json_extract, json_type, json_each
// and json_array_length expressions, $unset compiles to json_remove, and a
// registered to_double scalar function provides numeric coercion. The
// leading $match of a pipeline runs in SQL; the remaining stages run in the
// shared engine package.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.osmdoc/data/documents.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. The store relies on the
// locking SQLite provides in WAL mode.
package sqlite
