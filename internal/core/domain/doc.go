// Package domain defines the core entities for osmdoc.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Element: A parsed map element (point, path or child) from an extract
//   - Document: The flat, normalised form of a point or path
//   - Filter and Pipeline: The query model understood by document stores
//   - Settings: The explicit run configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
