package driven

import (
	"context"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

// ElementScanner streams the eligible top-level elements of an extract.
// It is single-pass, forward-only and cannot be restarted.
//
// Usage follows bufio.Scanner:
//
//	for s.Scan() {
//		el := s.Element()
//	}
//	if err := s.Err(); err != nil { ... }
type ElementScanner interface {
	// Scan advances to the next eligible element. It returns false at the
	// end of input or on error.
	Scan() bool

	// Element returns the current element. The element is only valid until
	// the next call to Scan.
	Element() *domain.Element

	// Err returns the first error encountered, nil at a clean end of input.
	Err() error

	// Close releases the underlying input.
	Close() error
}

// ScannerFactory opens a scanner for an input file, choosing the decoder
// from the file name.
type ScannerFactory interface {
	// Open returns a scanner over the file at path.
	Open(ctx context.Context, path string) (ElementScanner, error)

	// SupportedFormats lists the recognised file suffixes.
	SupportedFormats() []string
}
