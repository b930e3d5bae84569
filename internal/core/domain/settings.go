package domain

import "fmt"

const unknownDescription = "Unknown"

// StreetRewrite selects how a shorthand street suffix is expanded.
type StreetRewrite string

// Available street rewrite modes.
const (
	// StreetRewritePositional replaces only the final token of the street.
	StreetRewritePositional StreetRewrite = "positional"

	// StreetRewriteTextual replaces every occurrence of the final token's
	// text anywhere in the street, as the legacy conversion did.
	StreetRewriteTextual StreetRewrite = "textual"
)

// IsValid returns true if the rewrite mode is recognised.
func (r StreetRewrite) IsValid() bool {
	switch r {
	case StreetRewritePositional, StreetRewriteTextual:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r StreetRewrite) String() string {
	return string(r)
}

// Description returns a human-readable description of the mode.
func (r StreetRewrite) Description() string {
	switch r {
	case StreetRewritePositional:
		return "Positional (final token only)"
	case StreetRewriteTextual:
		return "Textual (every occurrence of the token)"
	default:
		return unknownDescription
	}
}

// GeofenceCompare selects how coordinates are compared with the reference.
type GeofenceCompare string

// Available geofence comparison modes.
const (
	// GeofenceNumeric parses stored coordinates as numbers.
	GeofenceNumeric GeofenceCompare = "numeric"

	// GeofenceLexical compares stored coordinate strings lexicographically.
	GeofenceLexical GeofenceCompare = "lexical"
)

// IsValid returns true if the comparison mode is recognised.
func (g GeofenceCompare) IsValid() bool {
	switch g {
	case GeofenceNumeric, GeofenceLexical:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (g GeofenceCompare) String() string {
	return string(g)
}

// Description returns a human-readable description of the mode.
func (g GeofenceCompare) Description() string {
	switch g {
	case GeofenceNumeric:
		return "Numeric (coordinates parsed as numbers)"
	case GeofenceLexical:
		return "Lexical (coordinates compared as strings)"
	default:
		return unknownDescription
	}
}

// StoreDriver identifies a document store backend.
type StoreDriver string

// Available store drivers.
const (
	// StoreDriverSQLite persists documents in a SQLite database.
	StoreDriverSQLite StoreDriver = "sqlite"

	// StoreDriverMemory keeps documents in process memory.
	StoreDriverMemory StoreDriver = "memory"
)

// IsValid returns true if the driver is recognised.
func (d StoreDriver) IsValid() bool {
	switch d {
	case StoreDriverSQLite, StoreDriverMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d StoreDriver) String() string {
	return string(d)
}

// ConvertSettings configures the conversion pass.
type ConvertSettings struct {
	// Pretty writes each document indented by two spaces.
	Pretty bool

	// StreetRewrite selects the street suffix expansion.
	StreetRewrite StreetRewrite
}

// StoreSettings configures the document store.
type StoreSettings struct {
	// Driver is the store backend.
	Driver StoreDriver

	// Path is the data directory for persistent drivers.
	// Empty means the default location.
	Path string

	// Collection names the document collection.
	Collection string

	// BatchSize is the number of documents inserted per batch on load.
	BatchSize int
}

// AnalysisSettings configures the query battery.
type AnalysisSettings struct {
	// ReferenceLat is the latitude the geofence queries compare against.
	ReferenceLat float64

	// ReferenceLon is the longitude the geofence queries compare against.
	ReferenceLon float64

	// GeofenceCompare selects numeric or lexical coordinate comparison.
	GeofenceCompare GeofenceCompare
}

// Settings is the explicit configuration of a run.
type Settings struct {
	Convert  ConvertSettings
	Store    StoreSettings
	Analysis AnalysisSettings
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Convert: ConvertSettings{
			Pretty:        false,
			StreetRewrite: StreetRewritePositional,
		},
		Store: StoreSettings{
			Driver:     StoreDriverSQLite,
			Collection: "detroit",
			BatchSize:  1000,
		},
		Analysis: AnalysisSettings{
			ReferenceLat:    42.331429,
			ReferenceLon:    -83.045753,
			GeofenceCompare: GeofenceNumeric,
		},
	}
}

// Validate checks every enumerated value and bound.
func (s Settings) Validate() error {
	if !s.Convert.StreetRewrite.IsValid() {
		return fmt.Errorf("%w: street rewrite %q", ErrInvalidInput, s.Convert.StreetRewrite)
	}
	if !s.Store.Driver.IsValid() {
		return fmt.Errorf("%w: store driver %q", ErrUnsupportedType, s.Store.Driver)
	}
	if s.Store.Collection == "" {
		return fmt.Errorf("%w: empty collection name", ErrInvalidInput)
	}
	if s.Store.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidInput)
	}
	if !s.Analysis.GeofenceCompare.IsValid() {
		return fmt.Errorf("%w: geofence compare %q", ErrInvalidInput, s.Analysis.GeofenceCompare)
	}
	if s.Analysis.ReferenceLat < -90 || s.Analysis.ReferenceLat > 90 {
		return fmt.Errorf("%w: reference latitude %f", ErrInvalidInput, s.Analysis.ReferenceLat)
	}
	if s.Analysis.ReferenceLon < -180 || s.Analysis.ReferenceLon > 180 {
		return fmt.Errorf("%w: reference longitude %f", ErrInvalidInput, s.Analysis.ReferenceLon)
	}
	return nil
}
