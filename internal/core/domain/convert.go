package domain

import "time"

// OutputSuffix is appended to the input path to name the converted output.
const OutputSuffix = ".json"

// OutputPath returns the converted output path for an input extract.
func OutputPath(input string) string {
	return input + OutputSuffix
}

// ConvertStats counts what a conversion pass has done so far.
type ConvertStats struct {
	// Elements is the number of eligible elements read.
	Elements int64

	// Points is the number of point documents written.
	Points int64

	// Paths is the number of path documents written.
	Paths int64

	// Bytes is the number of bytes written, newlines included.
	Bytes int64
}

// Documents returns the number of documents written.
func (s ConvertStats) Documents() int64 {
	return s.Points + s.Paths
}

// ConvertResult describes a finished conversion.
type ConvertResult struct {
	Input    string
	Output   string
	Stats    ConvertStats
	Duration time.Duration
}

// LoadResult describes a finished load into a document store.
type LoadResult struct {
	Input      string
	Collection string

	// Dropped is true when the collection was emptied first.
	Dropped bool

	// Inserted is the number of documents stored.
	Inserted int64

	// Batches is the number of insert round trips.
	Batches int

	Duration time.Duration
}
