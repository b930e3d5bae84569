package domain

import (
	"encoding/json"
	"time"
)

// ResultKind identifies what a battery query produced.
type ResultKind string

// Result kinds.
const (
	// ResultStats carries collection statistics.
	ResultStats ResultKind = "stats"

	// ResultCount carries a document count.
	ResultCount ResultKind = "count"

	// ResultDocument carries one sample document.
	ResultDocument ResultKind = "document"

	// ResultValues carries distinct values.
	ResultValues ResultKind = "values"

	// ResultRows carries aggregation output.
	ResultRows ResultKind = "rows"

	// ResultModified carries the number of documents a mutation touched,
	// optionally followed by a sample document.
	ResultModified ResultKind = "modified"
)

// String returns the string representation.
func (k ResultKind) String() string {
	return string(k)
}

// QueryInfo names one query of the analysis battery.
type QueryInfo struct {
	// Name is the short identifier used to select the query.
	Name string

	// Title is the heading printed above the result.
	Title string

	// Mutates is true for queries that change the collection.
	Mutates bool
}

// QueryResult is the outcome of one battery query. Only the members
// matching Kind are set, plus Document for a ResultModified sample.
type QueryResult struct {
	QueryInfo

	Kind     ResultKind
	Count    int64
	Stats    CollectionStats
	Document json.RawMessage
	Values   []any
	Rows     []json.RawMessage
	Duration time.Duration
}
