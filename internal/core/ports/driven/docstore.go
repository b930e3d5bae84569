package driven

import (
	"context"
	"encoding/json"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

// DocumentStore persists normalised documents in one collection and answers
// filter and aggregation queries over them.
// Every call is an independent round trip; there is no transactional
// grouping across calls.
type DocumentStore interface {
	// InsertMany stores documents in order, assigning an _id to those
	// without one. Returns the number inserted.
	InsertMany(ctx context.Context, docs []json.RawMessage) (int, error)

	// Count returns the number of documents matching the filter.
	Count(ctx context.Context, filter domain.Filter) (int64, error)

	// FindOne returns the first matching document in insertion order.
	// Returns domain.ErrNotFound when nothing matches.
	FindOne(ctx context.Context, filter domain.Filter) (json.RawMessage, error)

	// Distinct returns the distinct values of field among matching
	// documents, in first-seen order. Array values contribute their elements.
	Distinct(ctx context.Context, field string, filter domain.Filter) ([]any, error)

	// UnsetMany removes fields from every matching document.
	// Returns the number of documents modified.
	UnsetMany(ctx context.Context, filter domain.Filter, fields ...string) (int64, error)

	// DeleteMany removes every matching document. Returns the number removed.
	DeleteMany(ctx context.Context, filter domain.Filter) (int64, error)

	// Aggregate runs a pipeline and returns the resulting documents.
	Aggregate(ctx context.Context, pipeline domain.Pipeline) ([]json.RawMessage, error)

	// Stats summarises the collection.
	Stats(ctx context.Context) (domain.CollectionStats, error)

	// Drop removes every document from the collection.
	Drop(ctx context.Context) error

	// Close releases the store.
	Close() error
}

// DocumentStoreOpener opens the document store a run is configured for.
type DocumentStoreOpener interface {
	// Open returns a store for settings.Collection. Returns
	// domain.ErrUnsupportedType for an unknown driver.
	Open(ctx context.Context, settings domain.StoreSettings) (DocumentStore, error)
}
