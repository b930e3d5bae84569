package driving

import (
	"context"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

// LoadOptions configures one load.
type LoadOptions struct {
	// Input is a converted document file, compact or pretty.
	Input string

	// Drop empties the collection before inserting.
	Drop bool

	Store domain.StoreSettings

	// Progress, when set, is called after each inserted batch with the
	// running total.
	Progress func(inserted int64)
}

// LoadService inserts converted documents into a document store.
type LoadService interface {
	// Load streams the input into the configured collection in batches.
	Load(ctx context.Context, opts LoadOptions) (*domain.LoadResult, error)
}
