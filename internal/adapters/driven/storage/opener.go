// Package storage opens the document store a run is configured for.
//
// The sqlite driver opens the database on every call and the returned
// store closes it. The memory driver keeps one collection per name for
// the life of the Opener so that a load and a later analysis in the same
// process see the same documents.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/osmdoc/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/osmdoc/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
)

// Ensure Opener implements the interface.
var _ driven.DocumentStoreOpener = (*Opener)(nil)

// Opener opens document stores by driver.
type Opener struct {
	mu     sync.Mutex
	memory map[string]*memory.DocumentStore
}

// NewOpener creates an opener with no open memory collections.
func NewOpener() *Opener {
	return &Opener{memory: make(map[string]*memory.DocumentStore)}
}

// Open returns a store for settings.Collection.
func (o *Opener) Open(_ context.Context, settings domain.StoreSettings) (driven.DocumentStore, error) {
	if settings.Collection == "" {
		return nil, fmt.Errorf("%w: empty collection name", domain.ErrInvalidInput)
	}

	switch settings.Driver {
	case domain.StoreDriverSQLite:
		store, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, err
		}
		return store.DocumentStore(settings.Collection), nil
	case domain.StoreDriverMemory:
		o.mu.Lock()
		defer o.mu.Unlock()
		store, ok := o.memory[settings.Collection]
		if !ok {
			store = memory.NewDocumentStore(settings.Collection)
			o.memory[settings.Collection] = store
		}
		return shared{store}, nil
	default:
		return nil, fmt.Errorf("%w: store driver %q", domain.ErrUnsupportedType, settings.Driver)
	}
}

// Close releases every memory collection.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for name, store := range o.memory {
		_ = store.Close()
		delete(o.memory, name)
	}
	return nil
}

// shared hands out a memory collection without letting callers close it.
type shared struct {
	*memory.DocumentStore
}

// Close is a no-op; the Opener owns the collection.
func (shared) Close() error { return nil }
