package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/custodia-labs/osmdoc/internal/adapters/driven/storage/engine"
	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Documents are kept as compact JSON bodies in insertion order, and _id
// values are unique within the collection.
type DocumentStore struct {
	mu     sync.RWMutex
	name   string
	docs   [][]byte
	ids    map[string]struct{}
	closed bool
}

// NewDocumentStore creates an empty in-memory collection.
func NewDocumentStore(collection string) *DocumentStore {
	return &DocumentStore{name: collection, ids: make(map[string]struct{})}
}

// InsertMany appends documents, assigning an _id to those without one. A
// batch holding an _id already stored, or repeated within the batch, is
// rejected whole.
func (s *DocumentStore) InsertMany(ctx context.Context, docs []json.RawMessage) (int, error) {
	bodies := make([][]byte, 0, len(docs))
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		body, id, err := engine.EnsureID(d, uuid.NewString)
		if err != nil {
			return 0, err
		}
		bodies = append(bodies, body)
		ids = append(ids, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, domain.ErrStoreClosed
	}
	batch := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		_, stored := s.ids[id]
		_, repeated := batch[id]
		if stored || repeated {
			return 0, fmt.Errorf("%w: duplicate _id %q", domain.ErrInvalidInput, id)
		}
		batch[id] = struct{}{}
	}
	for id := range batch {
		s.ids[id] = struct{}{}
	}
	s.docs = append(s.docs, bodies...)
	return len(bodies), nil
}

// Count returns the number of matching documents.
func (s *DocumentStore) Count(_ context.Context, filter domain.Filter) (int64, error) {
	matched, err := s.find(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// FindOne returns the first matching document.
func (s *DocumentStore) FindOne(_ context.Context, filter domain.Filter) (json.RawMessage, error) {
	m, err := engine.Compile(filter)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}
	for _, d := range s.docs {
		ok, err := m.Match(d)
		if err != nil {
			return nil, err
		}
		if ok {
			return json.RawMessage(d), nil
		}
	}
	return nil, domain.ErrNotFound
}

// Distinct returns the distinct values of field among matching documents.
func (s *DocumentStore) Distinct(_ context.Context, field string, filter domain.Filter) ([]any, error) {
	matched, err := s.find(filter)
	if err != nil {
		return nil, err
	}
	return engine.Distinct(matched, field), nil
}

// UnsetMany removes fields from every matching document.
func (s *DocumentStore) UnsetMany(_ context.Context, filter domain.Filter, fields ...string) (int64, error) {
	m, err := engine.Compile(filter)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, domain.ErrStoreClosed
	}

	var modified int64
	for i, d := range s.docs {
		ok, err := m.Match(d)
		if err != nil {
			return modified, err
		}
		if !ok {
			continue
		}
		nd, changed, err := engine.Unset(d, fields...)
		if err != nil {
			return modified, err
		}
		if changed {
			s.docs[i] = nd
			modified++
		}
	}
	return modified, nil
}

// DeleteMany removes every matching document.
func (s *DocumentStore) DeleteMany(_ context.Context, filter domain.Filter) (int64, error) {
	m, err := engine.Compile(filter)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, domain.ErrStoreClosed
	}

	kept := s.docs[:0]
	var deleted int64
	for i, d := range s.docs {
		ok, err := m.Match(d)
		if err != nil {
			// keep the unvisited tail
			s.docs = append(kept, s.docs[i:]...)
			return deleted, err
		}
		if ok {
			delete(s.ids, gjson.GetBytes(d, domain.FieldStoreID).String())
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	s.docs = kept
	return deleted, nil
}

// Aggregate runs the pipeline over the whole collection.
func (s *DocumentStore) Aggregate(_ context.Context, pipeline domain.Pipeline) ([]json.RawMessage, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, domain.ErrStoreClosed
	}
	docs := append([][]byte(nil), s.docs...)
	s.mu.RUnlock()

	out, err := engine.Run(docs, pipeline)
	if err != nil {
		return nil, err
	}
	return toRaw(out), nil
}

// Stats reports the document count and the total body size.
func (s *DocumentStore) Stats(_ context.Context) (domain.CollectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.CollectionStats{}, domain.ErrStoreClosed
	}

	stats := domain.CollectionStats{Name: s.name, Documents: int64(len(s.docs))}
	for _, d := range s.docs {
		stats.SizeBytes += int64(len(d))
	}
	return stats, nil
}

// Drop removes every document.
func (s *DocumentStore) Drop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	s.docs = nil
	s.ids = make(map[string]struct{})
	return nil
}

// Close marks the store closed.
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.docs = nil
	s.ids = nil
	return nil
}

func (s *DocumentStore) find(filter domain.Filter) ([][]byte, error) {
	m, err := engine.Compile(filter)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}
	return m.Filter(s.docs)
}

func toRaw(docs [][]byte) []json.RawMessage {
	out := make([]json.RawMessage, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out
}
