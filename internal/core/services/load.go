package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driving"
	"github.com/custodia-labs/osmdoc/internal/logger"
)

// Ensure LoadService implements the interface.
var _ driving.LoadService = (*LoadService)(nil)

// LoadService inserts converted documents into a document store.
type LoadService struct {
	stores  driven.DocumentStoreOpener
	metrics driven.MetricsRecorder
}

// NewLoadService creates a new load service.
func NewLoadService(stores driven.DocumentStoreOpener, metrics driven.MetricsRecorder) *LoadService {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &LoadService{stores: stores, metrics: metrics}
}

// Load streams the input into the configured collection in batches.
// Documents already inserted stay in place when a later batch fails.
func (s *LoadService) Load(ctx context.Context, opts driving.LoadOptions) (*domain.LoadResult, error) {
	if opts.Store.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive", domain.ErrInvalidInput)
	}

	f, err := os.Open(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	store, err := s.stores.Open(ctx, opts.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	defer logger.Timed("Load")()
	logger.Info("input %s into %s collection %q", opts.Input, opts.Store.Driver, opts.Store.Collection)
	start := time.Now()

	result := &domain.LoadResult{
		Input:      opts.Input,
		Collection: opts.Store.Collection,
	}

	if opts.Drop {
		if err := store.Drop(ctx); err != nil {
			return nil, fmt.Errorf("drop collection: %w", err)
		}
		result.Dropped = true
		logger.Info("dropped collection %q", opts.Store.Collection)
	}

	batch := make([]json.RawMessage, 0, opts.Store.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := store.InsertMany(ctx, batch)
		if err != nil {
			return fmt.Errorf("insert batch %d: %w", result.Batches+1, err)
		}
		result.Inserted += int64(n)
		result.Batches++
		s.metrics.DocumentsInserted(n)
		logger.Debug("batch %d: %d documents", result.Batches, n)
		if opts.Progress != nil {
			opts.Progress(result.Inserted)
		}
		batch = make([]json.RawMessage, 0, opts.Store.BatchSize)
		return nil
	}

	dec := json.NewDecoder(bufio.NewReader(f))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: document at offset %d: %v", domain.ErrInvalidInput, dec.InputOffset(), err)
		}
		if !isObject(raw) {
			return nil, fmt.Errorf("%w: value at offset %d is not a document", domain.ErrInvalidInput, dec.InputOffset())
		}
		batch = append(batch, raw)
		if len(batch) == opts.Store.BatchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	logger.Info("inserted %d documents in %d batches (%s)", result.Inserted, result.Batches, result.Duration)
	return result, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
