package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driving"
	"github.com/custodia-labs/osmdoc/internal/logger"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// AnalysisService runs the query battery against a loaded collection.
type AnalysisService struct {
	stores  driven.DocumentStoreOpener
	metrics driven.MetricsRecorder
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(stores driven.DocumentStoreOpener, metrics driven.MetricsRecorder) *AnalysisService {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &AnalysisService{stores: stores, metrics: metrics}
}

// Queries lists the battery in run order.
func (s *AnalysisService) Queries(settings domain.AnalysisSettings) []domain.QueryInfo {
	queries := battery(settings)
	infos := make([]domain.QueryInfo, len(queries))
	for i, q := range queries {
		infos[i] = q.info
	}
	return infos
}

// Run executes the selected queries in order.
func (s *AnalysisService) Run(
	ctx context.Context,
	opts driving.AnalysisOptions,
	emit func(domain.QueryResult) error,
) error {
	if !opts.Analysis.GeofenceCompare.IsValid() {
		return fmt.Errorf("%w: geofence compare %q", domain.ErrInvalidInput, opts.Analysis.GeofenceCompare)
	}
	queries, err := selectQueries(battery(opts.Analysis), opts.Only)
	if err != nil {
		return err
	}

	store, err := s.stores.Open(ctx, opts.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	defer logger.Timed("Analyze")()
	logger.Info("%d queries against %s collection %q (geofence %s)",
		len(queries), opts.Store.Driver, opts.Store.Collection, opts.Analysis.GeofenceCompare)

	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		res, err := q.run(ctx, store)
		if err != nil {
			return fmt.Errorf("query %s: %w", q.info.Name, err)
		}
		res.QueryInfo = q.info
		res.Duration = time.Since(start)
		s.metrics.QueryCompleted(q.info.Name, res.Duration)
		logger.Debug("%s: %s in %s", q.info.Name, res.Kind, res.Duration)

		if err := emit(res); err != nil {
			return err
		}
	}
	return nil
}

// selectQueries keeps the named queries in battery order. An empty
// selection keeps every query.
func selectQueries(queries []query, only []string) ([]query, error) {
	if len(only) == 0 {
		return queries, nil
	}

	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[name] = true
	}

	var selected []query
	for _, q := range queries {
		if wanted[q.info.Name] {
			selected = append(selected, q)
			delete(wanted, q.info.Name)
		}
	}
	for _, name := range only {
		if wanted[name] {
			return nil, fmt.Errorf("%w: unknown query %q", domain.ErrUnsupportedType, name)
		}
	}
	return selected, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
