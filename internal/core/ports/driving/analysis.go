package driving

import (
	"context"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

// AnalysisOptions configures one run of the query battery.
type AnalysisOptions struct {
	Store    domain.StoreSettings
	Analysis domain.AnalysisSettings

	// Only restricts the run to the named queries. Battery order is kept.
	Only []string
}

// AnalysisService runs the ordered query battery against a loaded
// collection.
type AnalysisService interface {
	// Queries lists the battery in run order.
	Queries(settings domain.AnalysisSettings) []domain.QueryInfo

	// Run executes the selected queries in order, passing each result to
	// emit as soon as it is available. The first query or emit error
	// aborts the run; mutations already applied are not undone.
	Run(ctx context.Context, opts AnalysisOptions, emit func(domain.QueryResult) error) error
}
