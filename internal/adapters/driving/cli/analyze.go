package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driving"
)

var (
	analyzeOnly     []string
	analyzeList     bool
	analyzeJSON     bool
	analyzeGeofence string
	analyzeLat      float64
	analyzeLon      float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the query battery against the loaded collection",
	Long: `Runs the ordered battery of exploratory queries against the configured
collection and prints each result as it completes.

Some queries change the collection: they remove empty visible and pos fields
and delete documents whose type is neither node nor way. Later queries see
those changes, so results depend on the order in which queries run.

Geofence queries compare coordinates numerically by default; use
--geofence lexical to compare the stored strings instead.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	addAnalysisFlags(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeList, "list", false, "list the queries without running them")
	rootCmd.AddCommand(analyzeCmd)
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&analyzeOnly, "only", nil, "run only these queries (comma separated)")
	cmd.Flags().BoolVar(&analyzeJSON, "json", false, "print results as JSON lines")
	cmd.Flags().StringVar(&analyzeGeofence, "geofence", "", "coordinate comparison: numeric or lexical")
	cmd.Flags().Float64Var(&analyzeLat, "lat", 0, "reference latitude (default from settings)")
	cmd.Flags().Float64Var(&analyzeLon, "lon", 0, "reference longitude (default from settings)")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	opts, err := analysisOptions(cmd, settings)
	if err != nil {
		return err
	}

	if analyzeList {
		for _, q := range analysisService.Queries(opts.Analysis) {
			marker := ""
			if q.Mutates {
				marker = " (modifies collection)"
			}
			cmd.Printf("%-22s %s%s\n", q.Name, q.Title, marker)
		}
		return nil
	}

	return analyze(cmd, opts)
}

// analysisOptions applies the analysis flags to the configured settings.
func analysisOptions(cmd *cobra.Command, settings *domain.Settings) (driving.AnalysisOptions, error) {
	overridden := *settings
	analysis := &overridden.Analysis
	flags := cmd.Flags()
	if flags.Changed("geofence") {
		analysis.GeofenceCompare = domain.GeofenceCompare(analyzeGeofence)
	}
	if flags.Changed("lat") {
		analysis.ReferenceLat = analyzeLat
	}
	if flags.Changed("lon") {
		analysis.ReferenceLon = analyzeLon
	}
	if err := overridden.Validate(); err != nil {
		return driving.AnalysisOptions{}, err
	}
	return driving.AnalysisOptions{
		Store:    overridden.Store,
		Analysis: overridden.Analysis,
		Only:     analyzeOnly,
	}, nil
}

func analyze(cmd *cobra.Command, opts driving.AnalysisOptions) error {
	out := cmd.OutOrStdout()
	emit := newReporter(out).Result
	if analyzeJSON {
		emit = func(res domain.QueryResult) error { return writeJSONResult(out, res) }
	}

	if err := analysisService.Run(cmd.Context(), opts, emit); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return nil
}
