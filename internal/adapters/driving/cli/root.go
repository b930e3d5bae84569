// Package cli implements the osmdoc command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driving"
	"github.com/custodia-labs/osmdoc/internal/logger"
)

// version is set at build time.
var version = "dev"

// MetricsExporter writes the collected run metrics to a file.
type MetricsExporter interface {
	WriteTextfile(path string) error
}

// Services are the core services the commands drive.
type Services struct {
	Settings driving.SettingsService
	Convert  driving.ConvertService
	Load     driving.LoadService
	Analysis driving.AnalysisService

	// Metrics is exported by --metrics-file. May be nil.
	Metrics MetricsExporter
}

// Bootstrap builds the services for a config directory. An empty
// directory means the default location.
type Bootstrap func(configDir string) (*Services, error)

var (
	settingsService driving.SettingsService
	convertService  driving.ConvertService
	loadService     driving.LoadService
	analysisService driving.AnalysisService
	metricsExporter MetricsExporter
	bootstrap       Bootstrap
)

// Root flags.
var (
	verbose     bool
	configDir   string
	storeDriver string
	storePath   string
	collection  string
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "osmdoc",
	Short: "Convert OpenStreetMap extracts into documents and analyse them",
	Long: `osmdoc converts OpenStreetMap extracts (.osm, .osm.gz, .osm.bz2, .osm.pbf)
into newline-delimited JSON documents, loads them into a document store and
runs an ordered battery of exploratory queries over the loaded collection.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	flags.StringVar(&configDir, "config", "", "config directory (default ~/.osmdoc)")
	flags.StringVar(&storeDriver, "store", "", "document store driver: sqlite or memory")
	flags.StringVar(&storePath, "data-dir", "", "data directory of the sqlite store")
	flags.StringVarP(&collection, "collection", "c", "", "collection name")
	flags.StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics here on success")
}

// Execute runs the root command. Cancelling ctx stops a running
// conversion, load or analysis.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that builds services before a
// command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly.
func SetServices(s *Services) {
	settingsService = s.Settings
	convertService = s.Convert
	loadService = s.Load
	analysisService = s.Analysis
	metricsExporter = s.Metrics
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil {
		return nil
	}
	services, err := bootstrap(configDir)
	if err != nil {
		return fmt.Errorf("failed to initialise: %w", err)
	}
	SetServices(services)
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	if metricsFile == "" || metricsExporter == nil {
		return nil
	}
	if err := metricsExporter.WriteTextfile(metricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	logger.Info("metrics written to %s", metricsFile)
	return nil
}

// resolveSettings returns the persisted settings with root flag overrides
// applied.
func resolveSettings(cmd *cobra.Command) (*domain.Settings, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		settings.Store.Driver = domain.StoreDriver(storeDriver)
	}
	if flags.Changed("data-dir") {
		settings.Store.Path = storePath
	}
	if flags.Changed("collection") {
		settings.Store.Collection = collection
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}
