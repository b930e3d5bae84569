package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driving"
)

type mockSettingsService struct {
	settings domain.Settings
	getErr   error
	setErr   error
	set      map[string]string
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.Settings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = map[string]string{}
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"convert.pretty", "store.collection"}
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

type mockConvertService struct {
	opts []driving.ConvertOptions
	err  error
}

func (m *mockConvertService) Convert(_ context.Context, opts driving.ConvertOptions) (*domain.ConvertResult, error) {
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	if opts.Progress != nil {
		opts.Progress(domain.ConvertStats{Elements: 3, Points: 2, Paths: 1, Bytes: 300})
	}
	output := opts.Output
	if output == "" {
		output = domain.OutputPath(opts.Input)
	}
	return &domain.ConvertResult{
		Input:  opts.Input,
		Output: output,
		Stats:  domain.ConvertStats{Elements: 3, Points: 2, Paths: 1, Bytes: 300},
	}, nil
}

func (m *mockConvertService) Lines(context.Context, string, domain.ConvertSettings) iter.Seq2[[]byte, error] {
	return func(func([]byte, error) bool) {}
}

func (m *mockConvertService) SupportedFormats() []string {
	return []string{".osm", ".osm.pbf"}
}

type mockLoadService struct {
	opts []driving.LoadOptions
	err  error
}

func (m *mockLoadService) Load(_ context.Context, opts driving.LoadOptions) (*domain.LoadResult, error) {
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.LoadResult{
		Input:      opts.Input,
		Collection: opts.Store.Collection,
		Dropped:    opts.Drop,
		Inserted:   3,
		Batches:    1,
	}, nil
}

type mockAnalysisService struct {
	opts    []driving.AnalysisOptions
	results []domain.QueryResult
	err     error
}

func (m *mockAnalysisService) Queries(domain.AnalysisSettings) []domain.QueryInfo {
	return []domain.QueryInfo{
		{Name: "total", Title: "Total number of documents"},
		{Name: "delete_other_types", Title: "Removing other types", Mutates: true},
	}
}

func (m *mockAnalysisService) Run(
	_ context.Context,
	opts driving.AnalysisOptions,
	emit func(domain.QueryResult) error,
) error {
	m.opts = append(m.opts, opts)
	for _, r := range m.results {
		if err := emit(r); err != nil {
			return err
		}
	}
	return m.err
}

type mockExporter struct {
	paths []string
}

func (m *mockExporter) WriteTextfile(path string) error {
	m.paths = append(m.paths, path)
	return os.WriteFile(path, []byte("osmdoc_output_bytes_total 300\n"), 0o600)
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	settings *mockSettingsService
	convert  *mockConvertService
	load     *mockLoadService
	analysis *mockAnalysisService
	metrics  *mockExporter
}

var mocks *testServices

func sampleResults() []domain.QueryResult {
	return []domain.QueryResult{
		{
			QueryInfo: domain.QueryInfo{Name: "total", Title: "Total number of documents"},
			Kind:      domain.ResultCount,
			Count:     5,
		},
		{
			QueryInfo: domain.QueryInfo{Name: "sample_way", Title: `Sample document of type "way"`},
			Kind:      domain.ResultDocument,
			Document:  json.RawMessage(`{"id":"10","type":"way"}`),
		},
	}
}

// setupTestServices installs mocks and resets every flag. The returned
// function restores the previous services.
func setupTestServices() func() {
	oldSettings, oldConvert, oldLoad, oldAnalysis := settingsService, convertService, loadService, analysisService
	oldMetrics, oldBootstrap := metricsExporter, bootstrap

	mocks = &testServices{
		settings: &mockSettingsService{settings: domain.DefaultSettings()},
		convert:  &mockConvertService{},
		load:     &mockLoadService{},
		analysis: &mockAnalysisService{results: sampleResults()},
		metrics:  &mockExporter{},
	}
	bootstrap = nil
	SetServices(&Services{
		Settings: mocks.settings,
		Convert:  mocks.convert,
		Load:     mocks.load,
		Analysis: mocks.analysis,
		Metrics:  mocks.metrics,
	})
	resetFlags(rootCmd)

	return func() {
		settingsService, convertService, loadService, analysisService = oldSettings, oldConvert, oldLoad, oldAnalysis
		metricsExporter, bootstrap = oldMetrics, oldBootstrap
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag of cmd and its subcommands to its default
// so that one test's flags do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns everything it
// printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
