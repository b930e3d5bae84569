package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

func TestRootCmd_StoreFlags(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()

	_, err := execute(t, "load", "--store", "sqlite", "--data-dir", dir, "--collection", "flint", "docs.json")

	require.NoError(t, err)
	store := mocks.load.opts[0].Store
	assert.Equal(t, domain.StoreDriverSQLite, store.Driver)
	assert.Equal(t, dir, store.Path)
	assert.Equal(t, "flint", store.Collection)
}

func TestRootCmd_EmptyCollectionRejected(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "load", "--collection", "", "docs.json")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRootCmd_MetricsFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := filepath.Join(t.TempDir(), "osmdoc.prom")

	_, err := execute(t, "--metrics-file", path, "convert", "detroit.osm")

	require.NoError(t, err)
	assert.Equal(t, []string{path}, mocks.metrics.paths)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "osmdoc_output_bytes_total")
}

func TestRootCmd_MetricsFileSkippedOnError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.convert.err = domain.ErrMalformedElement
	path := filepath.Join(t.TempDir(), "osmdoc.prom")

	_, err := execute(t, "--metrics-file", path, "convert", "detroit.osm")

	require.Error(t, err)
	assert.Empty(t, mocks.metrics.paths)
	assert.NoFileExists(t, path)
}

func TestRootCmd_Bootstrap(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	var gotDir string
	bootstrap = func(dir string) (*Services, error) {
		gotDir = dir
		return &Services{
			Settings: mocks.settings,
			Convert:  mocks.convert,
			Load:     mocks.load,
			Analysis: mocks.analysis,
		}, nil
	}

	_, err := execute(t, "--config", "/tmp/osmdoc-test", "version")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/osmdoc-test", gotDir)
}

func TestRootCmd_BootstrapError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	bootstrap = func(string) (*Services, error) {
		return nil, errors.New("config unreadable")
	}

	_, err := execute(t, "convert", "detroit.osm")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialise: config unreadable")
	assert.Empty(t, mocks.convert.opts)
}

func TestSetServices(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	SetServices(&Services{})

	assert.Nil(t, settingsService)
	assert.Nil(t, convertService)
	assert.Nil(t, loadService)
	assert.Nil(t, analysisService)
	assert.Nil(t, metricsExporter)
}
