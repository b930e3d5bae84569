package connectors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/osmdoc/internal/connectors/osmxml"
	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

func TestFactory_SupportedFormats(t *testing.T) {
	assert.Equal(t, []string{".osm", ".osm.gz", ".osm.bz2", ".osm.pbf"}, NewFactory().SupportedFormats())
}

func TestFactory_OpenXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.osm")
	require.NoError(t, os.WriteFile(path, []byte(`<osm><node id="1"/></osm>`), 0o600))

	s, err := NewFactory().Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &osmxml.Scanner{}, s)
	require.True(t, s.Scan())
	assert.Equal(t, "node", s.Element().Name)
	assert.False(t, s.Scan())
	assert.NoError(t, s.Err())
}

func TestFactory_OpenUnsupported(t *testing.T) {
	_, err := NewFactory().Open(context.Background(), "detroit.geojson")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
