package services

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/osmdoc/internal/connectors"
	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
	shaper "github.com/custodia-labs/osmdoc/internal/normalisers/osm"
)

// detroitExtract has three nodes north-east, south-west and east of the
// default reference, two ways and a relation the scanner skips.
const detroitExtract = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
 <node id="1" lat="42.35" lon="-83.01" version="1" changeset="10" timestamp="2012-01-01T00:00:00Z" user="ann" uid="1" visible="">
  <tag k="addr:street" v="Woodward Ave"/>
  <tag k="addr:state" v="MI"/>
  <tag k="created_by" v="JOSM"/>
 </node>
 <node id="2" lat="42.30" lon="-83.10" version="1" changeset="10" timestamp="2012-01-01T00:00:00Z" user="ann" uid="1">
  <tag k="amenity" v="cafe"/>
  <tag k="a b" v="dropped"/>
 </node>
 <node id="3" lat="42.331429" lon="-83.0" version="2" changeset="11" timestamp="2012-02-01T00:00:00Z" user="bob" uid="2">
  <tag k="addr:street" v="Gratiot St"/>
  <tag k="created_by" v="Potlatch"/>
 </node>
 <way id="10" version="1" changeset="12" timestamp="2013-01-01T00:00:00Z" user="bob" uid="2" visible="">
  <nd ref="1"/>
  <nd ref="2"/>
  <nd ref="3"/>
  <tag k="highway" v="primary"/>
  <tag k="lanes" v="2; 3"/>
 </way>
 <way id="11" version="1" changeset="12" timestamp="2013-01-01T00:00:00Z" user="bob" uid="2">
  <nd ref="2"/>
  <nd ref="3"/>
  <tag k="highway" v="residential"/>
  <tag k="lanes" v="1"/>
  <tag k="created_by" v="JOSM"/>
 </way>
 <relation id="20" version="1" changeset="13" timestamp="2014-01-01T00:00:00Z" user="cy" uid="3">
  <member type="way" ref="10" role="outer"/>
 </relation>
</osm>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestConvertService(metrics driven.MetricsRecorder) *ConvertService {
	return NewConvertService(
		connectors.NewFactory(),
		func(mode domain.StreetRewrite) driven.ElementShaper { return shaper.New(mode) },
		metrics,
	)
}

// recordingMetrics captures what the services report.
type recordingMetrics struct {
	mu       sync.Mutex
	read     map[string]int
	written  map[string]int
	bytes    int
	inserted int
	queries  []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{read: map[string]int{}, written: map[string]int{}}
}

func (m *recordingMetrics) ElementRead(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.read[kind]++
}

func (m *recordingMetrics) DocumentWritten(kind string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written[kind]++
	m.bytes += n
}

func (m *recordingMetrics) DocumentsInserted(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted += n
}

func (m *recordingMetrics) QueryCompleted(name string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, name)
}
