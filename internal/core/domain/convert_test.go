package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "detroit.osm.json", OutputPath("detroit.osm"))
	assert.Equal(t, "/data/x.osm.pbf.json", OutputPath("/data/x.osm.pbf"))
}

func TestConvertStats_Documents(t *testing.T) {
	s := ConvertStats{Elements: 5, Points: 3, Paths: 2}
	assert.Equal(t, int64(5), s.Documents())
}
