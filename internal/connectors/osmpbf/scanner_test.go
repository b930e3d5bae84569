package osmpbf

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	shaper "github.com/custodia-labs/osmdoc/internal/normalisers/osm"
)

var ts = time.Date(2012, 3, 28, 18, 31, 23, 0, time.UTC)

func TestFromNode(t *testing.T) {
	n := &osm.Node{
		ID:          261114295,
		Lat:         42.331429,
		Lon:         -83.045753,
		User:        "mapper",
		UserID:      77,
		Version:     3,
		ChangesetID: 1234,
		Timestamp:   ts,
		Tags:        osm.Tags{{Key: "amenity", Value: "cafe"}, {Key: "addr:state", Value: "MI"}},
	}

	el := fromNode(n)

	assert.Equal(t, domain.KindPoint, el.Name)
	for name, want := range map[string]string{
		"id":        "261114295",
		"lat":       "42.331429",
		"lon":       "-83.045753",
		"version":   "3",
		"changeset": "1234",
		"timestamp": "2012-03-28T18:31:23Z",
		"user":      "mapper",
		"uid":       "77",
	} {
		got, ok := el.Attr(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := el.Attr("visible")
	assert.False(t, ok)

	require.Len(t, el.Children, 2)
	k, _ := el.Children[1].Attr("k")
	assert.Equal(t, "addr:state", k)
}

func TestFromWay(t *testing.T) {
	w := &osm.Way{
		ID:          9,
		User:        "b",
		UserID:      2,
		Version:     1,
		ChangesetID: 5,
		Timestamp:   ts,
		Nodes:       osm.WayNodes{{ID: 3}, {ID: 1}, {ID: 2}},
		Tags:        osm.Tags{{Key: "highway", Value: "primary"}},
	}

	el := fromWay(w)

	assert.Equal(t, domain.KindPath, el.Name)
	require.Len(t, el.Children, 4)
	var refs []string
	for _, c := range el.Children {
		if c.Name == domain.ChildRef {
			ref, _ := c.Attr("ref")
			refs = append(refs, ref)
		}
	}
	assert.Equal(t, []string{"3", "1", "2"}, refs)
	assert.Equal(t, domain.ChildTag, el.Children[3].Name)
}

func TestFromNode_MissingMetadataIsMalformed(t *testing.T) {
	el := fromNode(&osm.Node{ID: 1, Lat: 1, Lon: 2})

	_, ok := el.Attr("user")
	assert.False(t, ok)
	_, ok = el.Attr("timestamp")
	assert.False(t, ok)

	_, _, err := shaper.New(domain.StreetRewritePositional).Shape(&el)
	assert.ErrorIs(t, err, domain.ErrMalformedElement)
}

func TestScanner_Garbage(t *testing.T) {
	s := NewScanner(context.Background(), bytes.NewReader(bytes.Repeat([]byte{0xff}, 64)))
	defer s.Close()

	assert.False(t, s.Scan())
	assert.ErrorIs(t, s.Err(), domain.ErrUnparseableInput)
}

func TestFormatCoord(t *testing.T) {
	cases := map[float64]string{
		42.331429:          "42.331429",
		42.331429000000004: "42.331429",
		-83.0457531:        "-83.0457531",
		42:                 "42",
		-0.5:               "-0.5",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatCoord(in), "%v", in)
	}
}

func TestScanError(t *testing.T) {
	assert.NoError(t, scanError(nil))

	err := scanError(context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrUnparseableInput)

	err = scanError(context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrUnparseableInput)

	err = scanError(errors.New("bad blob header"))
	assert.ErrorIs(t, err, domain.ErrUnparseableInput)
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports("michigan-latest.osm.pbf"))
	assert.True(t, Supports("X.OSM.PBF"))
	assert.False(t, Supports("detroit.osm"))
}
