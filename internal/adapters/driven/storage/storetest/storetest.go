// Package storetest holds the behaviour every driven.DocumentStore must
// share. Adapter tests call Run with a constructor for a fresh store.
package storetest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
)

// Fixture is a small collection shaped like converter output, plus one
// document of a foreign type.
var Fixture = []string{
	`{"id":"1","type":"node","visible":"","pos":["42.40","-83.10"],"created":{"version":"1","changeset":"1","timestamp":"2012-01-01T00:00:00Z","user":"bob","uid":"1"},"amenity":"cafe","created_by":"JOSM"}`,
	`{"id":"2","type":"node","visible":"true","pos":["42.20","-82.90"],"created":{"version":"1","changeset":"1","timestamp":"2012-01-01T00:00:00Z","user":"amy","uid":"2"},"created_by":"Potlatch"}`,
	`{"id":"3","type":"way","visible":"","pos":[],"created":{"version":"2","changeset":"3","timestamp":"2013-01-01T00:00:00Z","user":"bob","uid":"1"},"node_refs":["1","2"],"highway":"primary","lanes":["2","3"]}`,
	`{"id":"4","type":"way","visible":"false","pos":[],"created":{"version":"1","changeset":"4","timestamp":"2013-01-01T00:00:00Z","user":"bob","uid":"1"},"node_refs":["2","1","5"],"highway":"residential","lanes":"2","address":{"street":"Main Street","street_type":"Street"},"created_by":"JOSM"}`,
	`{"id":"5","type":"way","visible":"","pos":[],"created":{"version":"1","changeset":"5","timestamp":"2014-01-01T00:00:00Z","user":"amy","uid":"2"},"node_refs":["9"],"highway":"primary"}`,
	`{"id":"6","type":"multipolygon","pos":[],"created":{"version":"1","changeset":"6","timestamp":"2014-01-01T00:00:00Z","user":"cy","uid":"3"}}`,
}

// Load inserts Fixture into store.
func Load(t *testing.T, store driven.DocumentStore) {
	t.Helper()
	docs := make([]json.RawMessage, len(Fixture))
	for i, f := range Fixture {
		docs[i] = json.RawMessage(f)
	}
	n, err := store.InsertMany(context.Background(), docs)
	require.NoError(t, err)
	require.Equal(t, len(Fixture), n)
}

// Run exercises newStore's stores against the shared contract.
func Run(t *testing.T, newStore func(t *testing.T) driven.DocumentStore) {
	ctx := context.Background()

	fresh := func(t *testing.T) driven.DocumentStore {
		s := newStore(t)
		Load(t, s)
		return s
	}

	t.Run("InsertAssignsIDs", func(t *testing.T) {
		s := newStore(t)
		n, err := s.InsertMany(ctx, []json.RawMessage{
			json.RawMessage(`{"id":"1"}`),
			json.RawMessage(`{"_id":"given","id":"2"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		doc, err := s.FindOne(ctx, domain.Filter{domain.Eq("id", "1")})
		require.NoError(t, err)
		assert.NotEmpty(t, gjson.GetBytes(doc, "_id").String())

		doc, err = s.FindOne(ctx, domain.Filter{domain.Eq("id", "2")})
		require.NoError(t, err)
		assert.Equal(t, "given", gjson.GetBytes(doc, "_id").String())
	})

	t.Run("InsertRejectsInvalidJSON", func(t *testing.T) {
		s := newStore(t)
		_, err := s.InsertMany(ctx, []json.RawMessage{json.RawMessage(`{"id":`)})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Count", func(t *testing.T) {
		s := fresh(t)
		counts := []struct {
			filter domain.Filter
			want   int64
		}{
			{nil, 6},
			{domain.Filter{domain.Eq("type", "node")}, 2},
			{domain.Filter{domain.Eq("type", "way")}, 3},
			{domain.Filter{domain.Nin("type", "node", "way")}, 1},
			{domain.Filter{domain.Eq("visible", "")}, 3},
			{domain.Filter{domain.Eq("visible", "false")}, 1},
			{domain.Filter{domain.Exists("created_by", true)}, 3},
			{domain.Filter{domain.Exists("visible", false)}, 1},
			{domain.Filter{domain.Eq("pos", []string{})}, 4},
			{domain.Filter{domain.Eq("lanes", "2")}, 2},
			{domain.Filter{domain.Size("lanes", 2)}, 1},
			{domain.Filter{domain.Eq("type", "way"), domain.Exists("highway", true)}, 3},
			{domain.Filter{domain.Eq("created.user", "bob")}, 3},
			{domain.Filter{domain.Ne("highway", "primary")}, 4},
			{domain.Filter{domain.In("node_refs", "5", "9")}, 2},
			{domain.Filter{domain.Gt("pos.0", "42.331429")}, 1},
			{domain.Filter{domain.Lte("pos.0", "42.331429")}, 1},
			{domain.Filter{domain.Gt("pos.0", 42.331429).AsNumber()}, 1},
			{domain.Filter{domain.Gt("pos.1", -83.045753).AsNumber()}, 1},
			{domain.Filter{domain.Lte("pos.1", -83.045753).AsNumber()}, 1},
		}
		for _, c := range counts {
			got, err := s.Count(ctx, c.filter)
			require.NoError(t, err, c.filter.String())
			assert.Equal(t, c.want, got, c.filter.String())
		}
	})

	t.Run("NumericComparisonFailsOnText", func(t *testing.T) {
		s := fresh(t)
		_, err := s.Count(ctx, domain.Filter{domain.Gt("amenity", 1).AsNumber()})
		assert.Error(t, err)
	})

	t.Run("InvalidFilter", func(t *testing.T) {
		s := fresh(t)
		_, err := s.Count(ctx, domain.Filter{{Field: "id", Op: domain.OpExists, Value: "yes"}})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("FindOne", func(t *testing.T) {
		s := fresh(t)

		doc, err := s.FindOne(ctx, domain.Filter{domain.Eq("type", "way")})
		require.NoError(t, err)
		assert.Equal(t, "3", gjson.GetBytes(doc, "id").String())

		_, err = s.FindOne(ctx, domain.Filter{domain.Eq("type", "relation")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Distinct", func(t *testing.T) {
		s := fresh(t)

		types, err := s.Distinct(ctx, "type", nil)
		require.NoError(t, err)
		assert.Equal(t, []any{"node", "way", "multipolygon"}, types)

		lanes, err := s.Distinct(ctx, "lanes", domain.Filter{domain.Eq("type", "way")})
		require.NoError(t, err)
		assert.Equal(t, []any{"2", "3"}, lanes)

		none, err := s.Distinct(ctx, "address.city", nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("ObjectValuesAreWhole", func(t *testing.T) {
		s := fresh(t)

		counts := []struct {
			filter domain.Filter
			want   int64
		}{
			{domain.Filter{domain.Eq("address", "Main Street")}, 0},
			{domain.Filter{domain.In("address", "Main Street", "Street")}, 0},
			{domain.Filter{domain.Gt("address", "A")}, 0},
			{domain.Filter{domain.Lte("created", "z")}, 0},
			{domain.Filter{domain.Eq("address.street", "Main Street")}, 1},
			{domain.Filter{domain.Ne("address", "Main Street")}, 6},
		}
		for _, c := range counts {
			got, err := s.Count(ctx, c.filter)
			require.NoError(t, err, c.filter.String())
			assert.Equal(t, c.want, got, c.filter.String())
		}

		addresses, err := s.Distinct(ctx, "address", nil)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"street": "Main Street", "street_type": "Street"}}, addresses)

		highways, err := s.Distinct(ctx, "highway", nil)
		require.NoError(t, err)
		assert.Equal(t, []any{"primary", "residential"}, highways)
	})

	t.Run("DuplicateID", func(t *testing.T) {
		s := newStore(t)
		_, err := s.InsertMany(ctx, []json.RawMessage{json.RawMessage(`{"_id":"x","id":"1"}`)})
		require.NoError(t, err)

		_, err = s.InsertMany(ctx, []json.RawMessage{json.RawMessage(`{"_id":"x","id":"1"}`)})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = s.InsertMany(ctx, []json.RawMessage{
			json.RawMessage(`{"_id":"y","id":"2"}`),
			json.RawMessage(`{"_id":"y","id":"3"}`),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		n, err := s.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		deleted, err := s.DeleteMany(ctx, domain.Filter{domain.Eq("_id", "x")})
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
		_, err = s.InsertMany(ctx, []json.RawMessage{json.RawMessage(`{"_id":"x","id":"1"}`)})
		assert.NoError(t, err)
	})

	t.Run("UnsetMany", func(t *testing.T) {
		s := fresh(t)

		n, err := s.UnsetMany(ctx, domain.Filter{domain.Eq("visible", "")}, "visible")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		left, err := s.Count(ctx, domain.Filter{domain.Eq("visible", "")})
		require.NoError(t, err)
		assert.Zero(t, left)

		missing, err := s.Count(ctx, domain.Filter{domain.Exists("visible", false)})
		require.NoError(t, err)
		assert.Equal(t, int64(4), missing)

		n, err = s.UnsetMany(ctx, domain.Filter{domain.Eq("pos", []string{})}, "pos")
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)

		n, err = s.Count(ctx, domain.Filter{domain.Eq("pos", []string{})})
		require.NoError(t, err)
		assert.Zero(t, n)

		total, err := s.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
	})

	t.Run("DeleteMany", func(t *testing.T) {
		s := fresh(t)

		n, err := s.DeleteMany(ctx, domain.Filter{domain.Nin("type", "node", "way")})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		total, err := s.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)

		n, err = s.DeleteMany(ctx, domain.Filter{domain.Nin("type", "node", "way")})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("AggregateCounts", func(t *testing.T) {
		s := fresh(t)

		out, err := s.Aggregate(ctx, domain.Pipeline{
			domain.Match(domain.Exists("highway", true)),
			domain.GroupBy(domain.ByField("highway"), domain.Count("count")),
			domain.SortBy(domain.Desc("count")),
		})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.JSONEq(t, `{"_id":"primary","count":2}`, string(out[0]))
		assert.JSONEq(t, `{"_id":"residential","count":1}`, string(out[1]))
	})

	t.Run("AggregateUnwind", func(t *testing.T) {
		s := fresh(t)

		out, err := s.Aggregate(ctx, domain.Pipeline{
			domain.Match(domain.Eq("type", "way"), domain.Exists("highway", true)),
			domain.Unwind("node_refs"),
			domain.GroupBy(domain.ByField("highway"), domain.Count("count")),
			domain.SortBy(domain.Desc("count")),
		})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.JSONEq(t, `{"_id":"primary","count":3}`, string(out[0]))
		assert.JSONEq(t, `{"_id":"residential","count":3}`, string(out[1]))

		out, err = s.Aggregate(ctx, domain.Pipeline{
			domain.Match(domain.Eq("type", "way"), domain.Exists("highway", true)),
			domain.GroupBy(domain.ByLiteral(nil), domain.SumSize("total", "node_refs")),
		})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.JSONEq(t, `{"_id":null,"total":6}`, string(out[0]))
	})

	t.Run("AggregateProject", func(t *testing.T) {
		s := fresh(t)

		out, err := s.Aggregate(ctx, domain.Pipeline{
			domain.Match(domain.Size("lanes", 2)),
			{Kind: domain.StageProject, Project: &domain.Projection{Fields: []string{"lanes"}, ExcludeID: true}},
		})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.JSONEq(t, `{"lanes":["2","3"]}`, string(out[0]))
	})

	t.Run("AggregateWithoutLeadingMatch", func(t *testing.T) {
		s := fresh(t)

		out, err := s.Aggregate(ctx, domain.Pipeline{
			domain.GroupBy(domain.ByField("created.user"), domain.Count("count")),
			domain.SortBy(domain.Desc("count")),
		})
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.JSONEq(t, `{"_id":"bob","count":3}`, string(out[0]))
		assert.JSONEq(t, `{"_id":"amy","count":2}`, string(out[1]))
		assert.JSONEq(t, `{"_id":"cy","count":1}`, string(out[2]))
	})

	t.Run("Stats", func(t *testing.T) {
		s := fresh(t)

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(6), stats.Documents)
		assert.Greater(t, stats.SizeBytes, int64(0))
	})

	t.Run("Drop", func(t *testing.T) {
		s := fresh(t)

		require.NoError(t, s.Drop(ctx))
		n, err := s.Count(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Closed", func(t *testing.T) {
		s := fresh(t)
		require.NoError(t, s.Close())

		_, err := s.Count(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrStoreClosed)
		_, err = s.InsertMany(ctx, []json.RawMessage{json.RawMessage(`{}`)})
		assert.ErrorIs(t, err, domain.ErrStoreClosed)
	})
}
