package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/custodia-labs/osmdoc/internal/adapters/driven/storage"
	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driving"
)

// loadedStore converts the test extract, loads it and adds one document of
// a type the battery deletes.
func loadedStore(t *testing.T, opener *storage.Opener, settings domain.StoreSettings) {
	t.Helper()
	ctx := context.Background()

	input := writeFile(t, "detroit.osm", detroitExtract)
	converted, err := newTestConvertService(nil).Convert(ctx, driving.ConvertOptions{
		Input:    input,
		Settings: domain.DefaultSettings().Convert,
	})
	require.NoError(t, err)

	_, err = NewLoadService(opener, nil).Load(ctx, driving.LoadOptions{Input: converted.Output, Store: settings, Drop: true})
	require.NoError(t, err)

	store, err := opener.Open(ctx, settings)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.InsertMany(ctx, []json.RawMessage{
		json.RawMessage(`{"id":"99","type":"multipolygon","visible":"","pos":[],"created_by":"JOSM"}`),
	})
	require.NoError(t, err)
}

func runBattery(t *testing.T, service *AnalysisService, opts driving.AnalysisOptions) map[string]domain.QueryResult {
	t.Helper()
	results := map[string]domain.QueryResult{}
	var order []string
	err := service.Run(context.Background(), opts, func(r domain.QueryResult) error {
		results[r.Name] = r
		order = append(order, r.Name)
		return nil
	})
	require.NoError(t, err)

	var expected []string
	for _, q := range service.Queries(opts.Analysis) {
		expected = append(expected, q.Name)
	}
	if len(opts.Only) == 0 {
		assert.Equal(t, expected, order)
	}
	return results
}

func rowPairs(rows []json.RawMessage, field string) [][2]any {
	out := make([][2]any, len(rows))
	for i, r := range rows {
		out[i] = [2]any{gjson.GetBytes(r, "_id").Value(), gjson.GetBytes(r, field).Int()}
	}
	return out
}

func TestAnalysisService_Run(t *testing.T) {
	drivers := []struct {
		name     string
		settings func(t *testing.T) domain.StoreSettings
	}{
		{"memory", func(*testing.T) domain.StoreSettings { return memorySettings(2) }},
		{"sqlite", func(t *testing.T) domain.StoreSettings {
			return domain.StoreSettings{
				Driver:     domain.StoreDriverSQLite,
				Path:       t.TempDir(),
				Collection: "detroit",
				BatchSize:  2,
			}
		}},
	}
	for _, d := range drivers {
		t.Run(d.name, func(t *testing.T) {
			opener := storage.NewOpener()
			defer opener.Close()
			settings := d.settings(t)
			loadedStore(t, opener, settings)
			metrics := newRecordingMetrics()
			service := NewAnalysisService(opener, metrics)

			r := runBattery(t, service, driving.AnalysisOptions{
				Store:    settings,
				Analysis: domain.DefaultSettings().Analysis,
			})

			assert.Equal(t, domain.ResultStats, r["size"].Kind)
			assert.Equal(t, int64(6), r["size"].Stats.Documents)
			assert.Positive(t, r["size"].Stats.SizeBytes)

			assert.Equal(t, int64(6), r["total"].Count)
			assert.Equal(t, int64(3), r["nodes"].Count)
			assert.Equal(t, int64(2), r["ways"].Count)
			assert.Equal(t, int64(1), r["neither"].Count)
			assert.Zero(t, r["visible_false"].Count)
			assert.Zero(t, r["visible_true"].Count)

			unset := r["unset_visible"]
			assert.Equal(t, domain.ResultModified, unset.Kind)
			assert.Equal(t, int64(6), unset.Count)
			require.NotNil(t, unset.Document)
			assert.Equal(t, "1", gjson.GetBytes(unset.Document, "id").String())
			assert.False(t, gjson.GetBytes(unset.Document, "visible").Exists())

			assert.Equal(t, []any{"node", "way", "multipolygon"}, r["types"].Values)
			assert.Equal(t, int64(1), r["delete_other_types"].Count)
			assert.Equal(t, int64(5), r["total_after_delete"].Count)
			assert.Equal(t, "10", gjson.GetBytes(r["sample_way"].Document, "id").String())

			assert.Equal(t, []any{"2", "3", "1"}, r["lanes"].Values)

			multi := r["multi_lanes"].Rows
			require.Len(t, multi, 1)
			assert.Equal(t, `["2","3"]`, gjson.GetBytes(multi[0], "lanes").Raw)
			assert.True(t, gjson.GetBytes(multi[0], "_id").Exists())
			assert.False(t, gjson.GetBytes(multi[0], "node_refs").Exists())

			assert.Equal(t, []any{"primary", "residential"}, r["highways"].Values)
			assert.Equal(t, [][2]any{{"primary", int64(1)}, {"residential", int64(1)}},
				rowPairs(r["highway_counts"].Rows, "count"))
			assert.Equal(t, [][2]any{{"Highway_refs", int64(5)}}, rowPairs(r["highway_node_refs"].Rows, "total"))
			assert.Equal(t, [][2]any{{"primary", int64(3)}, {"residential", int64(2)}},
				rowPairs(r["node_refs_by_highway"].Rows, "total_node_refs"))

			assert.Equal(t, int64(2), r["no_position"].Count)
			assert.Equal(t, int64(2), r["unset_position"].Count)
			assert.Zero(t, r["no_position_after"].Count)

			assert.Equal(t, int64(1), r["north"].Count)
			assert.Equal(t, int64(2), r["south"].Count)
			assert.Equal(t, int64(2), r["east"].Count)
			assert.Equal(t, int64(1), r["west"].Count)

			assert.Equal(t, []any{"JOSM", "Potlatch"}, r["creators"].Values)
			assert.Equal(t, int64(3), r["with_creator"].Count)
			assert.Equal(t, [][2]any{{"JOSM", int64(2)}, {nil, int64(2)}, {"Potlatch", int64(1)}},
				rowPairs(r["creator_counts"].Rows, "count"))

			assert.Equal(t, []any{"Woodward Avenue", "Gratiot Street"}, r["streets"].Values)
			assert.Equal(t, int64(2), r["streets"].Count)
			assert.Equal(t, [][2]any{{"Avenue", int64(1)}, {"Street", int64(1)}},
				rowPairs(r["street_types"].Rows, "count"))

			assert.Len(t, metrics.queries, 30)
		})
	}
}

func TestAnalysisService_Run_LexicalGeofence(t *testing.T) {
	opener := storage.NewOpener()
	defer opener.Close()
	settings := memorySettings(10)
	loadedStore(t, opener, settings)
	analysis := domain.DefaultSettings().Analysis
	analysis.GeofenceCompare = domain.GeofenceLexical

	r := runBattery(t, NewAnalysisService(opener, nil), driving.AnalysisOptions{
		Store:    settings,
		Analysis: analysis,
		Only:     []string{"west", "east", "south", "north"},
	})

	require.Len(t, r, 4)
	assert.Equal(t, int64(1), r["north"].Count)
	assert.Equal(t, int64(2), r["south"].Count)
	// "-83.10" sorts after "-83.045753"; "-83.01" and "-83.0" sort before it.
	assert.Equal(t, int64(1), r["east"].Count)
	assert.Equal(t, int64(2), r["west"].Count)
}

func TestAnalysisService_Run_OnlyKeepsBatteryOrder(t *testing.T) {
	opener := storage.NewOpener()
	defer opener.Close()
	settings := memorySettings(10)
	loadedStore(t, opener, settings)
	service := NewAnalysisService(opener, nil)

	var order []string
	err := service.Run(context.Background(), driving.AnalysisOptions{
		Store:    settings,
		Analysis: domain.DefaultSettings().Analysis,
		Only:     []string{"total_after_delete", "total", "delete_other_types"},
	}, func(r domain.QueryResult) error {
		order = append(order, r.Name)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"total", "delete_other_types", "total_after_delete"}, order)
}

func TestAnalysisService_Run_UnknownQuery(t *testing.T) {
	service := NewAnalysisService(storage.NewOpener(), nil)

	err := service.Run(context.Background(), driving.AnalysisOptions{
		Store:    memorySettings(10),
		Analysis: domain.DefaultSettings().Analysis,
		Only:     []string{"total", "bogus"},
	}, func(domain.QueryResult) error { return nil })

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestAnalysisService_Run_EmitErrorAborts(t *testing.T) {
	opener := storage.NewOpener()
	defer opener.Close()
	settings := memorySettings(10)
	loadedStore(t, opener, settings)
	service := NewAnalysisService(opener, nil)
	stop := errors.New("stop")

	calls := 0
	err := service.Run(context.Background(), driving.AnalysisOptions{
		Store:    settings,
		Analysis: domain.DefaultSettings().Analysis,
	}, func(domain.QueryResult) error {
		calls++
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestAnalysisService_Run_NumericGeofenceFailsOnText(t *testing.T) {
	ctx := context.Background()
	opener := storage.NewOpener()
	defer opener.Close()
	settings := memorySettings(10)
	store, err := opener.Open(ctx, settings)
	require.NoError(t, err)
	_, err = store.InsertMany(ctx, []json.RawMessage{json.RawMessage(`{"type":"node","pos":["north","-83"]}`)})
	require.NoError(t, err)

	err = NewAnalysisService(opener, nil).Run(ctx, driving.AnalysisOptions{
		Store:    settings,
		Analysis: domain.DefaultSettings().Analysis,
		Only:     []string{"north"},
	}, func(domain.QueryResult) error { return nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query north")
}

func TestAnalysisService_Run_EmptyCollection(t *testing.T) {
	opener := storage.NewOpener()
	defer opener.Close()

	r := runBattery(t, NewAnalysisService(opener, nil), driving.AnalysisOptions{
		Store:    memorySettings(10),
		Analysis: domain.DefaultSettings().Analysis,
	})

	assert.Zero(t, r["total"].Count)
	assert.Nil(t, r["unset_visible"].Document)
	assert.Nil(t, r["sample_way"].Document)
	assert.Empty(t, r["types"].Values)
}

func TestAnalysisService_Run_InvalidGeofence(t *testing.T) {
	service := NewAnalysisService(storage.NewOpener(), nil)

	err := service.Run(context.Background(), driving.AnalysisOptions{
		Store:    memorySettings(10),
		Analysis: domain.AnalysisSettings{GeofenceCompare: "fuzzy"},
	}, func(domain.QueryResult) error { return nil })

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnalysisService_Queries(t *testing.T) {
	service := NewAnalysisService(storage.NewOpener(), nil)

	queries := service.Queries(domain.DefaultSettings().Analysis)

	require.Len(t, queries, 30)
	assert.Equal(t, "size", queries[0].Name)
	assert.Equal(t, "street_types", queries[len(queries)-1].Name)

	names := map[string]bool{}
	var mutating []string
	for _, q := range queries {
		assert.False(t, names[q.Name], "duplicate %s", q.Name)
		names[q.Name] = true
		assert.NotEmpty(t, q.Title)
		if q.Mutates {
			mutating = append(mutating, q.Name)
		}
	}
	assert.Equal(t, []string{"unset_visible", "delete_other_types", "unset_position"}, mutating)
	assert.Contains(t, queries[21].Title, "latitude 42.331429, longitude -83.045753")
}
