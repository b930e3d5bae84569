package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
)

// query is one named step of the analysis battery.
type query struct {
	info domain.QueryInfo
	run  func(ctx context.Context, store driven.DocumentStore) (domain.QueryResult, error)
}

// Document filters shared by several queries.
var (
	isNode        = domain.Eq(domain.FieldType, domain.KindPoint)
	isWay         = domain.Eq(domain.FieldType, domain.KindPath)
	notNodeOrWay  = domain.Nin(domain.FieldType, domain.KindPoint, domain.KindPath)
	hasHighway    = domain.Exists("highway", true)
	emptyPosition = domain.Eq(domain.FieldPos, []any{})
)

// battery returns the analysis queries in run order. Mutating queries
// change what the queries after them observe.
func battery(settings domain.AnalysisSettings) []query {
	lat, lon := geofence(settings)
	ref := fmt.Sprintf("latitude %s, longitude %s",
		formatCoord(settings.ReferenceLat), formatCoord(settings.ReferenceLon))

	return []query{
		{info("size", "Size of the collection (bytes)"), stats},
		{info("total", "Total number of documents"), count()},
		{info("nodes", "Total number of nodes"), count(isNode)},
		{info("ways", "Total number of ways"), count(isWay)},
		{info("neither", "Documents which are neither nodes nor ways"), count(notNodeOrWay)},
		{info("visible_false", `Documents with visible set to "false"`), count(domain.Eq(domain.FieldVisible, "false"))},
		{info("visible_true", `Documents with visible set to "true"`), count(domain.Eq(domain.FieldVisible, "true"))},
		{mutation("unset_visible", "Removing the empty visible field; sample document afterwards"), unsetVisible},
		{info("types", "Distinct document types"), distinct(domain.FieldType)},
		{mutation("delete_other_types", `Removing documents with a type other than "node" or "way"`), deleteOtherTypes},
		{info("total_after_delete", "Document count after deleting the other types"), count()},
		{info("sample_way", `Sample document of type "way"`), findOne(isWay)},
		{info("lanes", "Distinct lane values of ways"), distinct(domain.FieldLanes, isWay, domain.Exists(domain.FieldLanes, true))},
		{info("multi_lanes", "Ways recording two lane counts"), aggregate(
			domain.Match(domain.Size(domain.FieldLanes, 2)),
			domain.Project(domain.FieldType, domain.FieldLanes),
		)},
		{info("highways", "Distinct highway types of ways"), distinct("highway", isWay)},
		{info("highway_counts", "Highway counts by type"), aggregate(
			domain.Match(isWay, hasHighway),
			domain.GroupBy(domain.ByField("highway"), domain.Count("count")),
			domain.SortBy(domain.Desc("count")),
		)},
		{info("highway_node_refs", "Total node references of ways with a highway"), aggregate(
			domain.Match(isWay, hasHighway),
			domain.GroupBy(domain.ByLiteral("Highway_refs"), domain.SumSize("total", domain.FieldNodeRefs)),
		)},
		{info("node_refs_by_highway", "Node references per highway type"), aggregate(
			domain.Match(isWay, hasHighway),
			domain.Unwind(domain.FieldNodeRefs),
			domain.GroupBy(domain.ByField("highway"), domain.Count("total_node_refs")),
			domain.SortBy(domain.Desc("total_node_refs")),
		)},
		{info("no_position", "Documents with an empty position"), count(emptyPosition)},
		{mutation("unset_position", "Removing the empty position field"), unset(domain.Filter{emptyPosition}, domain.FieldPos)},
		{info("no_position_after", "Documents with an empty position after the removal"), count(emptyPosition)},
		{info("north", "Documents north of "+ref), count(lat.gt)},
		{info("south", "Documents south of or on "+ref), count(lat.lte)},
		{info("east", "Documents east of "+ref), count(lon.gt)},
		{info("west", "Documents west of or on "+ref), count(lon.lte)},
		{info("creators", "Distinct creators"), distinct("created_by")},
		{info("with_creator", "Documents naming a creator"), count(domain.Exists("created_by", true))},
		{info("creator_counts", "Documents per creator"), aggregate(
			domain.GroupBy(domain.ByField("created_by"), domain.Count("count")),
			domain.SortBy(domain.Desc("count")),
		)},
		{info("streets", "Distinct streets"), distinct(domain.FieldAddress + ".street")},
		{info("street_types", "Streets by type"), aggregate(
			domain.Match(domain.Exists(domain.FieldAddress+".street_type", true)),
			domain.GroupBy(domain.ByField(domain.FieldAddress+".street_type"), domain.Count("count")),
		)},
	}
}

func info(name, title string) domain.QueryInfo {
	return domain.QueryInfo{Name: name, Title: title}
}

func mutation(name, title string) domain.QueryInfo {
	return domain.QueryInfo{Name: name, Title: title, Mutates: true}
}

// bounds holds the greater-than and less-or-equal conditions for one
// coordinate axis.
type bounds struct {
	gt, lte domain.Condition
}

// geofence builds the north/south and east/west conditions. Lexical mode
// compares the stored strings with the reference rendered as a string.
func geofence(settings domain.AnalysisSettings) (lat, lon bounds) {
	latField := domain.FieldPos + ".0"
	lonField := domain.FieldPos + ".1"

	if settings.GeofenceCompare == domain.GeofenceLexical {
		latRef := formatCoord(settings.ReferenceLat)
		lonRef := formatCoord(settings.ReferenceLon)
		return bounds{domain.Gt(latField, latRef), domain.Lte(latField, latRef)},
			bounds{domain.Gt(lonField, lonRef), domain.Lte(lonField, lonRef)}
	}
	return bounds{
			domain.Gt(latField, settings.ReferenceLat).AsNumber(),
			domain.Lte(latField, settings.ReferenceLat).AsNumber(),
		}, bounds{
			domain.Gt(lonField, settings.ReferenceLon).AsNumber(),
			domain.Lte(lonField, settings.ReferenceLon).AsNumber(),
		}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stats(ctx context.Context, store driven.DocumentStore) (domain.QueryResult, error) {
	st, err := store.Stats(ctx)
	if err != nil {
		return domain.QueryResult{}, err
	}
	return domain.QueryResult{Kind: domain.ResultStats, Stats: st, Count: st.SizeBytes}, nil
}

func count(conds ...domain.Condition) func(context.Context, driven.DocumentStore) (domain.QueryResult, error) {
	return func(ctx context.Context, store driven.DocumentStore) (domain.QueryResult, error) {
		n, err := store.Count(ctx, domain.Filter(conds))
		if err != nil {
			return domain.QueryResult{}, err
		}
		return domain.QueryResult{Kind: domain.ResultCount, Count: n}, nil
	}
}

// findOne reports a nil document when nothing matches.
func findOne(conds ...domain.Condition) func(context.Context, driven.DocumentStore) (domain.QueryResult, error) {
	return func(ctx context.Context, store driven.DocumentStore) (domain.QueryResult, error) {
		doc, err := store.FindOne(ctx, domain.Filter(conds))
		if err != nil && !isNotFound(err) {
			return domain.QueryResult{}, err
		}
		return domain.QueryResult{Kind: domain.ResultDocument, Document: doc}, nil
	}
}

func distinct(field string, conds ...domain.Condition) func(context.Context, driven.DocumentStore) (domain.QueryResult, error) {
	return func(ctx context.Context, store driven.DocumentStore) (domain.QueryResult, error) {
		values, err := store.Distinct(ctx, field, domain.Filter(conds))
		if err != nil {
			return domain.QueryResult{}, err
		}
		return domain.QueryResult{Kind: domain.ResultValues, Values: values, Count: int64(len(values))}, nil
	}
}

func aggregate(stages ...domain.Stage) func(context.Context, driven.DocumentStore) (domain.QueryResult, error) {
	return func(ctx context.Context, store driven.DocumentStore) (domain.QueryResult, error) {
		rows, err := store.Aggregate(ctx, domain.Pipeline(stages))
		if err != nil {
			return domain.QueryResult{}, err
		}
		return domain.QueryResult{Kind: domain.ResultRows, Rows: rows, Count: int64(len(rows))}, nil
	}
}

func unset(filter domain.Filter, fields ...string) func(context.Context, driven.DocumentStore) (domain.QueryResult, error) {
	return func(ctx context.Context, store driven.DocumentStore) (domain.QueryResult, error) {
		n, err := store.UnsetMany(ctx, filter, fields...)
		if err != nil {
			return domain.QueryResult{}, err
		}
		return domain.QueryResult{Kind: domain.ResultModified, Count: n}, nil
	}
}

// unsetVisible removes empty visible flags and shows the first document
// afterwards. An empty collection has no sample.
func unsetVisible(ctx context.Context, store driven.DocumentStore) (domain.QueryResult, error) {
	res, err := unset(domain.Filter{domain.Eq(domain.FieldVisible, "")}, domain.FieldVisible)(ctx, store)
	if err != nil {
		return res, err
	}
	doc, err := store.FindOne(ctx, nil)
	switch {
	case err == nil:
		res.Document = doc
	case !isNotFound(err):
		return res, err
	}
	return res, nil
}

func deleteOtherTypes(ctx context.Context, store driven.DocumentStore) (domain.QueryResult, error) {
	n, err := store.DeleteMany(ctx, domain.Filter{notNodeOrWay})
	if err != nil {
		return domain.QueryResult{}, err
	}
	return domain.QueryResult{Kind: domain.ResultModified, Count: n}, nil
}
