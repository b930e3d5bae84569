package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/custodia-labs/osmdoc/internal/adapters/driven/storage/engine"
	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
)

// collectionStore implements driven.DocumentStore for one collection.
type collectionStore struct {
	store *Store
	name  string
}

var _ driven.DocumentStore = (*collectionStore)(nil)

func (c *collectionStore) db() (*sql.DB, error) {
	if c.store.closed.Load() {
		return nil, domain.ErrStoreClosed
	}
	return c.store.db, nil
}

// scope prefixes a predicate with the collection restriction.
func (c *collectionStore) scope(w where) (string, []any) {
	return "documents.collection = ? AND (" + w.sql + ")", append([]any{c.name}, w.args...)
}

// InsertMany stores documents in one transaction.
func (c *collectionStore) InsertMany(ctx context.Context, docs []json.RawMessage) (int, error) {
	db, err := c.db()
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (collection, doc_id, body) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, d := range docs {
		body, id, err := engine.EnsureID(d, uuid.NewString)
		if err != nil {
			return 0, fmt.Errorf("document %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, c.name, id, string(body)); err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("%w: duplicate _id %q", domain.ErrInvalidInput, id)
			}
			return 0, fmt.Errorf("inserting document %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return len(docs), nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// Count returns the number of matching documents.
func (c *collectionStore) Count(ctx context.Context, filter domain.Filter) (int64, error) {
	db, err := c.db()
	if err != nil {
		return 0, err
	}
	w, err := compileFilter(filter)
	if err != nil {
		return 0, err
	}
	cond, args := c.scope(w)

	var n int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+cond, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", filter, err)
	}
	return n, nil
}

// FindOne returns the earliest inserted matching document.
func (c *collectionStore) FindOne(ctx context.Context, filter domain.Filter) (json.RawMessage, error) {
	db, err := c.db()
	if err != nil {
		return nil, err
	}
	w, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}
	cond, args := c.scope(w)

	var body string
	err = db.QueryRowContext(ctx, `SELECT body FROM documents WHERE `+cond+` ORDER BY seq LIMIT 1`, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", filter, err)
	}
	return json.RawMessage(body), nil
}

// Distinct returns the values at field in insertion order. Arrays
// contribute their elements; any other value is wrapped in a one-element
// array so json_each yields it whole.
func (c *collectionStore) Distinct(ctx context.Context, field string, filter domain.Filter) ([]any, error) {
	db, err := c.db()
	if err != nil {
		return nil, err
	}
	w, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}
	cond, args := c.scope(w)

	path := jsonPath(field)
	query := `SELECT v.type, v.value FROM documents, json_each(CASE
			WHEN json_type(documents.body, ?) = 'array' THEN documents.body -> ?
			ELSE json_array(json(documents.body -> ?)) END) AS v
		WHERE json_type(documents.body, ?) IS NOT NULL AND ` + cond +
		` ORDER BY documents.seq, v.id`
	rows, err := db.QueryContext(ctx, query, append([]any{path, path, path, path}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}
	defer rows.Close()

	var values []any
	for rows.Next() {
		var kind string
		var raw any
		if err := rows.Scan(&kind, &raw); err != nil {
			return nil, fmt.Errorf("scanning distinct value: %w", err)
		}
		values = append(values, decodeEach(kind, raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return engine.Dedupe(values), nil
}

// decodeEach converts a json_each (type, value) pair to a plain Go value.
func decodeEach(kind string, raw any) any {
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	switch kind {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	case "integer":
		if n, ok := raw.(int64); ok {
			return float64(n)
		}
	case "array", "object":
		if s, ok := raw.(string); ok {
			return engine.Decode(gjson.Parse(s))
		}
	}
	return raw
}

// UnsetMany removes fields with json_remove. Only documents holding at
// least one of the fields count as modified.
func (c *collectionStore) UnsetMany(ctx context.Context, filter domain.Filter, fields ...string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	db, err := c.db()
	if err != nil {
		return 0, err
	}
	w, err := compileFilter(filter)
	if err != nil {
		return 0, err
	}

	paths := make([]any, len(fields))
	present := make([]string, len(fields))
	for i, f := range fields {
		paths[i] = jsonPath(f)
		present[i] = "json_type(documents.body, ?) IS NOT NULL"
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ")

	cond, args := c.scope(w)
	query := `UPDATE documents SET body = json_remove(body, ` + placeholders + `) WHERE ` + cond +
		` AND (` + strings.Join(present, " OR ") + `)`

	all := make([]any, 0, 2*len(paths)+len(args))
	all = append(all, paths...)
	all = append(all, args...)
	all = append(all, paths...)

	res, err := db.ExecContext(ctx, query, all...)
	if err != nil {
		return 0, fmt.Errorf("unsetting %v: %w", fields, err)
	}
	return res.RowsAffected()
}

// DeleteMany removes every matching document.
func (c *collectionStore) DeleteMany(ctx context.Context, filter domain.Filter) (int64, error) {
	db, err := c.db()
	if err != nil {
		return 0, err
	}
	w, err := compileFilter(filter)
	if err != nil {
		return 0, err
	}
	cond, args := c.scope(w)

	res, err := db.ExecContext(ctx, `DELETE FROM documents WHERE `+cond, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting %s: %w", filter, err)
	}
	return res.RowsAffected()
}

// Aggregate pushes a leading $match into SQL and runs the rest in memory.
func (c *collectionStore) Aggregate(ctx context.Context, pipeline domain.Pipeline) ([]json.RawMessage, error) {
	db, err := c.db()
	if err != nil {
		return nil, err
	}
	if err := pipeline.Validate(); err != nil {
		return nil, err
	}

	var filter domain.Filter
	rest := pipeline
	if len(pipeline) > 0 && pipeline[0].Kind == domain.StageMatch {
		filter, rest = pipeline[0].Match, pipeline[1:]
	}
	w, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}
	cond, args := c.scope(w)

	rows, err := db.QueryContext(ctx, `SELECT body FROM documents WHERE `+cond+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, []byte(body))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	out, err := engine.Run(docs, rest)
	if err != nil {
		return nil, err
	}
	raw := make([]json.RawMessage, len(out))
	for i, d := range out {
		raw[i] = d
	}
	return raw, nil
}

// Stats reports the document count and total body size.
func (c *collectionStore) Stats(ctx context.Context) (domain.CollectionStats, error) {
	db, err := c.db()
	if err != nil {
		return domain.CollectionStats{}, err
	}

	stats := domain.CollectionStats{Name: c.name}
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(length(CAST(body AS BLOB))), 0) FROM documents WHERE collection = ?`,
		c.name,
	).Scan(&stats.Documents, &stats.SizeBytes)
	if err != nil {
		return domain.CollectionStats{}, fmt.Errorf("collection stats: %w", err)
	}
	return stats, nil
}

// Drop deletes every document of the collection.
func (c *collectionStore) Drop(ctx context.Context) error {
	db, err := c.db()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, c.name); err != nil {
		return fmt.Errorf("dropping %s: %w", c.name, err)
	}
	return nil
}

// Close closes the underlying store.
func (c *collectionStore) Close() error {
	return c.store.Close()
}
