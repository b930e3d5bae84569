package sqlite

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

// jsonPath converts a dot path into a SQLite JSON path. Numeric segments
// address array elements: "pos.0" becomes $."pos"[0].
func jsonPath(field string) string {
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range strings.Split(field, ".") {
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		b.WriteString(`."` + seg + `"`)
	}
	return b.String()
}

// where is a compiled SQL predicate over documents.body.
type where struct {
	sql  string
	args []any
}

// compileFilter turns a filter into a predicate. The empty filter compiles
// to a predicate that is always true.
func compileFilter(f domain.Filter) (where, error) {
	if err := f.Validate(); err != nil {
		return where{}, err
	}
	if len(f) == 0 {
		return where{sql: "1"}, nil
	}

	parts := make([]string, 0, len(f))
	var args []any
	for _, c := range f {
		w, err := compileCondition(c)
		if err != nil {
			return where{}, err
		}
		parts = append(parts, "("+w.sql+")")
		args = append(args, w.args...)
	}
	return where{sql: strings.Join(parts, " AND "), args: args}, nil
}

func compileCondition(c domain.Condition) (where, error) {
	path := jsonPath(c.Field)

	switch c.Op {
	case domain.OpEq:
		return eqPredicate(path, c.Value)
	case domain.OpNe:
		w, err := eqPredicate(path, c.Value)
		return not(w), err
	case domain.OpIn:
		w, err := inPredicate(path, c.Value.([]any))
		return w, err
	case domain.OpNin:
		w, err := inPredicate(path, c.Value.([]any))
		return not(w), err
	case domain.OpExists:
		if c.Value.(bool) {
			return where{sql: "json_type(documents.body, ?) IS NOT NULL", args: []any{path}}, nil
		}
		return where{sql: "json_type(documents.body, ?) IS NULL", args: []any{path}}, nil
	case domain.OpSize:
		return where{
			sql:  "COALESCE(json_type(documents.body, ?) = 'array' AND json_array_length(documents.body, ?) = ?, 0)",
			args: []any{path, path, c.Value.(int)},
		}, nil
	case domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte:
		return comparePredicate(path, c)
	default:
		return where{}, fmt.Errorf("%w: operator %q", domain.ErrUnsupportedType, c.Op)
	}
}

func not(w where) where {
	return where{sql: "NOT (" + w.sql + ")", args: w.args}
}

// eqPredicate matches a scalar against the value at path or any element of
// an array at path, and whole arrays or objects against their JSON text.
func eqPredicate(path string, v any) (where, error) {
	switch x := v.(type) {
	case nil:
		return where{sql: "COALESCE(json_type(documents.body, ?) = 'null', 1)", args: []any{path}}, nil
	case string:
		return elementPredicate(path, "je.type = 'text' AND je.value = ?", x), nil
	case bool:
		kind := "false"
		if x {
			kind = "true"
		}
		return elementPredicate(path, "je.type = '"+kind+"'"), nil
	case int, int64, float64:
		return elementPredicate(path, "je.type IN ('integer', 'real') AND je.value = ?", toFloat(x)), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return where{}, fmt.Errorf("%w: encoding %T: %w", domain.ErrInvalidInput, v, err)
	}
	kind := "object"
	if len(data) > 0 && data[0] == '[' {
		kind = "array"
	}
	return where{
		sql:  "COALESCE(json_type(documents.body, ?) = '" + kind + "' AND json_extract(documents.body, ?) = json(?), 0)",
		args: []any{path, path, string(data)},
	}, nil
}

func inPredicate(path string, vs []any) (where, error) {
	if len(vs) == 0 {
		return where{sql: "0"}, nil
	}
	parts := make([]string, 0, len(vs))
	var args []any
	for _, v := range vs {
		w, err := eqPredicate(path, v)
		if err != nil {
			return where{}, err
		}
		parts = append(parts, "("+w.sql+")")
		args = append(args, w.args...)
	}
	return where{sql: strings.Join(parts, " OR "), args: args}, nil
}

// elementPredicate tests the scalar at path, or each element when path
// holds an array, with cond over the json_each row je. An object never
// matches: json_each would otherwise walk its members.
func elementPredicate(path, cond string, args ...any) where {
	return where{
		sql: "EXISTS (SELECT 1 FROM json_each(documents.body, ?) AS je" +
			" WHERE json_type(documents.body, ?) <> 'object' AND " + cond + ")",
		args: append([]any{path, path}, args...),
	}
}

var sqlOps = map[domain.Op]string{
	domain.OpGt:  ">",
	domain.OpGte: ">=",
	domain.OpLt:  "<",
	domain.OpLte: "<=",
}

func comparePredicate(path string, c domain.Condition) (where, error) {
	op := sqlOps[c.Op]

	if c.Numeric {
		return where{
			sql:  "COALESCE(to_double(json_extract(documents.body, ?)) " + op + " ?, 0)",
			args: []any{path, toFloat(c.Value)},
		}, nil
	}

	switch x := c.Value.(type) {
	case string:
		return elementPredicate(path, "je.type = 'text' AND je.value "+op+" ?", x), nil
	case int, int64, float64:
		return elementPredicate(path, "je.type IN ('integer', 'real') AND je.value "+op+" ?", toFloat(x)), nil
	default:
		return where{}, fmt.Errorf("%w: %s on %q needs a string or number", domain.ErrInvalidInput, c.Op, c.Field)
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}
