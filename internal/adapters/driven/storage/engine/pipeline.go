package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

// Run applies the pipeline stages to docs in order and returns the
// resulting documents.
func Run(docs [][]byte, p domain.Pipeline) ([][]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var err error
	for i, stage := range p {
		docs, err = runStage(docs, stage)
		if err != nil {
			return nil, fmt.Errorf("stage %d %s: %w", i, stage.Kind, err)
		}
	}
	return docs, nil
}

func runStage(docs [][]byte, s domain.Stage) ([][]byte, error) {
	switch s.Kind {
	case domain.StageMatch:
		m, err := Compile(s.Match)
		if err != nil {
			return nil, err
		}
		return m.Filter(docs)
	case domain.StageUnwind:
		return unwind(docs, s.Unwind)
	case domain.StageGroup:
		return group(docs, s.Group)
	case domain.StageSort:
		return sortDocs(docs, s.Sort), nil
	case domain.StageProject:
		return project(docs, s.Project)
	default:
		return nil, fmt.Errorf("%w: stage %s", domain.ErrUnsupportedType, s.Kind)
	}
}

// unwind emits one document per element of the array at field. Documents
// where the field is missing, null or an empty array are dropped; scalar
// values pass through unchanged.
func unwind(docs [][]byte, field string) ([][]byte, error) {
	path := Path(field)
	var out [][]byte
	for _, d := range docs {
		r := gjson.GetBytes(d, path)
		switch {
		case !r.Exists() || r.Type == gjson.Null:
			continue
		case !r.IsArray():
			out = append(out, d)
			continue
		}
		for _, el := range r.Array() {
			nd, err := sjson.SetRawBytes(bytes.Clone(d), path, []byte(el.Raw))
			if err != nil {
				return nil, fmt.Errorf("unwind %s: %w", field, err)
			}
			out = append(out, nd)
		}
	}
	return out, nil
}

type bucket struct {
	key  any
	sums []float64
}

// group folds docs into one output document per distinct key, in
// first-seen order.
func group(docs [][]byte, g *domain.Group) ([][]byte, error) {
	var order []string
	buckets := make(map[string]*bucket)

	keyPath := Path(g.Key.Field)
	for _, d := range docs {
		key, err := groupKey(d, g.Key, keyPath)
		if err != nil {
			return nil, err
		}
		id := canonical(key)
		b, ok := buckets[id]
		if !ok {
			b = &bucket{key: key, sums: make([]float64, len(g.Accumulators))}
			buckets[id] = b
			order = append(order, id)
		}
		for i, acc := range g.Accumulators {
			v, err := operand(d, acc.Sum)
			if err != nil {
				return nil, fmt.Errorf("$sum %s: %w", acc.Name, err)
			}
			b.sums[i] += v
		}
	}

	out := make([][]byte, 0, len(order))
	for _, id := range order {
		b := buckets[id]
		var buf bytes.Buffer
		buf.WriteString(`{"_id":`)
		buf.WriteString(id)
		for i, acc := range g.Accumulators {
			name, err := json.Marshal(acc.Name)
			if err != nil {
				return nil, err
			}
			sum, err := json.Marshal(b.sums[i])
			if err != nil {
				return nil, err
			}
			buf.WriteByte(',')
			buf.Write(name)
			buf.WriteByte(':')
			buf.Write(sum)
		}
		buf.WriteByte('}')
		out = append(out, buf.Bytes())
	}
	return out, nil
}

func groupKey(doc []byte, k domain.GroupKey, path string) (any, error) {
	if k.Field == "" {
		return normalise(k.Literal)
	}
	return Decode(gjson.GetBytes(doc, path)), nil
}

// operand returns what one document contributes to a $sum. Non-numeric
// field values contribute nothing.
func operand(doc []byte, op domain.SumOperand) (float64, error) {
	switch {
	case op.SizeOf != "":
		r := gjson.GetBytes(doc, Path(op.SizeOf))
		if !r.IsArray() {
			return 0, fmt.Errorf("%w: $size of %s needs an array", domain.ErrInvalidInput, op.SizeOf)
		}
		return float64(len(r.Array())), nil
	case op.Field != "":
		r := gjson.GetBytes(doc, Path(op.Field))
		if r.Type == gjson.Number {
			return r.Num, nil
		}
		return 0, nil
	default:
		return op.Const, nil
	}
}

// sortDocs orders docs by keys. Equal documents keep their input order.
func sortDocs(docs [][]byte, keys []domain.SortKey) [][]byte {
	type row struct {
		doc  []byte
		vals []gjson.Result
	}
	rows := make([]row, len(docs))
	for i, d := range docs {
		vals := make([]gjson.Result, len(keys))
		for j, k := range keys {
			vals[j] = gjson.GetBytes(d, Path(k.Field))
		}
		rows[i] = row{doc: d, vals: vals}
	}

	slices.SortStableFunc(rows, func(a, b row) int {
		for j, k := range keys {
			c := compareResults(a.vals[j], b.vals[j])
			if k.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})

	out := make([][]byte, len(rows))
	for i, r := range rows {
		out[i] = r.doc
	}
	return out
}

// project keeps _id (unless excluded) and the listed fields.
func project(docs [][]byte, p *domain.Projection) ([][]byte, error) {
	out := make([][]byte, 0, len(docs))
	for _, d := range docs {
		nd := []byte("{}")
		var err error
		if !p.ExcludeID {
			if r := gjson.GetBytes(d, domain.FieldStoreID); r.Exists() {
				if nd, err = sjson.SetRawBytes(nd, domain.FieldStoreID, []byte(r.Raw)); err != nil {
					return nil, err
				}
			}
		}
		for _, f := range p.Fields {
			path := Path(f)
			r := gjson.GetBytes(d, path)
			if !r.Exists() {
				continue
			}
			if nd, err = sjson.SetRawBytes(nd, path, []byte(r.Raw)); err != nil {
				return nil, fmt.Errorf("project %s: %w", f, err)
			}
		}
		out = append(out, nd)
	}
	return out, nil
}

// Distinct returns the distinct values of field across docs in first-seen
// order. Array values contribute their elements.
func Distinct(docs [][]byte, field string) []any {
	path := Path(field)
	seen := make(map[string]bool)
	var out []any
	add := func(r gjson.Result) {
		v := Decode(r)
		k := canonical(v)
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	for _, d := range docs {
		r := gjson.GetBytes(d, path)
		if !r.Exists() {
			continue
		}
		if r.IsArray() {
			r.ForEach(func(_, el gjson.Result) bool {
				add(el)
				return true
			})
			continue
		}
		add(r)
	}
	if out == nil {
		out = []any{}
	}
	return out
}

// Unset removes fields from doc. It reports whether anything was removed.
func Unset(doc []byte, fields ...string) ([]byte, bool, error) {
	changed := false
	for _, f := range fields {
		path := Path(f)
		if !gjson.GetBytes(doc, path).Exists() {
			continue
		}
		nd, err := sjson.DeleteBytes(doc, path)
		if err != nil {
			return nil, false, fmt.Errorf("unset %s: %w", f, err)
		}
		doc = nd
		changed = true
	}
	return doc, changed, nil
}

// EnsureID returns doc with an _id member, generated by newID when absent.
// The _id is placed first.
func EnsureID(doc []byte, newID func() string) ([]byte, string, error) {
	if !gjson.ValidBytes(doc) {
		return nil, "", fmt.Errorf("%w: document is not valid JSON", domain.ErrInvalidInput)
	}
	parsed := gjson.ParseBytes(doc)
	if !parsed.IsObject() {
		return nil, "", fmt.Errorf("%w: document is not an object", domain.ErrInvalidInput)
	}
	if r := parsed.Get(domain.FieldStoreID); r.Exists() {
		return compact(doc), r.String(), nil
	}

	id := newID()
	idJSON, err := json.Marshal(id)
	if err != nil {
		return nil, "", err
	}
	body := bytes.TrimSpace(compact(doc))
	var buf bytes.Buffer
	buf.Grow(len(body) + len(idJSON) + 8)
	buf.WriteString(`{"_id":`)
	buf.Write(idJSON)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), id, nil
}

func compact(doc []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, doc); err != nil {
		return doc
	}
	return buf.Bytes()
}

// Dedupe drops repeated values, keeping the first occurrence. It never
// returns nil.
func Dedupe(values []any) []any {
	seen := make(map[string]bool, len(values))
	out := make([]any, 0, len(values))
	for _, v := range values {
		k := canonical(v)
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}
