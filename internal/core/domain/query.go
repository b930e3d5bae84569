package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Op is a filter operator understood by document stores.
type Op string

// Supported filter operators.
const (
	OpEq     Op = "$eq"
	OpNe     Op = "$ne"
	OpIn     Op = "$in"
	OpNin    Op = "$nin"
	OpExists Op = "$exists"
	OpSize   Op = "$size"
	OpGt     Op = "$gt"
	OpGte    Op = "$gte"
	OpLt     Op = "$lt"
	OpLte    Op = "$lte"
)

// IsComparison reports whether the operator orders values.
func (o Op) IsComparison() bool {
	switch o {
	case OpGt, OpGte, OpLt, OpLte:
		return true
	default:
		return false
	}
}

// Condition tests one field of a document. Field is a dot path such as
// "address.street" or "pos.0".
type Condition struct {
	Field string
	Op    Op
	Value any

	// Numeric converts the stored value to a number before comparing.
	// Missing and null values never match; values that do not parse as
	// numbers fail the query.
	Numeric bool
}

// Filter is a conjunction of conditions. The empty filter matches every
// document.
type Filter []Condition

// Eq matches documents whose field equals v, or whose array field has an
// element equal to v.
func Eq(field string, v any) Condition { return Condition{Field: field, Op: OpEq, Value: v} }

// Ne is the negation of Eq; it matches documents without the field.
func Ne(field string, v any) Condition { return Condition{Field: field, Op: OpNe, Value: v} }

// In matches documents whose field equals any of vs.
func In(field string, vs ...any) Condition { return Condition{Field: field, Op: OpIn, Value: vs} }

// Nin is the negation of In; it matches documents without the field.
func Nin(field string, vs ...any) Condition { return Condition{Field: field, Op: OpNin, Value: vs} }

// Exists matches documents that have (or lack) the field.
func Exists(field string, present bool) Condition {
	return Condition{Field: field, Op: OpExists, Value: present}
}

// Size matches documents whose array field has exactly n elements.
func Size(field string, n int) Condition { return Condition{Field: field, Op: OpSize, Value: n} }

// Gt matches documents whose field is greater than v.
func Gt(field string, v any) Condition { return Condition{Field: field, Op: OpGt, Value: v} }

// Gte matches documents whose field is greater than or equal to v.
func Gte(field string, v any) Condition { return Condition{Field: field, Op: OpGte, Value: v} }

// Lt matches documents whose field is less than v.
func Lt(field string, v any) Condition { return Condition{Field: field, Op: OpLt, Value: v} }

// Lte matches documents whose field is less than or equal to v.
func Lte(field string, v any) Condition { return Condition{Field: field, Op: OpLte, Value: v} }

// AsNumber returns a copy of the condition that compares numerically.
func (c Condition) AsNumber() Condition {
	c.Numeric = true
	return c
}

// Validate checks the operator and value shape.
func (c Condition) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("%w: condition without field", ErrInvalidInput)
	}
	switch c.Op {
	case OpEq, OpNe:
		return nil
	case OpIn, OpNin:
		if _, ok := c.Value.([]any); !ok {
			return fmt.Errorf("%w: %s on %q needs a list", ErrInvalidInput, c.Op, c.Field)
		}
	case OpExists:
		if _, ok := c.Value.(bool); !ok {
			return fmt.Errorf("%w: %s on %q needs a bool", ErrInvalidInput, c.Op, c.Field)
		}
	case OpSize:
		if _, ok := c.Value.(int); !ok {
			return fmt.Errorf("%w: %s on %q needs an int", ErrInvalidInput, c.Op, c.Field)
		}
	case OpGt, OpGte, OpLt, OpLte:
		switch c.Value.(type) {
		case string:
			if c.Numeric {
				return fmt.Errorf("%w: numeric %s on %q needs a number", ErrInvalidInput, c.Op, c.Field)
			}
		case int, int64, float64:
		default:
			return fmt.Errorf("%w: %s on %q needs a string or number", ErrInvalidInput, c.Op, c.Field)
		}
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidInput, c.Op)
	}
	return nil
}

// Validate checks every condition.
func (f Filter) Validate() error {
	for _, c := range f {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// String renders the filter in document-store query notation, for logs and
// reports.
func (f Filter) String() string {
	parts := make([]string, 0, len(f))
	for _, c := range f {
		v, err := json.Marshal(c.Value)
		if err != nil {
			v = []byte(fmt.Sprintf("%v", c.Value))
		}
		expr := fmt.Sprintf(`{%q: %s}`, c.Op, v)
		if c.Op == OpEq {
			expr = string(v)
		}
		if c.Numeric {
			expr = fmt.Sprintf(`{"$toDouble": %s}`, expr)
		}
		parts = append(parts, fmt.Sprintf("%q: %s", c.Field, expr))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// StageKind identifies an aggregation stage.
type StageKind int

// Aggregation stages.
const (
	StageMatch StageKind = iota
	StageUnwind
	StageGroup
	StageSort
	StageProject
)

// String returns the stage name in document-store notation.
func (k StageKind) String() string {
	switch k {
	case StageMatch:
		return "$match"
	case StageUnwind:
		return "$unwind"
	case StageGroup:
		return "$group"
	case StageSort:
		return "$sort"
	case StageProject:
		return "$project"
	default:
		return "unknown"
	}
}

// GroupKey selects the group identity: a field reference or a literal.
type GroupKey struct {
	Field   string
	Literal any
}

// ByField groups on the value of field; documents without it share a null key.
func ByField(field string) GroupKey { return GroupKey{Field: field} }

// ByLiteral puts every document into one group identified by v.
func ByLiteral(v any) GroupKey { return GroupKey{Literal: v} }

// SumOperand is what a $sum accumulator adds per document: a constant,
// a numeric field or the length of an array field.
type SumOperand struct {
	Const  float64
	Field  string
	SizeOf string
}

// Accumulator is a named $sum over a group.
type Accumulator struct {
	Name string
	Sum  SumOperand
}

// Count adds 1 per document.
func Count(name string) Accumulator {
	return Accumulator{Name: name, Sum: SumOperand{Const: 1}}
}

// SumField adds the numeric value of field per document.
func SumField(name, field string) Accumulator {
	return Accumulator{Name: name, Sum: SumOperand{Field: field}}
}

// SumSize adds the length of the array field per document.
func SumSize(name, field string) Accumulator {
	return Accumulator{Name: name, Sum: SumOperand{SizeOf: field}}
}

// Group describes a $group stage.
type Group struct {
	Key          GroupKey
	Accumulators []Accumulator
}

// SortKey orders documents by one field.
type SortKey struct {
	Field string
	Desc  bool
}

// Asc sorts ascending on field.
func Asc(field string) SortKey { return SortKey{Field: field} }

// Desc sorts descending on field.
func Desc(field string) SortKey { return SortKey{Field: field, Desc: true} }

// Projection keeps the listed fields; _id is kept unless ExcludeID is set.
type Projection struct {
	Fields    []string
	ExcludeID bool
}

// Stage is one step of an aggregation pipeline. Only the member matching
// Kind is used.
type Stage struct {
	Kind    StageKind
	Match   Filter
	Unwind  string
	Group   *Group
	Sort    []SortKey
	Project *Projection
}

// Match builds a $match stage.
func Match(conds ...Condition) Stage { return Stage{Kind: StageMatch, Match: Filter(conds)} }

// Unwind builds an $unwind stage over an array field.
func Unwind(field string) Stage { return Stage{Kind: StageUnwind, Unwind: field} }

// GroupBy builds a $group stage.
func GroupBy(key GroupKey, accs ...Accumulator) Stage {
	return Stage{Kind: StageGroup, Group: &Group{Key: key, Accumulators: accs}}
}

// SortBy builds a $sort stage.
func SortBy(keys ...SortKey) Stage { return Stage{Kind: StageSort, Sort: keys} }

// Project builds a $project stage.
func Project(fields ...string) Stage {
	return Stage{Kind: StageProject, Project: &Projection{Fields: fields}}
}

// Pipeline is an ordered list of aggregation stages.
type Pipeline []Stage

// Validate checks every stage carries the member its kind needs.
func (p Pipeline) Validate() error {
	for i, s := range p {
		var err error
		switch s.Kind {
		case StageMatch:
			err = s.Match.Validate()
		case StageUnwind:
			if s.Unwind == "" {
				err = fmt.Errorf("%w: $unwind without field", ErrInvalidInput)
			}
		case StageGroup:
			if s.Group == nil {
				err = fmt.Errorf("%w: $group without key", ErrInvalidInput)
			} else {
				for _, a := range s.Group.Accumulators {
					if a.Name == "" || a.Name == FieldStoreID {
						err = fmt.Errorf("%w: invalid accumulator name %q", ErrInvalidInput, a.Name)
						break
					}
				}
			}
		case StageSort:
			if len(s.Sort) == 0 {
				err = fmt.Errorf("%w: $sort without keys", ErrInvalidInput)
			}
		case StageProject:
			if s.Project == nil {
				err = fmt.Errorf("%w: $project without fields", ErrInvalidInput)
			}
		default:
			err = fmt.Errorf("%w: unknown stage %d", ErrInvalidInput, s.Kind)
		}
		if err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return nil
}

// CollectionStats summarises a stored collection.
type CollectionStats struct {
	// Name is the collection name.
	Name string

	// Documents is the number of stored documents.
	Documents int64

	// SizeBytes is the total size of the stored document bodies.
	SizeBytes int64
}
