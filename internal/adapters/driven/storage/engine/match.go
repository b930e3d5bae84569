package engine

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

// Matcher is a compiled filter.
type Matcher struct {
	conds []compiled
}

type compiled struct {
	domain.Condition
	path    string
	operand any
	set     []any
}

// Compile validates f and prepares it for repeated evaluation.
func Compile(f domain.Filter) (*Matcher, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	m := &Matcher{conds: make([]compiled, 0, len(f))}
	for _, c := range f {
		cc := compiled{Condition: c, path: Path(c.Field)}
		switch c.Op {
		case domain.OpIn, domain.OpNin:
			for _, v := range c.Value.([]any) {
				n, err := normalise(v)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, c.Field, err)
				}
				cc.set = append(cc.set, n)
			}
		default:
			n, err := normalise(c.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, c.Field, err)
			}
			cc.operand = n
		}
		m.conds = append(m.conds, cc)
	}
	return m, nil
}

// Match reports whether doc satisfies every condition.
func (m *Matcher) Match(doc []byte) (bool, error) {
	for i := range m.conds {
		ok, err := m.conds[i].match(gjson.GetBytes(doc, m.conds[i].path))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Filter returns the documents that match, in order.
func (m *Matcher) Filter(docs [][]byte) ([][]byte, error) {
	out := docs[:0:0]
	for _, d := range docs {
		ok, err := m.Match(d)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (c *compiled) match(r gjson.Result) (bool, error) {
	switch c.Op {
	case domain.OpEq:
		return eqOrContains(r, c.operand), nil
	case domain.OpNe:
		return !eqOrContains(r, c.operand), nil
	case domain.OpIn:
		return inSet(r, c.set), nil
	case domain.OpNin:
		return !inSet(r, c.set), nil
	case domain.OpExists:
		return r.Exists() == c.operand.(bool), nil
	case domain.OpSize:
		return r.IsArray() && float64(len(r.Array())) == c.operand.(float64), nil
	default:
		if c.Numeric {
			return c.compareNumeric(r)
		}
		return c.compareTyped(r), nil
	}
}

func eqOrContains(r gjson.Result, v any) bool {
	if equal(r, v) {
		return true
	}
	if r.IsArray() {
		for _, el := range r.Array() {
			if equal(el, v) {
				return true
			}
		}
	}
	return false
}

func inSet(r gjson.Result, set []any) bool {
	for _, v := range set {
		if eqOrContains(r, v) {
			return true
		}
	}
	return false
}

// compareTyped orders values of the operand's own type only.
func (c *compiled) compareTyped(r gjson.Result) bool {
	if !r.Exists() {
		return false
	}
	candidates := []gjson.Result{r}
	if r.IsArray() {
		candidates = r.Array()
	}
	for _, el := range candidates {
		switch v := c.operand.(type) {
		case string:
			if el.Type == gjson.String && holds(c.Op, compareStrings(el.Str, v)) {
				return true
			}
		case float64:
			if el.Type == gjson.Number && holds(c.Op, cmpFloat(el.Num, v)) {
				return true
			}
		}
	}
	return false
}

func (c *compiled) compareNumeric(r gjson.Result) (bool, error) {
	f, ok, err := toDouble(r)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, c.Field, err)
	}
	if !ok {
		return false, nil
	}
	return holds(c.Op, cmpFloat(f, c.operand.(float64))), nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// holds applies a comparison operator to the result of a three-way compare.
func holds(op domain.Op, cmp int) bool {
	switch op {
	case domain.OpGt:
		return cmp > 0
	case domain.OpGte:
		return cmp >= 0
	case domain.OpLt:
		return cmp < 0
	case domain.OpLte:
		return cmp <= 0
	default:
		return false
	}
}
