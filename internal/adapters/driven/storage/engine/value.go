package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Type brackets for cross-type ordering.
const (
	bracketNull = iota
	bracketNumber
	bracketString
	bracketObject
	bracketArray
	bracketBool
)

func bracket(r gjson.Result) int {
	switch r.Type {
	case gjson.Number:
		return bracketNumber
	case gjson.String:
		return bracketString
	case gjson.True, gjson.False:
		return bracketBool
	case gjson.JSON:
		if r.IsArray() {
			return bracketArray
		}
		return bracketObject
	default:
		return bracketNull
	}
}

// compareResults orders two values. Missing values sort as null.
func compareResults(a, b gjson.Result) int {
	ba, bb := bracket(a), bracket(b)
	if ba != bb {
		return cmpInt(ba, bb)
	}
	switch ba {
	case bracketNumber:
		return cmpFloat(a.Num, b.Num)
	case bracketString:
		return strings.Compare(a.Str, b.Str)
	case bracketBool:
		return cmpInt(boolInt(a.Bool()), boolInt(b.Bool()))
	case bracketArray:
		aa, ab := a.Array(), b.Array()
		for i := 0; i < len(aa) && i < len(ab); i++ {
			if c := compareResults(aa[i], ab[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(aa), len(ab))
	case bracketObject:
		return strings.Compare(a.Raw, b.Raw)
	default:
		return 0
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// normalise maps a Go value onto the shapes gjson decodes to: float64
// numbers, []any arrays and map[string]any objects.
func normalise(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.RawMessage:
		return Decode(gjson.ParseBytes(x)), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// equal reports whether the stored value equals the normalised operand.
func equal(r gjson.Result, v any) bool {
	if !r.Exists() {
		return v == nil
	}
	return reflect.DeepEqual(Decode(r), v)
}

// Decode converts a gjson result into plain Go values. Arrays and objects
// are never nil, so an empty array compares equal to []any{}.
func Decode(r gjson.Result) any {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Num
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.JSON:
		if r.IsArray() {
			out := make([]any, 0)
			r.ForEach(func(_, v gjson.Result) bool {
				out = append(out, Decode(v))
				return true
			})
			return out
		}
		out := make(map[string]any)
		r.ForEach(func(k, v gjson.Result) bool {
			out[k.Str] = Decode(v)
			return true
		})
		return out
	default:
		return nil
	}
}

// canonical returns a stable key for a value, used to group and dedupe.
func canonical(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// toDouble converts a stored value to a number. Missing and null values
// report ok=false.
func toDouble(r gjson.Result) (f float64, ok bool, err error) {
	switch r.Type {
	case gjson.Null:
		return 0, false, nil
	case gjson.Number:
		return r.Num, true, nil
	case gjson.True:
		return 1, true, nil
	case gjson.False:
		return 0, true, nil
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, false, fmt.Errorf("cannot convert %q to a number", r.Str)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("cannot convert %s to a number", r.Raw)
	}
}

// ToDouble is toDouble over a raw Go value, shared with SQL adapters.
// Nil reports ok=false.
func ToDouble(v any) (float64, bool, error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case int64:
		return float64(x), true, nil
	case float64:
		return x, true, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false, fmt.Errorf("cannot convert %q to a number", x)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("cannot convert %v to a number", x)
	}
}
