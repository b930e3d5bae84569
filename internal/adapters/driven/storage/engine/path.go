package engine

import "strings"

// pathSpecial lists the characters gjson and sjson treat as path syntax.
const pathSpecial = `\*?|#@!=<>%"`

// Path converts a dot-separated field path into a gjson/sjson path,
// escaping syntax characters inside each segment.
func Path(field string) string {
	if !strings.ContainsAny(field, pathSpecial) {
		return field
	}
	var b strings.Builder
	for _, r := range field {
		if strings.ContainsRune(pathSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
