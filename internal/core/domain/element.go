package domain

// Element kinds and child names as they appear in an extract.
const (
	// KindPoint is a single coordinate with tags (OSM node).
	KindPoint = "node"

	// KindPath is an ordered list of point references with tags (OSM way).
	KindPath = "way"

	// ChildTag carries one k/v attribute pair.
	ChildTag = "tag"

	// ChildRef names one point by identifier inside a path.
	ChildRef = "nd"
)

// EligibleKinds lists the top-level element kinds that produce documents.
var EligibleKinds = []string{KindPoint, KindPath}

// IsEligible reports whether an element kind produces a document.
func IsEligible(kind string) bool {
	return kind == KindPoint || kind == KindPath
}

// Attr is a single element attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of the extract tree: a tag name, its attributes and its
// direct children. Attribute values are kept as raw strings.
type Element struct {
	// Name is the element tag (node, way, tag, nd, ...).
	Name string

	// Attrs holds the attributes in document order.
	Attrs []Attr

	// Children holds the direct child elements in document order.
	Children []Element
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Release drops the element's children so a caller can bound memory once
// the element has been consumed.
func (e *Element) Release() {
	e.Attrs = nil
	e.Children = nil
}
