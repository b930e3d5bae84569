package domain

import (
	"bytes"
	"encoding/json"
)

// Document field names.
const (
	FieldID       = "id"
	FieldType     = "type"
	FieldVisible  = "visible"
	FieldPos      = "pos"
	FieldCreated  = "created"
	FieldNodeRefs = "node_refs"
	FieldAddress  = "address"
	FieldLanes    = "lanes"

	// FieldStoreID is the identifier a document store assigns on insert.
	FieldStoreID = "_id"
)

// ProvenanceAttrs lists the attributes copied verbatim into Document.Created,
// in output order.
var ProvenanceAttrs = []string{"version", "changeset", "timestamp", "user", "uid"}

// reservedFields are document fields a tag may never overwrite.
var reservedFields = map[string]bool{
	FieldID:       true,
	FieldType:     true,
	FieldVisible:  true,
	FieldPos:      true,
	FieldCreated:  true,
	FieldNodeRefs: true,
	FieldAddress:  true,
	FieldStoreID:  true,
}

// IsReservedField reports whether key names a fixed document field.
func IsReservedField(key string) bool {
	return reservedFields[key]
}

// Provenance records who created an element revision and when.
type Provenance struct {
	Version   string
	Changeset string
	Timestamp string
	User      string
	UID       string
}

// Get returns the provenance value for one of ProvenanceAttrs.
func (p Provenance) Get(name string) string {
	switch name {
	case "version":
		return p.Version
	case "changeset":
		return p.Changeset
	case "timestamp":
		return p.Timestamp
	case "user":
		return p.User
	case "uid":
		return p.UID
	default:
		return ""
	}
}

// Set assigns the provenance value for one of ProvenanceAttrs.
func (p *Provenance) Set(name, value string) {
	switch name {
	case "version":
		p.Version = value
	case "changeset":
		p.Changeset = value
	case "timestamp":
		p.Timestamp = value
	case "user":
		p.User = value
	case "uid":
		p.UID = value
	}
}

// MarshalJSON writes the provenance fields in ProvenanceAttrs order.
func (p Provenance) MarshalJSON() ([]byte, error) {
	var f Fields
	for _, name := range ProvenanceAttrs {
		f.Set(name, p.Get(name))
	}
	return f.MarshalJSON()
}

// Fields is an insertion-ordered string-keyed mapping. Setting an existing
// key replaces its value but keeps its position.
type Fields struct {
	keys   []string
	values map[string]any
}

// Set stores value under key.
func (f *Fields) Set(key string, value any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (f *Fields) GetString(key string) (string, bool) {
	v, ok := f.values[key].(string)
	return v, ok
}

// Keys returns the keys in insertion order.
func (f *Fields) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Len returns the number of keys.
func (f *Fields) Len() int {
	return len(f.keys)
}

// MarshalJSON writes the fields as a JSON object in insertion order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, k, f.values[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Document is the flat, normalised form of a point or path element.
// Documents are built once per element and never mutated afterwards.
type Document struct {
	// ID is the element identifier.
	ID string

	// Type is the element kind, KindPoint or KindPath.
	Type string

	// Visible is the raw visible flag, empty when absent.
	Visible string

	// Pos is [lat, lon] as raw strings for points, empty for paths.
	Pos []string

	// Created holds the provenance attributes.
	Created Provenance

	// NodeRefs lists the referenced point identifiers of a path in order.
	NodeRefs []string

	// Address holds addr:* sub-fields, nil when the element has none.
	Address *Fields

	// Tags holds the remaining top-level fields in first-seen order.
	Tags Fields
}

// IsPath reports whether the document describes a path.
func (d *Document) IsPath() bool {
	return d.Type == KindPath
}

// MarshalJSON writes the document with a fixed field order so repeated runs
// produce byte-identical output.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	pos := d.Pos
	if pos == nil {
		pos = []string{}
	}
	members := []struct {
		key   string
		value any
	}{
		{FieldID, d.ID},
		{FieldType, d.Type},
		{FieldVisible, d.Visible},
		{FieldPos, pos},
		{FieldCreated, d.Created},
	}
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, m.key, m.value); err != nil {
			return nil, err
		}
	}

	if d.IsPath() {
		refs := d.NodeRefs
		if refs == nil {
			refs = []string{}
		}
		buf.WriteByte(',')
		if err := writeMember(&buf, FieldNodeRefs, refs); err != nil {
			return nil, err
		}
	}

	if d.Address != nil {
		buf.WriteByte(',')
		if err := writeMember(&buf, FieldAddress, d.Address); err != nil {
			return nil, err
		}
	}

	for _, k := range d.Tags.keys {
		buf.WriteByte(',')
		if err := writeMember(&buf, k, d.Tags.values[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
