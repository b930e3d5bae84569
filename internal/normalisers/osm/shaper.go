package osm

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
	"github.com/custodia-labs/osmdoc/internal/logger"
)

// Ensure Shaper implements the interface.
var _ driven.ElementShaper = (*Shaper)(nil)

// Address sub-fields with special handling.
const (
	addrStreet     = "street"
	addrStreetType = "street_type"
	addrState      = "state"
)

// Shaper converts node and way elements into documents.
// It holds no state between calls.
type Shaper struct {
	streetRewrite domain.StreetRewrite
}

// New creates a shaper using the given street rewrite mode. Unknown modes
// fall back to positional rewriting.
func New(mode domain.StreetRewrite) *Shaper {
	if !mode.IsValid() {
		mode = domain.StreetRewritePositional
	}
	return &Shaper{streetRewrite: mode}
}

// Shape returns the document for a node or way element.
func (s *Shaper) Shape(el *domain.Element) (*domain.Document, bool, error) {
	if el == nil || !domain.IsEligible(el.Name) {
		return nil, false, nil
	}

	id, ok := el.Attr("id")
	if !ok {
		return nil, false, fmt.Errorf("%s without id: %w", el.Name, domain.ErrMalformedElement)
	}

	doc := &domain.Document{ID: id, Type: el.Name}
	doc.Visible, _ = el.Attr("visible")

	for _, name := range domain.ProvenanceAttrs {
		v, err := required(el, id, name)
		if err != nil {
			return nil, false, err
		}
		doc.Created.Set(name, v)
	}

	switch el.Name {
	case domain.KindPoint:
		lat, err := required(el, id, "lat")
		if err != nil {
			return nil, false, err
		}
		lon, err := required(el, id, "lon")
		if err != nil {
			return nil, false, err
		}
		doc.Pos = []string{lat, lon}
	case domain.KindPath:
		doc.NodeRefs = []string{}
	}

	for i := range el.Children {
		child := &el.Children[i]
		switch child.Name {
		case domain.ChildTag:
			if err := s.applyTag(doc, child); err != nil {
				return nil, false, err
			}
		case domain.ChildRef:
			if !doc.IsPath() {
				continue
			}
			ref, err := required(child, id, "ref")
			if err != nil {
				return nil, false, err
			}
			doc.NodeRefs = append(doc.NodeRefs, ref)
		}
	}

	cleanLanes(doc)
	return doc, true, nil
}

// applyTag copies one tag child into the document.
func (s *Shaper) applyTag(doc *domain.Document, tag *domain.Element) error {
	k, err := required(tag, doc.ID, "k")
	if err != nil {
		return err
	}

	key := parseKey(k)
	if !key.usable() {
		logger.Debug("%s %s: skipping tag key %q", doc.Type, doc.ID, k)
		return nil
	}

	v, err := required(tag, doc.ID, "v")
	if err != nil {
		return err
	}

	if field, ok := key.addressField(); ok {
		s.applyAddress(doc, field, v)
		return nil
	}

	if domain.IsReservedField(k) {
		logger.Debug("%s %s: tag %q collides with a document field", doc.Type, doc.ID, k)
		return nil
	}

	doc.Tags.Set(k, v)
	return nil
}

// applyAddress stores one addr:<field> value. Later values for the same
// field replace earlier ones.
func (s *Shaper) applyAddress(doc *domain.Document, field, value string) {
	if doc.Address == nil {
		doc.Address = &domain.Fields{}
	}

	switch field {
	case addrStreet:
		street, streetType := canonicaliseStreet(value, s.streetRewrite)
		doc.Address.Set(addrStreet, street)
		if streetType != "" {
			doc.Address.Set(addrStreetType, streetType)
		}
	case addrState:
		doc.Address.Set(addrState, normaliseState(value))
	default:
		doc.Address.Set(field, value)
	}
}

// cleanLanes strips whitespace from lanes and splits multiple counts
// recorded in one value.
func cleanLanes(doc *domain.Document) {
	raw, ok := doc.Tags.GetString(domain.FieldLanes)
	if !ok {
		return
	}

	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	if strings.Contains(stripped, ";") {
		doc.Tags.Set(domain.FieldLanes, strings.Split(stripped, ";"))
		return
	}
	doc.Tags.Set(domain.FieldLanes, stripped)
}

// required returns a mandatory attribute or a malformed element error.
func required(el *domain.Element, id, name string) (string, error) {
	v, ok := el.Attr(name)
	if !ok {
		return "", fmt.Errorf("%s %s: missing attribute %q: %w", el.Name, id, name, domain.ErrMalformedElement)
	}
	return v, nil
}
