package driven

import "github.com/custodia-labs/osmdoc/internal/core/domain"

// ElementShaper turns one parsed element into a flat document.
type ElementShaper interface {
	// Shape returns the document for an eligible element. ok is false for
	// elements that do not produce a document. A missing required attribute
	// returns an error wrapping domain.ErrMalformedElement.
	Shape(el *domain.Element) (doc *domain.Document, ok bool, err error)
}

// ShaperBuilder returns the shaper for a street rewrite mode.
type ShaperBuilder func(mode domain.StreetRewrite) ElementShaper
