package osmxml

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
)

// Ensure Scanner implements the interface.
var _ driven.ElementScanner = (*Scanner)(nil)

// rawElement captures any element with all of its attributes and children.
type rawElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr   `xml:",any,attr"`
	Children []rawElement `xml:",any"`
}

// Scanner yields the node and way children of the document root.
type Scanner struct {
	ctx    context.Context
	dec    *xml.Decoder
	closer io.Closer

	depth   int
	rooted  bool
	current domain.Element
	err     error
	done    bool
}

// Open opens the extract at path.
func Open(ctx context.Context, path string) (*Scanner, error) {
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	s := NewScanner(ctx, src)
	s.closer = src
	return s, nil
}

// NewScanner reads an extract from r. Closing the scanner does not close r.
func NewScanner(ctx context.Context, r io.Reader) *Scanner {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	return &Scanner{ctx: ctx, dec: dec}
}

// Scan advances to the next node or way.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	s.current.Release()

	for {
		if err := s.ctx.Err(); err != nil {
			return s.fail(err)
		}

		tok, err := s.dec.Token()
		if errors.Is(err, io.EOF) {
			if !s.rooted {
				return s.fail(fmt.Errorf("%w: no root element", domain.ErrUnparseableInput))
			}
			if s.depth != 0 {
				return s.fail(fmt.Errorf("%w: unexpected end of input", domain.ErrUnparseableInput))
			}
			s.done = true
			return false
		}
		if err != nil {
			return s.fail(fmt.Errorf("%w: %w", domain.ErrUnparseableInput, err))
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if s.depth == 0 {
				s.depth++
				s.rooted = true
				continue
			}
			if !domain.IsEligible(t.Name.Local) {
				if err := s.dec.Skip(); err != nil {
					return s.fail(fmt.Errorf("%w: %w", domain.ErrUnparseableInput, err))
				}
				continue
			}
			var raw rawElement
			if err := s.dec.DecodeElement(&raw, &t); err != nil {
				return s.fail(fmt.Errorf("%w: %s: %w", domain.ErrUnparseableInput, t.Name.Local, err))
			}
			s.current = toElement(&raw)
			return true
		case xml.EndElement:
			s.depth--
		}
	}
}

func (s *Scanner) fail(err error) bool {
	s.err = err
	s.done = true
	return false
}

// Element returns the current element.
func (s *Scanner) Element() *domain.Element {
	return &s.current
}

// Err returns the error that stopped the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Close releases the underlying file when the scanner opened it.
func (s *Scanner) Close() error {
	s.done = true
	s.current.Release()
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

func toElement(raw *rawElement) domain.Element {
	el := domain.Element{Name: raw.XMLName.Local}
	if len(raw.Attrs) > 0 {
		el.Attrs = make([]domain.Attr, len(raw.Attrs))
		for i, a := range raw.Attrs {
			el.Attrs[i] = domain.Attr{Name: a.Name.Local, Value: a.Value}
		}
	}
	if len(raw.Children) > 0 {
		el.Children = make([]domain.Element, len(raw.Children))
		for i := range raw.Children {
			el.Children[i] = toElement(&raw.Children[i])
		}
	}
	return el
}
