package osmpbf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
)

// Ensure Scanner implements the interface.
var _ driven.ElementScanner = (*Scanner)(nil)

// Suffix is the recognised file suffix.
const Suffix = ".osm.pbf"

// Supports reports whether path names a PBF extract.
func Supports(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), Suffix)
}

// coordPrecision is the precision OSM stores coordinates with.
const coordPrecision = 7

// Scanner yields the nodes and ways of a PBF extract in file order.
type Scanner struct {
	scanner *osmpbf.Scanner
	file    io.Closer
	current domain.Element
	err     error
}

// Open opens the extract at path.
func Open(ctx context.Context, path string) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open extract: %w", err)
	}
	s := NewScanner(ctx, f)
	s.file = f
	return s, nil
}

// NewScanner reads an extract from r. Closing the scanner does not close r.
func NewScanner(ctx context.Context, r io.Reader) *Scanner {
	sc := osmpbf.New(ctx, r, runtime.GOMAXPROCS(0))
	sc.SkipRelations = true
	return &Scanner{scanner: sc}
}

// Scan advances to the next node or way.
func (s *Scanner) Scan() bool {
	s.current.Release()
	if s.err != nil {
		return false
	}

	for s.scanner.Scan() {
		switch o := s.scanner.Object().(type) {
		case *osm.Node:
			s.current = fromNode(o)
			return true
		case *osm.Way:
			s.current = fromWay(o)
			return true
		}
	}

	s.err = scanError(s.scanner.Err())
	return false
}

// scanError classifies a decoder error. Cancellation is passed through
// unwrapped; anything else means the input could not be decoded.
func scanError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUnparseableInput, err)
}

// Element returns the current element.
func (s *Scanner) Element() *domain.Element {
	return &s.current
}

// Err returns the error that stopped the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Close stops the decoder and releases the file when the scanner opened it.
func (s *Scanner) Close() error {
	s.current.Release()
	err := s.scanner.Close()
	if s.file != nil {
		if cerr := s.file.Close(); err == nil {
			err = cerr
		}
		s.file = nil
	}
	return err
}

// formatCoord renders a coordinate the way OSM XML writes it: at most
// seven decimals, without trailing zeros.
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', coordPrecision, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func fromNode(n *osm.Node) domain.Element {
	attrs := []domain.Attr{
		{Name: "id", Value: strconv.FormatInt(int64(n.ID), 10)},
		{Name: "lat", Value: formatCoord(n.Lat)},
		{Name: "lon", Value: formatCoord(n.Lon)},
	}
	attrs = append(attrs, provenance(n.Version, int64(n.ChangesetID), n.Timestamp, n.User, int64(n.UserID))...)

	el := domain.Element{Name: domain.KindPoint, Attrs: attrs}
	el.Children = tagChildren(n.Tags)
	return el
}

func fromWay(w *osm.Way) domain.Element {
	attrs := []domain.Attr{{Name: "id", Value: strconv.FormatInt(int64(w.ID), 10)}}
	attrs = append(attrs, provenance(w.Version, int64(w.ChangesetID), w.Timestamp, w.User, int64(w.UserID))...)

	children := make([]domain.Element, 0, len(w.Nodes)+len(w.Tags))
	for _, wn := range w.Nodes {
		children = append(children, domain.Element{
			Name:  domain.ChildRef,
			Attrs: []domain.Attr{{Name: "ref", Value: strconv.FormatInt(int64(wn.ID), 10)}},
		})
	}
	children = append(children, tagChildren(w.Tags)...)
	return domain.Element{Name: domain.KindPath, Attrs: attrs, Children: children}
}

// provenance renders the revision attributes. PBF files may omit user
// metadata, in which case the corresponding attributes are left out.
func provenance(version int, changeset int64, ts time.Time, user string, uid int64) []domain.Attr {
	attrs := make([]domain.Attr, 0, 5)
	attrs = append(attrs,
		domain.Attr{Name: "version", Value: strconv.Itoa(version)},
		domain.Attr{Name: "changeset", Value: strconv.FormatInt(changeset, 10)},
	)
	if !ts.IsZero() {
		attrs = append(attrs, domain.Attr{Name: "timestamp", Value: ts.UTC().Format(time.RFC3339)})
	}
	if user != "" || uid != 0 {
		attrs = append(attrs,
			domain.Attr{Name: "user", Value: user},
			domain.Attr{Name: "uid", Value: strconv.FormatInt(uid, 10)},
		)
	}
	return attrs
}

func tagChildren(tags osm.Tags) []domain.Element {
	if len(tags) == 0 {
		return nil
	}
	out := make([]domain.Element, 0, len(tags))
	for _, t := range tags {
		out = append(out, domain.Element{
			Name:  domain.ChildTag,
			Attrs: []domain.Attr{{Name: "k", Value: t.Key}, {Name: "v", Value: t.Value}},
		})
	}
	return out
}
