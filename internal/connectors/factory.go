package connectors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/osmdoc/internal/connectors/osmpbf"
	"github.com/custodia-labs/osmdoc/internal/connectors/osmxml"
	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ScannerFactory = (*Factory)(nil)

// Factory opens XML and PBF extracts.
type Factory struct{}

// NewFactory creates a scanner factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Open returns a scanner for path based on its suffix.
func (f *Factory) Open(ctx context.Context, path string) (driven.ElementScanner, error) {
	switch {
	case osmpbf.Supports(path):
		s, err := osmpbf.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case osmxml.Supports(path):
		s, err := osmxml.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: input %q (want one of %v)", domain.ErrUnsupportedType, path, f.SupportedFormats())
	}
}

// SupportedFormats lists the recognised suffixes.
func (f *Factory) SupportedFormats() []string {
	formats := append([]string(nil), osmxml.Suffixes...)
	return append(formats, osmpbf.Suffix)
}
