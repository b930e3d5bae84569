package driving

import (
	"context"
	"iter"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

// ConvertOptions configures one conversion.
type ConvertOptions struct {
	// Input is the extract to read.
	Input string

	// Output overrides the output path. Empty means domain.OutputPath(Input).
	Output string

	Settings domain.ConvertSettings

	// Progress, when set, is called after each written document.
	Progress func(domain.ConvertStats)
}

// ConvertService turns an extract into newline-delimited documents.
type ConvertService interface {
	// Convert streams the extract into the output file. Any malformed
	// element or unparseable input aborts the pass and removes the
	// partial output.
	Convert(ctx context.Context, opts ConvertOptions) (*domain.ConvertResult, error)

	// Lines returns the serialised documents of an extract as a lazy,
	// single-pass sequence. Iteration stops at the first error, which is
	// yielded with a nil line.
	Lines(ctx context.Context, input string, settings domain.ConvertSettings) iter.Seq2[[]byte, error]

	// SupportedFormats lists the recognised input suffixes.
	SupportedFormats() []string
}
