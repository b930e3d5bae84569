package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driving"
	"github.com/custodia-labs/osmdoc/internal/logger"
)

// Ensure ConvertService implements the interface.
var _ driving.ConvertService = (*ConvertService)(nil)

const prettyIndent = "  "

// ConvertService streams extracts through the element shaper into
// newline-delimited documents.
type ConvertService struct {
	scanners driven.ScannerFactory
	shaper   driven.ShaperBuilder
	metrics  driven.MetricsRecorder
}

// NewConvertService creates a new convert service.
func NewConvertService(
	scanners driven.ScannerFactory,
	shaper driven.ShaperBuilder,
	metrics driven.MetricsRecorder,
) *ConvertService {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &ConvertService{
		scanners: scanners,
		shaper:   shaper,
		metrics:  metrics,
	}
}

// SupportedFormats lists the recognised input suffixes.
func (s *ConvertService) SupportedFormats() []string {
	return s.scanners.SupportedFormats()
}

// Lines returns the serialised documents of an extract as a lazy sequence.
func (s *ConvertService) Lines(
	ctx context.Context,
	input string,
	settings domain.ConvertSettings,
) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for l, err := range s.lines(ctx, input, settings) {
			if !yield(l.data, err) || err != nil {
				return
			}
		}
	}
}

// line is one serialised document and the document it came from.
type line struct {
	doc  *domain.Document
	data []byte
}

// lines serialises every shaped document, stopping at the first error.
func (s *ConvertService) lines(
	ctx context.Context,
	input string,
	settings domain.ConvertSettings,
) iter.Seq2[line, error] {
	return func(yield func(line, error) bool) {
		for doc, err := range s.documents(ctx, input, settings) {
			if err != nil {
				yield(line{}, err)
				return
			}
			data, err := serialise(doc, settings.Pretty)
			if err != nil {
				yield(line{}, fmt.Errorf("serialise %s %s: %w", doc.Type, doc.ID, err))
				return
			}
			if !yield(line{doc: doc, data: data}, nil) {
				return
			}
		}
	}
}

// documents shapes every eligible element, releasing each once shaped.
func (s *ConvertService) documents(
	ctx context.Context,
	input string,
	settings domain.ConvertSettings,
) iter.Seq2[*domain.Document, error] {
	return func(yield func(*domain.Document, error) bool) {
		scanner, err := s.scanners.Open(ctx, input)
		if err != nil {
			yield(nil, err)
			return
		}
		defer scanner.Close()

		shaper := s.shaper(settings.StreetRewrite)
		for scanner.Scan() {
			el := scanner.Element()
			s.metrics.ElementRead(el.Name)

			doc, ok, err := shaper.Shape(el)
			el.Release()
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				logger.Debug("skipping %s element", el.Name)
				continue
			}
			if !yield(doc, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Convert streams the extract into the output file.
func (s *ConvertService) Convert(ctx context.Context, opts driving.ConvertOptions) (*domain.ConvertResult, error) {
	if !opts.Settings.StreetRewrite.IsValid() {
		return nil, fmt.Errorf("%w: street rewrite %q", domain.ErrInvalidInput, opts.Settings.StreetRewrite)
	}
	output := opts.Output
	if output == "" {
		output = domain.OutputPath(opts.Input)
	}

	defer logger.Timed("Convert")()
	logger.Info("input %s", opts.Input)
	logger.Info("output %s (pretty=%t, street rewrite=%s)", output, opts.Settings.Pretty, opts.Settings.StreetRewrite)
	start := time.Now()

	f, err := os.Create(output)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	stats, err := s.write(ctx, f, opts)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	if err != nil {
		if rerr := os.Remove(output); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			logger.Error("failed to remove partial output %s: %v", output, rerr)
		}
		return nil, err
	}

	result := &domain.ConvertResult{
		Input:    opts.Input,
		Output:   output,
		Stats:    stats,
		Duration: time.Since(start),
	}
	logger.Info("wrote %d documents (%d points, %d paths, %d bytes) in %s",
		stats.Documents(), stats.Points, stats.Paths, stats.Bytes, result.Duration)
	return result, nil
}

func (s *ConvertService) write(ctx context.Context, f *os.File, opts driving.ConvertOptions) (domain.ConvertStats, error) {
	var stats domain.ConvertStats
	w := bufio.NewWriter(f)

	for l, err := range s.lines(ctx, opts.Input, opts.Settings) {
		if err != nil {
			return stats, err
		}
		stats.Elements++

		n, err := w.Write(append(l.data, '\n'))
		if err != nil {
			return stats, fmt.Errorf("write output: %w", err)
		}

		doc := l.doc
		stats.Bytes += int64(n)
		if doc.IsPath() {
			stats.Paths++
		} else {
			stats.Points++
		}
		s.metrics.DocumentWritten(doc.Type, n)
		if opts.Progress != nil {
			opts.Progress(stats)
		}
	}

	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("write output: %w", err)
	}
	return stats, nil
}

// serialise renders a document compactly or indented by two spaces.
func serialise(doc *domain.Document, pretty bool) ([]byte, error) {
	compact, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if !pretty {
		return compact, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", prettyIndent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
