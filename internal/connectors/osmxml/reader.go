package osmxml

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

// Recognised file suffixes.
const (
	SuffixXML   = ".osm"
	SuffixGzip  = ".osm.gz"
	SuffixBzip2 = ".osm.bz2"
)

// Suffixes lists every suffix this package reads.
var Suffixes = []string{SuffixXML, SuffixGzip, SuffixBzip2}

// Supports reports whether path has a suffix this package reads.
func Supports(path string) bool {
	lower := strings.ToLower(path)
	for _, s := range Suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// source is the decompressed byte stream of an extract and the file under it.
type source struct {
	io.Reader
	closers []io.Closer
}

func (s *source) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openSource opens path and wraps it in a decompressor chosen by suffix.
func openSource(path string) (*source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open extract: %w", err)
	}
	src := &source{closers: []io.Closer{f}}
	buffered := bufio.NewReaderSize(f, 64*1024)

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, SuffixGzip):
		zr, err := gzip.NewReader(buffered)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%s: %w: %w", path, domain.ErrUnparseableInput, err)
		}
		src.closers = append(src.closers, zr)
		src.Reader = zr
	case strings.HasSuffix(lower, SuffixBzip2):
		src.Reader = bzip2.NewReader(buffered)
	default:
		src.Reader = buffered
	}
	return src, nil
}
