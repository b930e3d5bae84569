package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
	"golang.org/x/time/rate"
)

const progressInterval = 250 * time.Millisecond

// progress rewrites a single status line on a terminal at most every
// progressInterval. It is silent when the writer is not a terminal.
type progress struct {
	w       io.Writer
	enabled bool
	every   rate.Sometimes
	shown   bool
}

// newProgress reports to stderr when stderr is a terminal.
func newProgress() *progress {
	return &progress{
		w:       os.Stderr,
		enabled: term.IsTerminal(int(os.Stderr.Fd())),
		every:   rate.Sometimes{First: 1, Interval: progressInterval},
	}
}

// Update shows the formatted status, throttled.
func (p *progress) Update(format string, args ...any) {
	if !p.enabled {
		return
	}
	p.every.Do(func() {
		fmt.Fprintf(p.w, "\r\033[K"+format, args...)
		p.shown = true
	})
}

// Done clears the status line.
func (p *progress) Done() {
	if p.enabled && p.shown {
		fmt.Fprint(p.w, "\r\033[K")
		p.shown = false
	}
}
