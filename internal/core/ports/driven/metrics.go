package driven

import "time"

// MetricsRecorder receives counters from the services. A nil recorder is
// never passed to services; use NopMetrics instead.
type MetricsRecorder interface {
	// ElementRead counts one eligible element of the given kind.
	ElementRead(kind string)

	// DocumentWritten counts one output line of n bytes for a document
	// of the given kind.
	DocumentWritten(kind string, n int)

	// DocumentsInserted counts documents stored by a load.
	DocumentsInserted(n int)

	// QueryCompleted records one battery query and how long it took.
	QueryCompleted(name string, d time.Duration)
}

// NopMetrics discards everything.
type NopMetrics struct{}

// ElementRead does nothing.
func (NopMetrics) ElementRead(string) {}

// DocumentWritten does nothing.
func (NopMetrics) DocumentWritten(string, int) {}

// DocumentsInserted does nothing.
func (NopMetrics) DocumentsInserted(int) {}

// QueryCompleted does nothing.
func (NopMetrics) QueryCompleted(string, time.Duration) {}
