// Package connectors opens extract files as element scanners. Each
// sub-package reads one input encoding; Factory picks the sub-package from
// the file name.
package connectors
