// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ElementScanner: Streams top-level elements out of an extract
//   - ScannerFactory: Opens the right scanner for an input file
//   - ElementShaper: Turns one element into a document
//   - DocumentStore: Document persistence, filtering and aggregation
//   - DocumentStoreOpener: Opens the configured DocumentStore
//   - MetricsRecorder: Run counters
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
