// Package services implements the driving port interfaces: settings,
// conversion of extracts into documents, loading documents into a store
// and the query battery. Services only talk to adapters through the driven
// ports.
package services
