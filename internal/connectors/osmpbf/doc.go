// Package osmpbf streams node and way elements out of an OSM PBF extract
// and presents them in the same attribute form the XML scanner produces.
package osmpbf
