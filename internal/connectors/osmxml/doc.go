// Package osmxml streams node and way elements out of an OSM XML extract.
//
// The scanner tokenises the file incrementally and materialises one
// top-level element at a time, so memory stays bounded by the largest
// single element rather than the size of the extract. Plain, gzip and
// bzip2 compressed files are supported.
package osmxml
