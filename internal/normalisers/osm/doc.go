// Package osm shapes OpenStreetMap elements into flat documents.
//
// A node or way element becomes one domain.Document:
//
//   - id, visible and the provenance attributes are copied verbatim
//   - nodes get pos = [lat, lon] as raw strings
//   - ways collect their nd references in order
//   - addr:* tags become address sub-fields, with street suffixes
//     expanded (St -> Street) and Michigan spellings unified
//   - other well-formed tag keys become top-level fields
//   - lanes is stripped of whitespace and split on semicolons
//
// Elements of any other kind are not applicable and produce nothing.
package osm
