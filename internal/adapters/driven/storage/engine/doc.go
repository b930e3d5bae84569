// Package engine evaluates filters and aggregation pipelines over JSON
// document bodies. Both document store adapters share it: the memory store
// runs everything here, the SQLite store pushes the leading match into SQL
// and hands the remaining stages to Run.
//
// Semantics follow the usual document-store conventions:
//
//   - a condition on an array field matches when the array itself or any of
//     its elements satisfies it
//   - negated operators ($ne, $nin) match documents lacking the field
//   - ordering across types is null < numbers < strings < objects < arrays
//     < booleans
package engine
