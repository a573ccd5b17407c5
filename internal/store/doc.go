// Package store implements the in-memory accumulation store.
//
// A Store maps opaque string keys to slots. Each slot holds the numeric
// domain bound at first write, the accumulated value, and the ordinal of the
// last successful merge.
//
// # Merge Operations
//
//   - sum: absent keys start from the domain's additive identity
//   - set_min: absent keys take the incoming value, then keep the minimum
//   - set_max: absent keys take the incoming value, then keep the maximum
//
// All three are commutative, so the final value of a key is independent of
// merge order. Ordinals are recorded for provenance and never reorder
// arithmetic.
//
// # Slot State
//
// A key is Absent until its first successful merge and Present afterwards.
// There is no transition back to Absent. The domain tag of a Present key is
// immutable: a merge with another domain fails with DOMAIN_MISMATCH and the
// slot is left untouched. An int64 sum that overflows fails the same way.
//
// # Delta Log
//
// Every successful merge appends a Delta (CREATE or UPDATE with old and new
// value). The log backs GetAt and GetFirst and is cleared by Reset, which
// callers invoke at block boundaries.
//
// # Concurrency
//
// A single mutex guards the key space. Each merge is one short critical
// section, so concurrent callers never lose updates.
package store
