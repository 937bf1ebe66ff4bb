// Package sequence implements a replicated sequence data type for ordered
// collections of small elements, such as the characters of a collaboratively
// edited text document. Multiple replicas apply local edits independently and
// exchange the resulting update records through any transport; once every
// replica has observed the same set of updates, all replicas hold the same
// document.
//
// Span index
//
// The central structure is the span index, a piecewise description of every
// identifier ever assigned to a position in the document. A span covers a
// contiguous run of identifiers produced by one author, mapped either to a
// contiguous run of live elements or to a tombstoned gap. Continuous typing
// by one author extends a single span in place, so the index stays small in
// the common case; edits that land inside a foreign span split it, and
// deletes leave tombstones behind so that concurrent edits anchored on a
// deleted element remain interpretable.
//
// Identifiers
//
// Every inserted element is named by a stable id, the pair of the author
// that produced it and a per-author counter value. Stable ids are never
// reused and never rewritten. The sentinel span, owned by the reserved
// author 0, anchors insertion before the first element.
//
// Updates
//
// A local insert or delete emits a self-describing update record carrying
// stable ids only. Replicas apply each other's records through Apply; the
// replication package adds the buffered flavor, draining locally produced
// updates in emission order for transport out.
//
// The element store itself is abstract: the replica drives any Container
// implementation through four point operations. The container subpackages
// provide a slice-backed store for arbitrary values and a rope for text.
package sequence
