package sequence

import (
	"github.com/replicated/sequence/identifier"
)

// span describes a contiguous run of identifiers produced by one author.
// A live span maps its identifiers onto a contiguous run of container
// positions starting at documentIndex; a tombstoned span contributes to
// identifier space only and records the position at which its next live
// neighbor starts.
//
// Positions are 1-based: documentIndex 0 belongs to the sentinel span and
// denotes the virtual slot before the first element.
type span struct {
	documentIndex uint32
	length        uint32
	startID       uint32
	author        identifier.Author
	deleted       bool
}

// endID returns the first identifier past the span's range.
func (s span) endID() uint32 {
	return s.startID + s.length
}

// covers reports whether id falls inside the span's identifier range.
func (s span) covers(id uint32) bool {
	return s.startID <= id && id < s.endID()
}

// localID is a resolved cursor for one identifier in the current span list.
// It carries a snapshot of the span so callers need not hold a reference
// into the list across mutations.
type localID struct {
	spanIndex int
	offset    uint32
	span      span
}

// id returns the plain per-author identifier under the cursor.
func (l localID) id() uint32 {
	return l.span.startID + l.offset
}

// stable returns the globally unique name of the identifier.
func (l localID) stable() identifier.StableID {
	return identifier.StableID{Author: l.span.author, ID: l.id()}
}

// position returns the 1-based document slot of the identifier. For a
// tombstoned span the offset is zero, so this is the slot at which the
// span's next live neighbor starts.
func (l localID) position() uint32 {
	return l.span.documentIndex + l.offset
}
