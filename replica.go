package sequence

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/replicated/sequence/identifier"
)

// Replica is one copy of a replicated sequence. It owns the element
// container and the span index describing every identifier ever assigned.
// A replica is a single-owner value: all operations are synchronous and
// none of them block.
type Replica struct {
	author      identifier.Author
	nextLocalID uint32
	spans       []span
	document    Container
}

// New returns a replica over c, which may already hold elements. The
// sentinel span is sized to cover the existing content plus the virtual
// slot before the first element, so pre-seeded elements are addressable
// under the origin author.
func New(c Container, author identifier.Author) (*Replica, error) {
	if author == identifier.Origin {
		return nil, ErrInvalidAuthor
	}

	return &Replica{
		author: author,
		spans: []span{{
			documentIndex: 0,
			length:        uint32(c.Len()) + 1,
			startID:       0,
			author:        identifier.Origin,
		}},
		document: c,
	}, nil
}

// Author returns the replica's own author.
func (r *Replica) Author() identifier.Author {
	return r.author
}

// Document returns the underlying container. The replica keeps no separate
// history, so the container always holds the accurate current sequence.
func (r *Replica) Document() Container {
	return r.document
}

// Insert places e at the 0-based index, which may equal the document
// length to append. It returns the update record to ship to peers.
func (r *Replica) Insert(index int, e Element) (Update, error) {
	if index < 0 || index > r.document.Len() {
		return Update{}, IndexOutOfRangeError{Index: index, Length: r.document.Len()}
	}

	// Insertion at index means insertion after the 1-based slot of the
	// same value; slot 0 is the sentinel's virtual position.
	previous, ok := r.slot(uint32(index))
	if !ok {
		panic(InvariantViolationError{Reason: fmt.Sprintf("no span covers slot %d", index)})
	}

	current := identifier.StableID{Author: r.author, ID: r.nextLocalID}
	r.nextLocalID++
	r.insertAt(previous, current, e)

	return Update{
		Action:   ActionInsert,
		Previous: previous.stable(),
		ID:       current,
		Element:  e,
	}, nil
}

// Delete removes the element at the 0-based index and returns the update
// record to ship to peers.
func (r *Replica) Delete(index int) (Update, error) {
	if index < 0 || index >= r.document.Len() {
		return Update{}, IndexOutOfRangeError{Index: index, Length: r.document.Len()}
	}

	loc, ok := r.slot(uint32(index) + 1)
	if !ok {
		panic(InvariantViolationError{Reason: fmt.Sprintf("no span covers slot %d", index+1)})
	}

	r.deleteAt(loc)

	return Update{Action: ActionDelete, ID: loc.stable()}, nil
}

// Apply applies an update produced by another replica. Applying the same
// delete twice is a no-op; applying the same insert twice is not, so the
// transport is responsible for deduplicating inserts. If an anchor does
// not resolve the update was delivered before its causal dependencies:
// Apply fails with UnknownAnchorError, leaves the replica unchanged, and
// the update may be retried later.
func (r *Replica) Apply(u Update) error {
	switch u.Action {
	case ActionInsert:
		previous, ok := r.stablePosition(u.Previous)
		if !ok {
			return UnknownAnchorError{ID: u.Previous}
		}
		r.insertAt(previous, u.ID, u.Element)
	case ActionDelete:
		loc, ok := r.stablePosition(u.ID)
		if !ok {
			return UnknownAnchorError{ID: u.ID}
		}
		r.deleteAt(loc)
	default:
		return fmt.Errorf("unknown update action %q", string(u.Action))
	}
	return nil
}

// StableIDAt returns the stable id of the element at the 0-based index.
func (r *Replica) StableIDAt(index int) (identifier.StableID, error) {
	if index < 0 || index >= r.document.Len() {
		return identifier.StableID{}, IndexOutOfRangeError{Index: index, Length: r.document.Len()}
	}

	loc, ok := r.slot(uint32(index) + 1)
	if !ok {
		panic(InvariantViolationError{Reason: fmt.Sprintf("no span covers slot %d", index+1)})
	}
	return loc.stable(), nil
}

// IndexOf returns the current 0-based index of the element named by sid.
// For a tombstoned id it returns the index at which the id's live
// successor starts.
func (r *Replica) IndexOf(sid identifier.StableID) (int, error) {
	loc, ok := r.stablePosition(sid)
	if !ok {
		return 0, UnknownAnchorError{ID: sid}
	}
	return int(loc.position()) - 1, nil
}

// slot resolves the identifier at the 1-based document slot target. Slot 0
// is the sentinel's virtual position before the first element.
func (r *Replica) slot(target uint32) (localID, bool) {
	for i, s := range r.spans {
		if !s.deleted && s.documentIndex <= target && target < s.documentIndex+s.length {
			return localID{spanIndex: i, offset: target - s.documentIndex, span: s}, true
		}
	}
	return localID{}, false
}

// stablePosition resolves a stable id against the span list. For a
// tombstoned span the offset is forced to zero so that position() yields
// the slot of the span's live successor.
func (r *Replica) stablePosition(sid identifier.StableID) (localID, bool) {
	for i, s := range r.spans {
		if s.author == sid.Author && s.covers(sid.ID) {
			offset := sid.ID - s.startID
			if s.deleted {
				offset = 0
			}
			return localID{spanIndex: i, offset: offset, span: s}, true
		}
	}
	return localID{}, false
}

// insertAt places e immediately after the identifier under previous,
// assigning it the stable id current.
func (r *Replica) insertAt(previous localID, current identifier.StableID, e Element) {
	// First span index whose documentIndex must advance by one.
	shiftFrom := previous.spanIndex + 1

	if previous.span.deleted {
		// The anchor is tombstoned: the new element lands where the
		// anchor's live successor starts.
		r.insertSpan(previous.spanIndex+1, span{
			documentIndex: previous.span.documentIndex,
			length:        1,
			startID:       current.ID,
			author:        current.Author,
		})
		r.document.Insert(int(previous.span.documentIndex)-1, e)
		shiftFrom++
	} else {
		doc := previous.position() + 1
		r.document.Insert(int(doc)-1, e)

		if previous.span.endID() == current.ID &&
			previous.id()+1 == current.ID &&
			previous.span.author == current.Author {
			// The new id continues the span's run: extend it in place.
			// Continuous typing stays in this branch, keeping the span
			// list flat.
			r.spans[previous.spanIndex].length++
		} else {
			// The anchor sits inside a foreign span, or its author
			// jumped back: a fresh span is needed, splitting the
			// anchor's span when the anchor is not its last id.
			newLength := previous.offset + 1

			r.insertSpan(previous.spanIndex+1, span{
				documentIndex: doc,
				length:        1,
				startID:       current.ID,
				author:        current.Author,
			})

			if newLength < previous.span.length {
				r.insertSpan(previous.spanIndex+2, span{
					documentIndex: doc + 1,
					length:        previous.span.length - newLength,
					startID:       previous.span.startID + newLength,
					author:        previous.span.author,
				})
				r.spans[previous.spanIndex].length = newLength
				shiftFrom++
			}

			shiftFrom++
		}
	}

	for i := shiftFrom; i < len(r.spans); i++ {
		r.spans[i].documentIndex++
	}
}

// deleteAt tombstones the identifier under loc. Deleting an already
// tombstoned identifier is a no-op, which is what makes remote deletes
// idempotent.
func (r *Replica) deleteAt(loc localID) {
	if loc.span.deleted {
		return
	}

	r.document.Remove(int(loc.position()) - 1)

	// First span index whose documentIndex must fall by one.
	shiftFrom := loc.spanIndex + 1
	newLength := loc.span.length - 1

	merged := false
	if next := loc.spanIndex + 1; next < len(r.spans) {
		t := &r.spans[next]
		if t.deleted && t.author == loc.span.author &&
			t.startID == loc.id()+1 && loc.span.endID() == loc.id()+1 {
			// The span's last id dies right in front of its own
			// tombstone: grow the tombstone backwards instead of
			// creating a new span.
			t.documentIndex--
			t.startID--
			t.length++
			merged = true
			shiftFrom = next + 1
		}
	}

	if !merged {
		newLength = loc.offset

		r.insertSpan(loc.spanIndex+1, span{
			documentIndex: loc.span.documentIndex + newLength,
			length:        1,
			startID:       loc.id(),
			author:        loc.span.author,
			deleted:       true,
		})
		shiftFrom++

		if newLength < loc.span.length-1 {
			// Ids behind the deleted one stay live in a trailing split.
			r.insertSpan(loc.spanIndex+2, span{
				documentIndex: loc.span.documentIndex + newLength,
				length:        loc.span.length - newLength - 1,
				startID:       loc.id() + 1,
				author:        loc.span.author,
			})
			shiftFrom++
		}
	}

	for i := shiftFrom; i < len(r.spans); i++ {
		r.spans[i].documentIndex--
	}

	if newLength == 0 {
		// The span is fully consumed. The sentinel guarantees a
		// predecessor, so coalescing never runs off the front.
		r.removeSpan(loc.spanIndex)

		next := r.spans[loc.spanIndex]
		prev := &r.spans[loc.spanIndex-1]
		if prev.endID() == next.startID && prev.author == next.author &&
			prev.deleted == next.deleted {
			prev.length += next.length
			r.removeSpan(loc.spanIndex)
		}
	} else {
		r.spans[loc.spanIndex].length = newLength
	}
}

func (r *Replica) insertSpan(i int, s span) {
	r.spans = append(r.spans, span{})
	copy(r.spans[i+1:], r.spans[i:])
	r.spans[i] = s
}

func (r *Replica) removeSpan(i int) {
	r.spans = append(r.spans[:i], r.spans[i+1:]...)
}

// Validate checks the span index against its invariants. It is a debugging
// aid: a non-nil InvariantViolationError always indicates a bug in this
// package, not misuse by the caller.
func (r *Replica) Validate() error {
	if len(r.spans) == 0 {
		return InvariantViolationError{Reason: "no sentinel span"}
	}

	sentinel := r.spans[0]
	if sentinel.author != identifier.Origin || sentinel.startID != 0 ||
		sentinel.documentIndex != 0 || sentinel.deleted || sentinel.length < 1 {
		return InvariantViolationError{Reason: fmt.Sprintf("malformed sentinel %+v", sentinel)}
	}

	// Adjacency: live spans tile the document contiguously and every
	// tombstone records the slot at which the following live run starts.
	pos := uint32(0)
	live := uint32(0)
	for i, s := range r.spans {
		if s.length == 0 {
			return InvariantViolationError{Reason: fmt.Sprintf("span %d has zero length", i)}
		}
		if s.documentIndex != pos {
			return InvariantViolationError{
				Reason: fmt.Sprintf("span %d starts at %d, want %d", i, s.documentIndex, pos),
			}
		}
		if !s.deleted {
			pos += s.length
			live += s.length
		}
	}

	// Id uniqueness per author.
	for i, s := range r.spans {
		for j, t := range r.spans {
			if j <= i || s.author != t.author {
				continue
			}
			if s.startID < t.endID() && t.startID < s.endID() {
				return InvariantViolationError{
					Reason: fmt.Sprintf("spans %d and %d overlap in author %d id space", i, j, s.author),
				}
			}
		}
	}

	// No mergeable neighbors.
	for i := 0; i+1 < len(r.spans); i++ {
		s, t := r.spans[i], r.spans[i+1]
		if !s.deleted && !t.deleted && s.author == t.author && s.endID() == t.startID {
			return InvariantViolationError{
				Reason: fmt.Sprintf("spans %d and %d should be one span", i, i+1),
			}
		}
	}

	// Container parity: live ids, minus the sentinel's virtual slot,
	// match the stored elements.
	if int(live)-1 != r.document.Len() {
		return InvariantViolationError{
			Reason: fmt.Sprintf("live ids %d vs container length %d", live-1, r.document.Len()),
		}
	}

	return nil
}

// DebugSpans logs the span table at debug level.
func (r *Replica) DebugSpans() {
	for i, s := range r.spans {
		logrus.WithFields(logrus.Fields{
			"span":     i,
			"position": s.documentIndex,
			"length":   s.length,
			"start_id": s.startID,
			"author":   s.author,
			"deleted":  s.deleted,
		}).Debug("span")
	}
}
