// Package identifier defines the stable addressing scheme for replicated
// sequences. Every inserted element is named by a StableID, the pair of the
// author that produced it and a per-author counter value. Stable ids are
// never reused and never rewritten, which is what lets edits exchanged
// between replicas remain interpretable regardless of arrival order.
package identifier

import (
	"fmt"
	"strconv"
	"strings"
)

// Author identifies a replica. Author 0 is reserved for the synthetic
// origin span that anchors insertion before the first element.
type Author uint16

// Origin is the reserved author of the sentinel span. No replica may be
// constructed with this author.
const Origin Author = 0

// StableID names a single inserted element, globally unique across
// replicas as long as authors are distinct.
type StableID struct {
	Author Author
	ID     uint32
}

var (
	// ErrInvalidFormat returned when a stable id string is not of the
	// form "author:id".
	ErrInvalidFormat = fmt.Errorf("invalid stable id format")
)

// String returns the canonical "author:id" form.
func (sid StableID) String() string {
	return fmt.Sprintf("%d:%d", sid.Author, sid.ID)
}

// Parse parses s and returns the validated stable id. An error is
// returned if the format is invalid.
func Parse(s string) (StableID, error) {
	i := strings.Index(s, ":")
	if i < 0 || i+1 == len(s) {
		return StableID{}, ErrInvalidFormat
	}

	author, err := strconv.ParseUint(s[:i], 10, 16)
	if err != nil {
		return StableID{}, ErrInvalidFormat
	}

	id, err := strconv.ParseUint(s[i+1:], 10, 32)
	if err != nil {
		return StableID{}, ErrInvalidFormat
	}

	return StableID{Author: Author(author), ID: uint32(id)}, nil
}
