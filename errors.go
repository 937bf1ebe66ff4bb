package sequence

import (
	"fmt"

	"github.com/replicated/sequence/identifier"
)

var (
	// ErrInvalidAuthor returned when a replica is constructed with the
	// reserved origin author.
	ErrInvalidAuthor = fmt.Errorf("author 0 is reserved for the origin span")
)

// IndexOutOfRangeError is returned when a caller supplies an index outside
// the document. The replica is left unchanged.
type IndexOutOfRangeError struct {
	Index  int
	Length int
}

func (err IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range for document of length %d", err.Index, err.Length)
}

// UnknownAnchorError is returned when a remote update names a stable id
// that does not resolve to any known span. It signals that the update was
// delivered before its causal dependencies; the caller may retry it once
// those have arrived. The replica is left unchanged.
type UnknownAnchorError struct {
	ID identifier.StableID
}

func (err UnknownAnchorError) Error() string {
	return fmt.Sprintf("unknown anchor %s", err.ID)
}

// InvariantViolationError is returned by Validate when the span index has
// drifted from its invariants. It always indicates a bug in this package
// rather than misuse.
type InvariantViolationError struct {
	Reason string
}

func (err InvariantViolationError) Error() string {
	return fmt.Sprintf("span index invariant violated: %s", err.Reason)
}
