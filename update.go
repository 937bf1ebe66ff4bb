package sequence

import (
	"fmt"

	"github.com/replicated/sequence/identifier"
)

// Action names the kind of edit an update carries.
type Action string

const (
	// ActionInsert places a new element immediately after an existing
	// identifier.
	ActionInsert Action = "insert"

	// ActionDelete tombstones an existing identifier.
	ActionDelete Action = "delete"
)

// Update is a self-describing edit record exchanged between replicas. Given
// the updates that causally precede it, any replica can apply it; the same
// set of updates yields the same document regardless of arrival order, as
// long as each author's own updates are applied in emission order.
type Update struct {
	// Action is ActionInsert or ActionDelete.
	Action Action

	// Previous anchors an insert: the new element lands immediately after
	// this identifier. Unset for deletes.
	Previous identifier.StableID

	// ID is the identifier being inserted or deleted.
	ID identifier.StableID

	// Element is the inserted value. Unset for deletes.
	Element Element
}

func (u Update) String() string {
	switch u.Action {
	case ActionInsert:
		return fmt.Sprintf("insert %s after %s", u.ID, u.Previous)
	case ActionDelete:
		return fmt.Sprintf("delete %s", u.ID)
	}
	return fmt.Sprintf("unknown action %q", string(u.Action))
}
