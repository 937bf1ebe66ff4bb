package sequence

import (
	"reflect"
	"testing"

	"github.com/replicated/sequence/identifier"
)

// testContainer is a minimal slice-backed Container for exercising the
// span index without pulling in the container subpackages.
type testContainer struct {
	elements []Element
}

func newTestContainer(values ...int) *testContainer {
	c := &testContainer{}
	for _, v := range values {
		c.elements = append(c.elements, v)
	}
	return c
}

func (c *testContainer) Len() int {
	return len(c.elements)
}

func (c *testContainer) Get(i int) Element {
	return c.elements[i]
}

func (c *testContainer) Insert(i int, e Element) {
	c.elements = append(c.elements, nil)
	copy(c.elements[i+1:], c.elements[i:])
	c.elements[i] = e
}

func (c *testContainer) Remove(i int) {
	c.elements = append(c.elements[:i], c.elements[i+1:]...)
}

func (c *testContainer) values() []int {
	out := make([]int, 0, len(c.elements))
	for _, e := range c.elements {
		out = append(out, e.(int))
	}
	return out
}

func mustReplica(t *testing.T, author identifier.Author, values ...int) *Replica {
	t.Helper()
	r, err := New(newTestContainer(values...), author)
	if err != nil {
		t.Fatalf("creating replica for author %d: %v", author, err)
	}
	return r
}

func checkValid(t *testing.T, r *Replica) {
	t.Helper()
	if err := r.Validate(); err != nil {
		t.Fatalf("replica %d: %v", r.Author(), err)
	}
}

func applyAll(t *testing.T, r *Replica, updates []Update) {
	t.Helper()
	for _, u := range updates {
		if err := r.Apply(u); err != nil {
			t.Fatalf("replica %d applying %s: %v", r.Author(), u, err)
		}
		checkValid(t, r)
	}
}

// testConverge runs disjoint edit sets on two replicas over the same
// initial document, exchanges the emitted updates, and checks that both
// replicas converge onto the expected value.
func testConverge(t *testing.T, initial, expected []int, change func(a, b *Replica) (updatesA, updatesB []Update)) {
	t.Helper()

	a := mustReplica(t, 1, initial...)
	b := mustReplica(t, 2, initial...)

	updatesA, updatesB := change(a, b)

	applyAll(t, a, updatesB)
	applyAll(t, b, updatesA)

	gotA := a.Document().(*testContainer).values()
	gotB := b.Document().(*testContainer).values()

	if !reflect.DeepEqual(gotA, gotB) {
		t.Fatalf("replicas did not converge from %v:\nA: %v\nB: %v", initial, gotA, gotB)
	}
	if !reflect.DeepEqual(gotA, expected) {
		t.Fatalf("converged document wrong:\nexpected: %v\n  actual: %v", expected, gotA)
	}
}

func mustInsert(t *testing.T, r *Replica, index int, value int) Update {
	t.Helper()
	u, err := r.Insert(index, value)
	if err != nil {
		t.Fatalf("replica %d inserting %d at %d: %v", r.Author(), value, index, err)
	}
	checkValid(t, r)
	return u
}

func mustDelete(t *testing.T, r *Replica, index int) Update {
	t.Helper()
	u, err := r.Delete(index)
	if err != nil {
		t.Fatalf("replica %d deleting at %d: %v", r.Author(), index, err)
	}
	checkValid(t, r)
	return u
}

func TestNonOverlappingInsertsConverge(t *testing.T) {
	testConverge(t,
		[]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		[]int{0, 1, 2, 3, 35, 4, 5, 55, 56, 6, 7, 8, 9},
		func(a, b *Replica) ([]Update, []Update) {
			ua := []Update{mustInsert(t, a, 4, 35)}
			ub := []Update{
				mustInsert(t, b, 6, 55),
				mustInsert(t, b, 7, 56),
			}
			return ua, ub
		})
}

func TestNonOverlappingDeletesConverge(t *testing.T) {
	testConverge(t,
		[]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		[]int{0, 1, 2, 4, 7, 8, 9},
		func(a, b *Replica) ([]Update, []Update) {
			ua := []Update{mustDelete(t, a, 3)}
			ub := []Update{
				mustDelete(t, b, 5),
				mustDelete(t, b, 5),
			}
			return ua, ub
		})
}

func TestContinuousTypingCompacts(t *testing.T) {
	const n = 32

	a := mustReplica(t, 1)
	for i := 0; i < n; i++ {
		mustInsert(t, a, i, i)
	}

	if len(a.spans) != 2 {
		t.Fatalf("continuous typing should keep one span beyond the sentinel, have %d", len(a.spans))
	}
	s := a.spans[1]
	if s.deleted || s.length != n || s.author != 1 || s.startID != 0 {
		t.Fatalf("unexpected typing span %+v", s)
	}
}

func TestInterleavedInsertSplits(t *testing.T) {
	const n = 32

	a := mustReplica(t, 1)
	var stream []Update
	for i := 0; i < n; i++ {
		stream = append(stream, mustInsert(t, a, i, i))
	}

	b := mustReplica(t, 2)
	applyAll(t, b, stream)
	mustInsert(t, b, n/2, 1000)

	want := []struct {
		author  identifier.Author
		length  uint32
		deleted bool
	}{
		{0, 1, false},     // sentinel
		{1, n / 2, false}, // prefix
		{2, 1, false},
		{1, n - n/2, false}, // suffix
	}

	if len(b.spans) != len(want) {
		t.Fatalf("expected %d spans, have %d", len(want), len(b.spans))
	}
	for i, w := range want {
		s := b.spans[i]
		if s.author != w.author || s.length != w.length || s.deleted != w.deleted {
			t.Fatalf("span %d: have %+v, want %+v", i, s, w)
		}
	}
}

func TestConcurrentInsertOrdersAgree(t *testing.T) {
	a := mustReplica(t, 1)
	seed := mustInsert(t, a, 0, 4)

	b := mustReplica(t, 2)
	applyAll(t, b, []Update{seed})

	updatesA := []Update{
		mustInsert(t, a, 1, 7),
		mustInsert(t, a, 2, 10),
	}
	updatesB := []Update{
		mustInsert(t, b, 1, 20),
		mustInsert(t, b, 2, 30),
	}

	applyAll(t, a, updatesB)
	applyAll(t, b, updatesA)

	gotA := a.Document().(*testContainer).values()
	gotB := b.Document().(*testContainer).values()
	if !reflect.DeepEqual(gotA, gotB) {
		t.Fatalf("apply orders disagree:\nA: %v\nB: %v", gotA, gotB)
	}

	// A third replica seeing both streams in the opposite interleaving
	// must land on the same document.
	c := mustReplica(t, 3)
	applyAll(t, c, []Update{seed})
	applyAll(t, c, updatesA)
	applyAll(t, c, updatesB)

	if got := c.Document().(*testContainer).values(); !reflect.DeepEqual(got, gotA) {
		t.Fatalf("third replica diverged:\nC: %v\nA: %v", got, gotA)
	}
}

func TestInsertAfterDeletedAnchor(t *testing.T) {
	a := mustReplica(t, 1, 0, 1, 2)
	b := mustReplica(t, 2, 0, 1, 2)

	deleted, err := a.StableIDAt(1)
	if err != nil {
		t.Fatalf("resolving stable id: %v", err)
	}
	del := mustDelete(t, a, 1)
	if del.ID != deleted {
		t.Fatalf("delete addressed %s, want %s", del.ID, deleted)
	}

	// B, unaware of the delete, anchors an insert on the dead id.
	ins := mustInsert(t, b, 2, 99)
	if ins.Previous != deleted {
		t.Fatalf("insert anchored on %s, want %s", ins.Previous, deleted)
	}

	applyAll(t, a, []Update{ins})

	// The new element lands where the deleted element's live successor
	// starts.
	if got := a.Document().(*testContainer).values(); !reflect.DeepEqual(got, []int{0, 99, 2}) {
		t.Fatalf("unexpected document %v", got)
	}

	applyAll(t, b, []Update{del})
	if got := b.Document().(*testContainer).values(); !reflect.DeepEqual(got, []int{0, 99, 2}) {
		t.Fatalf("replicas diverged, B has %v", got)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	a := mustReplica(t, 1, 0, 1, 2, 3)
	b := mustReplica(t, 2, 0, 1, 2, 3)

	del := mustDelete(t, a, 2)

	applyAll(t, b, []Update{del, del})

	if got := b.Document().(*testContainer).values(); !reflect.DeepEqual(got, []int{0, 1, 3}) {
		t.Fatalf("duplicate delete not idempotent: %v", got)
	}
}

func TestBackwardDeletesMergeTombstones(t *testing.T) {
	a := mustReplica(t, 1)
	for i := 0; i < 6; i++ {
		mustInsert(t, a, i, i)
	}

	// Deleting from the tail backwards grows one tombstone instead of
	// fragmenting the index.
	for i := 5; i >= 2; i-- {
		mustDelete(t, a, i)
	}

	if len(a.spans) != 3 {
		t.Fatalf("expected sentinel, live span and one tombstone, have %d spans", len(a.spans))
	}
	ts := a.spans[2]
	if !ts.deleted || ts.length != 4 || ts.startID != 2 {
		t.Fatalf("unexpected tombstone %+v", ts)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	a := mustReplica(t, 1, 10, 11, 12, 13, 14)
	mustInsert(t, a, 2, 100)
	mustDelete(t, a, 4)

	for i := 0; i < a.Document().Len(); i++ {
		sid, err := a.StableIDAt(i)
		if err != nil {
			t.Fatalf("stable id at %d: %v", i, err)
		}
		index, err := a.IndexOf(sid)
		if err != nil {
			t.Fatalf("index of %s: %v", sid, err)
		}
		if index != i {
			t.Fatalf("round trip of index %d via %s returned %d", i, sid, index)
		}
	}
}

func TestLocalRemoteEquivalence(t *testing.T) {
	a := mustReplica(t, 1, 0, 1, 2)
	mirror := mustReplica(t, 2, 0, 1, 2)

	for _, u := range []Update{
		mustInsert(t, a, 1, 50),
		mustDelete(t, a, 3),
		mustInsert(t, a, 3, 60),
	} {
		applyAll(t, mirror, []Update{u})
	}

	gotA := a.Document().(*testContainer).values()
	gotM := mirror.Document().(*testContainer).values()
	if !reflect.DeepEqual(gotA, gotM) {
		t.Fatalf("emission and application disagree:\nlocal:  %v\nmirror: %v", gotA, gotM)
	}
}

func TestNewRejectsOriginAuthor(t *testing.T) {
	if _, err := New(newTestContainer(), identifier.Origin); err != ErrInvalidAuthor {
		t.Fatalf("expected ErrInvalidAuthor, got %v", err)
	}
}

func TestIndexOutOfRange(t *testing.T) {
	a := mustReplica(t, 1, 0, 1, 2)

	if _, err := a.Insert(4, 9); err == nil {
		t.Fatal("insert past the end should fail")
	} else if _, ok := err.(IndexOutOfRangeError); !ok {
		t.Fatalf("expected IndexOutOfRangeError, got %v", err)
	}

	if _, err := a.Delete(3); err == nil {
		t.Fatal("delete past the end should fail")
	} else if _, ok := err.(IndexOutOfRangeError); !ok {
		t.Fatalf("expected IndexOutOfRangeError, got %v", err)
	}

	// Failed operations leave the replica untouched.
	checkValid(t, a)
	if got := a.Document().(*testContainer).values(); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Fatalf("document changed by failed operations: %v", got)
	}
}

func TestApplyUnknownAnchor(t *testing.T) {
	a := mustReplica(t, 1, 0, 1, 2)

	u := Update{
		Action:   ActionInsert,
		Previous: identifier.StableID{Author: 7, ID: 3},
		ID:       identifier.StableID{Author: 7, ID: 4},
		Element:  9,
	}
	err := a.Apply(u)
	if _, ok := err.(UnknownAnchorError); !ok {
		t.Fatalf("expected UnknownAnchorError, got %v", err)
	}

	del := Update{Action: ActionDelete, ID: identifier.StableID{Author: 7, ID: 3}}
	err = a.Apply(del)
	if _, ok := err.(UnknownAnchorError); !ok {
		t.Fatalf("expected UnknownAnchorError, got %v", err)
	}

	checkValid(t, a)
	if got := a.Document().(*testContainer).values(); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Fatalf("document changed by failed applications: %v", got)
	}
}

func TestIndexOfTombstonedID(t *testing.T) {
	a := mustReplica(t, 1, 0, 1, 2, 3)

	sid, err := a.StableIDAt(1)
	if err != nil {
		t.Fatalf("stable id at 1: %v", err)
	}
	mustDelete(t, a, 1)

	index, err := a.IndexOf(sid)
	if err != nil {
		t.Fatalf("index of tombstoned %s: %v", sid, err)
	}
	if index != 1 {
		t.Fatalf("tombstoned id should resolve to its live successor at 1, got %d", index)
	}
}
