// Package replication wraps a replica with the machinery that turns local
// edits into transportable update streams: a FIFO buffer of locally
// produced updates, sinks for shipping drained updates to peers, and
// metrics over both.
package replication

import (
	"github.com/replicated/sequence"
)

// Box owns a replica together with the ordered buffer of updates it has
// produced since the last drain. The buffer preserves emission order,
// which peers rely on when an author's later inserts anchor on its
// earlier ones.
type Box struct {
	replica   *sequence.Replica
	pending   []sequence.Update
	listeners []queueListener
	metrics   *safeMetrics
}

// NewBox wraps r. Listeners observe buffer ingress and egress; metrics
// listeners are the usual choice.
func NewBox(r *sequence.Replica, listeners ...queueListener) *Box {
	return &Box{
		replica:   r,
		listeners: listeners,
	}
}

// NewMonitoredBox wraps r with buffer metrics reported under name. The
// counters are readable through ReadMetrics and exported through the
// replication prometheus namespace.
func NewMonitoredBox(r *sequence.Replica, name string) *Box {
	sm := newSafeMetrics(name)
	b := NewBox(r, sm.queueListener())
	b.metrics = sm
	return b
}

// ReadMetrics returns a snapshot of the box's buffer metrics. The zero
// value is returned for boxes constructed without monitoring.
func (b *Box) ReadMetrics() BufferMetrics {
	if b.metrics == nil {
		return BufferMetrics{}
	}

	b.metrics.Lock()
	defer b.metrics.Unlock()
	return b.metrics.BufferMetrics
}

// Replica returns the wrapped replica.
func (b *Box) Replica() *sequence.Replica {
	return b.replica
}

// Document returns the wrapped replica's container.
func (b *Box) Document() sequence.Container {
	return b.replica.Document()
}

// Insert applies a local insert and buffers the emitted update.
func (b *Box) Insert(index int, e sequence.Element) error {
	u, err := b.replica.Insert(index, e)
	if err != nil {
		return err
	}
	b.buffer(u)
	return nil
}

// Delete applies a local delete and buffers the emitted update.
func (b *Box) Delete(index int) error {
	u, err := b.replica.Delete(index)
	if err != nil {
		return err
	}
	b.buffer(u)
	return nil
}

// Update applies u to the replica and buffers it for further propagation.
// This is the commutative entry point: driving every edit, local or not,
// through Update keeps the box forwarding everything it has seen. Updates
// arriving from a peer that should not be re-shipped belong on
// Replica().Apply instead.
func (b *Box) Update(u sequence.Update) error {
	if err := b.replica.Apply(u); err != nil {
		return err
	}
	b.buffer(u)
	return nil
}

// Drain removes and returns the buffered updates in emission order.
func (b *Box) Drain() []sequence.Update {
	drained := b.pending
	b.pending = nil

	for _, u := range drained {
		for _, l := range b.listeners {
			l.egress(u)
		}
	}
	return drained
}

// Pending returns the number of updates awaiting drain.
func (b *Box) Pending() int {
	return len(b.pending)
}

func (b *Box) buffer(u sequence.Update) {
	for _, l := range b.listeners {
		l.ingress(u)
	}
	b.pending = append(b.pending, u)
}
