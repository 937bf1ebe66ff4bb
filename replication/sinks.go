package replication

import (
	"container/list"
	"fmt"
	"sync"

	events "github.com/docker/go-events"
	"github.com/sirupsen/logrus"

	"github.com/replicated/sequence"
)

// ErrSinkClosed is returned if a write is issued to a sink that has been
// closed. If encountered, the error should be considered terminal and
// retries will not be successful.
var ErrSinkClosed = fmt.Errorf("replication: sink closed")

// queueListener is called when updates pass through a buffer or queue.
type queueListener interface {
	ingress(u sequence.Update)
	egress(u sequence.Update)
}

// ReplicaSink applies every written update to a replica. Wiring a peer's
// drained updates into a ReplicaSink is the in-process equivalent of a
// transport: the updates arrive exactly as they would off the wire and are
// not re-buffered.
type ReplicaSink struct {
	replica *sequence.Replica
	closed  bool
	mu      sync.Mutex
}

var _ events.Sink = &ReplicaSink{}

// NewReplicaSink returns a sink applying updates to r.
func NewReplicaSink(r *sequence.Replica) *ReplicaSink {
	return &ReplicaSink{replica: r}
}

// Write applies the update to the replica. Events that are not updates
// are rejected.
func (rs *ReplicaSink) Write(event events.Event) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.closed {
		return ErrSinkClosed
	}

	u, ok := event.(sequence.Update)
	if !ok {
		return fmt.Errorf("replication: sink received %T, want update", event)
	}

	return rs.replica.Apply(u)
}

// Close marks the sink closed. Further writes fail with ErrSinkClosed.
func (rs *ReplicaSink) Close() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.closed {
		return fmt.Errorf("replication: sink already closed")
	}
	rs.closed = true
	return nil
}

// Ship drains the box and writes every update to the sink in emission
// order, stopping at the first write error and returning the updates that
// were not delivered.
func Ship(b *Box, sink events.Sink) ([]sequence.Update, error) {
	drained := b.Drain()
	for i, u := range drained {
		if err := sink.Write(u); err != nil {
			return drained[i:], err
		}
	}
	return nil, nil
}

// NewQueue returns an asynchronous sink that accepts updates immediately
// and delivers them to sink in order from a background goroutine, with
// buffer metrics reported under name.
func NewQueue(sink events.Sink, name string) events.Sink {
	return newUpdateQueue(sink, newSafeMetrics(name).queueListener())
}

// updateQueue accepts all updates into a queue for asynchronous
// consumption by a sink. It is unbounded and thread safe but the sink
// must be reliable or updates will be dropped.
type updateQueue struct {
	sink      events.Sink
	updates   *list.List
	listeners []queueListener
	cond      *sync.Cond
	mu        sync.Mutex
	closed    bool
}

// newUpdateQueue returns a queue to the provided sink. If the listeners
// are non-nil, they will be called to update pending metrics on ingress
// and egress.
func newUpdateQueue(sink events.Sink, listeners ...queueListener) *updateQueue {
	uq := updateQueue{
		sink:      sink,
		updates:   list.New(),
		listeners: listeners,
	}

	uq.cond = sync.NewCond(&uq.mu)
	go uq.run()
	return &uq
}

// Write accepts the update into the queue, only failing if the queue has
// been closed.
func (uq *updateQueue) Write(event events.Event) error {
	uq.mu.Lock()
	defer uq.mu.Unlock()

	if uq.closed {
		return ErrSinkClosed
	}

	u, ok := event.(sequence.Update)
	if !ok {
		return fmt.Errorf("replication: queue received %T, want update", event)
	}

	for _, listener := range uq.listeners {
		listener.ingress(u)
	}
	uq.updates.PushBack(u)
	uq.cond.Signal() // signal waiters

	return nil
}

// Close shuts down the update queue, flushing
func (uq *updateQueue) Close() error {
	uq.mu.Lock()
	defer uq.mu.Unlock()

	if uq.closed {
		return fmt.Errorf("replication: queue already closed")
	}

	// set closed flag
	uq.closed = true
	uq.cond.Signal() // signal flushes queue
	uq.cond.Wait()   // wait for signal from last flush

	return uq.sink.Close()
}

// run is the main goroutine to flush updates to the target sink.
func (uq *updateQueue) run() {
	for {
		u, ok := uq.next()

		if !ok {
			return // queue is closed.
		}

		if err := uq.sink.Write(u); err != nil {
			logrus.Warnf("replication: error writing update to %v, update lost: %v", uq.sink, err)
		}

		for _, listener := range uq.listeners {
			listener.egress(u)
		}
	}
}

// next encompasses the critical section of the run loop. When the queue
// is empty, it will block on the condition. If new updates arrive, it
// will wake and return one. When closed, ok is false.
func (uq *updateQueue) next() (sequence.Update, bool) {
	uq.mu.Lock()
	defer uq.mu.Unlock()

	for uq.updates.Len() < 1 {
		if uq.closed {
			uq.cond.Broadcast()
			return sequence.Update{}, false
		}

		uq.cond.Wait()
	}

	front := uq.updates.Front()
	u := front.Value.(sequence.Update)
	uq.updates.Remove(front)

	return u, true
}
