package replication

import (
	"sync"

	"github.com/docker/go-metrics"

	"github.com/replicated/sequence"
	prometheus "github.com/replicated/sequence/metrics"
)

var (
	// updatesCounter counts the updates entering buffers and queues
	updatesCounter = prometheus.ReplicationNamespace.NewLabeledCounter("updates", "The number of total updates buffered", "action", "replica")
	// pendingGauge measures the updates awaiting drain or delivery
	pendingGauge = prometheus.ReplicationNamespace.NewLabeledGauge("pending", "The gauge of updates pending drain", metrics.Total, "replica")
)

// BufferMetrics track the updates passing through a box or queue,
// typically by number of updates.
type BufferMetrics struct {
	Pending int // updates buffered, not yet drained or delivered
	Inserts int // insert updates accepted
	Deletes int // delete updates accepted
	Sent    int // updates drained or delivered
}

// safeMetrics guards the metrics implementation with a lock and provides
// safe listener constructors.
type safeMetrics struct {
	Name string
	BufferMetrics
	sync.Mutex
}

// newSafeMetrics returns safeMetrics for the named replica.
func newSafeMetrics(name string) *safeMetrics {
	var sm safeMetrics
	sm.Name = name
	return &sm
}

// queueListener returns a listener that maintains buffer related counters.
func (sm *safeMetrics) queueListener() queueListener {
	return &bufferMetricsListener{safeMetrics: sm}
}

// bufferMetricsListener maintains counters for updates entering and
// leaving a buffer or queue.
type bufferMetricsListener struct {
	*safeMetrics
}

var _ queueListener = &bufferMetricsListener{}

func (bml *bufferMetricsListener) ingress(u sequence.Update) {
	bml.Lock()
	defer bml.Unlock()
	bml.Pending++
	switch u.Action {
	case sequence.ActionInsert:
		bml.Inserts++
	case sequence.ActionDelete:
		bml.Deletes++
	}

	updatesCounter.WithValues(string(u.Action), bml.Name).Inc(1)
	pendingGauge.WithValues(bml.Name).Inc(1)
}

func (bml *bufferMetricsListener) egress(u sequence.Update) {
	bml.Lock()
	defer bml.Unlock()
	bml.Pending--
	bml.Sent++

	pendingGauge.WithValues(bml.Name).Dec(1)
}
