package metrics

import "github.com/docker/go-metrics"

const (
	// NamespacePrefix is the namespace of prometheus metrics
	NamespacePrefix = "sequence"
)

var (
	// ReplicationNamespace is the prometheus namespace of update buffering
	// and shipping related operations
	ReplicationNamespace = metrics.NewNamespace(NamespacePrefix, "replication", nil)
)
