// Package cluster owns connectivity to a Kafka cluster: the transport
// client, the metadata snapshot, the target-topic set, and node resolution
// (controller, group coordinators, the broker pool). The admin layer builds
// on these primitives and never talks to the wire directly.
package cluster

import (
	"context"

	"github.com/twmb/franz-go/pkg/kmsg"
)

// Broker is a handle to a single node. Requests issued through it go to
// exactly that node and are not retried; retry decisions belong to the
// caller.
type Broker interface {
	NodeID() int32
	Request(ctx context.Context, req kmsg.Request) (kmsg.Response, error)
}

// Cluster is the collaborator consumed by the admin layer.
type Cluster interface {
	// Connect verifies connectivity and loads an initial metadata snapshot.
	Connect(ctx context.Context) error
	Close()

	// RefreshMetadata reloads the snapshot for the current target topics.
	// Callers refresh immediately before resolving a node so that routing
	// never uses metadata staler than the current attempt.
	RefreshMetadata(ctx context.Context) error
	// RefreshMetadataIfNecessary reloads the snapshot only when it has
	// aged past the configured maximum.
	RefreshMetadataIfNecessary(ctx context.Context) error
	Metadata() Metadata

	// Controller resolves the current controller broker from the snapshot.
	Controller() (Broker, error)
	// Coordinator resolves the current coordinator for a group. The result
	// is never cached: coordinators move between attempts.
	Coordinator(ctx context.Context, group string) (Broker, error)
	Broker(nodeID int32) Broker
	// Brokers enumerates the pool in ascending node id order.
	Brokers() []Broker

	TopicPartitions(topic string) ([]PartitionMetadata, error)

	AddTargetTopic(ctx context.Context, topic string) error
	RemoveTargetTopic(topic string)
	TargetTopics() []string

	// ListOffsets returns the log start (atStart) or end watermark per
	// partition of a topic. Sharding the query across partition leaders is
	// this collaborator's job.
	ListOffsets(ctx context.Context, topic string, atStart bool) (map[int32]int64, error)

	// GroupConsumer builds an ephemeral consumer bound to group, subscribed
	// to topic from the beginning.
	GroupConsumer(group, topic string) (GroupConsumer, error)
}

// GroupConsumer is the minimal consumer surface needed to adopt and commit
// group offsets without processing records.
type GroupConsumer interface {
	// Pause prevents record delivery for the topics before the run loop
	// starts.
	Pause(topics ...string)
	// Seek repositions one partition to the target offset.
	Seek(topic string, partition int32, offset int64)
	// Run starts the consumer's join/sync/fetch machinery in the
	// background.
	Run(ctx context.Context) error
	// FetchCycle is signaled once, after the group assignment goes live
	// and the seek positions have been applied.
	FetchCycle() <-chan struct{}
	// Errs surfaces a startup or run-loop failure.
	Errs() <-chan error
	// Stop commits the adopted positions and leaves the group.
	Stop(ctx context.Context) error
}

// Metadata is an immutable snapshot of the cluster layout.
type Metadata struct {
	ClusterID    string
	ControllerID int32
	Brokers      []BrokerInfo
	Topics       []TopicMetadata
}

// BrokerInfo describes one node in the pool.
type BrokerInfo struct {
	NodeID int32
	Host   string
	Port   int32
	Rack   string
}

// TopicMetadata describes one topic in the snapshot.
type TopicMetadata struct {
	Topic      string
	Internal   bool
	Partitions []PartitionMetadata
}

// PartitionMetadata describes one partition. Leader is -1 while no leader
// is elected.
type PartitionMetadata struct {
	Partition int32
	Leader    int32
	Replicas  []int32
	ISR       []int32
}
