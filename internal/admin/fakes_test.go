package admin

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/ppiankov/kafkadmin/internal/cluster"
)

func errUnknownTopic(topic string) error {
	return fmt.Errorf("topic %q not in current metadata: %w", topic, kerr.UnknownTopicOrPartition)
}

// fakeBroker scripts responses through a handler and records every request
// it receives.
type fakeBroker struct {
	id      int32
	handler func(req kmsg.Request) (kmsg.Response, error)

	mu       sync.Mutex
	requests []kmsg.Request
}

func (b *fakeBroker) NodeID() int32 { return b.id }

func (b *fakeBroker) Request(_ context.Context, req kmsg.Request) (kmsg.Response, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	return b.handler(req)
}

func (b *fakeBroker) requestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// fakeCluster is an in-memory Cluster. Metadata snapshots can be scripted
// per refresh via metaSeq to simulate propagation.
type fakeCluster struct {
	mu sync.Mutex

	meta    cluster.Metadata
	metaSeq []cluster.Metadata

	refreshCalls int

	controller    cluster.Broker
	controllerErr error

	coordinatorFn func(group string) (cluster.Broker, error)

	brokers []cluster.Broker

	targets map[string]struct{}

	highOffsets map[int32]int64
	lowOffsets  map[int32]int64
	listErr     error
	listErrOnce bool

	consumer    cluster.GroupConsumer
	consumerErr error
}

var _ cluster.Cluster = (*fakeCluster)(nil)

func newFakeCluster() *fakeCluster {
	return &fakeCluster{targets: make(map[string]struct{})}
}

func (f *fakeCluster) Connect(context.Context) error { return nil }
func (f *fakeCluster) Close()                        {}

func (f *fakeCluster) RefreshMetadata(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if len(f.metaSeq) > 0 {
		f.meta = f.metaSeq[0]
		f.metaSeq = f.metaSeq[1:]
	}
	return nil
}

func (f *fakeCluster) RefreshMetadataIfNecessary(ctx context.Context) error {
	return f.RefreshMetadata(ctx)
}

func (f *fakeCluster) Metadata() cluster.Metadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meta
}

func (f *fakeCluster) Controller() (cluster.Broker, error) {
	if f.controllerErr != nil {
		return nil, f.controllerErr
	}
	return f.controller, nil
}

func (f *fakeCluster) Coordinator(_ context.Context, group string) (cluster.Broker, error) {
	if f.coordinatorFn == nil {
		return nil, fmt.Errorf("no coordinator configured for group %q", group)
	}
	return f.coordinatorFn(group)
}

func (f *fakeCluster) Broker(nodeID int32) cluster.Broker {
	for _, b := range f.brokers {
		if b.NodeID() == nodeID {
			return b
		}
	}
	return nil
}

func (f *fakeCluster) Brokers() []cluster.Broker {
	return append([]cluster.Broker(nil), f.brokers...)
}

func (f *fakeCluster) TopicPartitions(topic string) ([]cluster.PartitionMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.meta.Topics {
		if t.Topic == topic {
			return t.Partitions, nil
		}
	}
	return nil, errUnknownTopic(topic)
}

func (f *fakeCluster) AddTargetTopic(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets[topic] = struct{}{}
	return nil
}

func (f *fakeCluster) RemoveTargetTopic(topic string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.targets, topic)
}

func (f *fakeCluster) TargetTopics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	topics := make([]string, 0, len(f.targets))
	for t := range f.targets {
		topics = append(topics, t)
	}
	return topics
}

func (f *fakeCluster) hasTarget(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.targets[topic]
	return ok
}

func (f *fakeCluster) ListOffsets(_ context.Context, _ string, atStart bool) (map[int32]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		err := f.listErr
		if f.listErrOnce {
			f.listErr = nil
		}
		return nil, err
	}
	if atStart {
		return f.lowOffsets, nil
	}
	return f.highOffsets, nil
}

func (f *fakeCluster) GroupConsumer(string, string) (cluster.GroupConsumer, error) {
	if f.consumerErr != nil {
		return nil, f.consumerErr
	}
	return f.consumer, nil
}

type seek struct {
	topic     string
	partition int32
	offset    int64
}

// fakeConsumer records the pause/seek/run/stop sequence and signals its
// fetch cycle on Run unless told to fail instead.
type fakeConsumer struct {
	mu     sync.Mutex
	paused []string
	seeks  []seek

	fetchCycle chan struct{}
	errsCh     chan error

	runErr     error
	failRun    error // delivered on errs instead of signaling the cycle
	runCalled  bool
	stopCalled bool
	stopErr    error
}

var _ cluster.GroupConsumer = (*fakeConsumer)(nil)

func newFakeConsumer() *fakeConsumer {
	return &fakeConsumer{
		fetchCycle: make(chan struct{}),
		errsCh:     make(chan error, 1),
	}
}

func (c *fakeConsumer) Pause(topics ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = append(c.paused, topics...)
}

func (c *fakeConsumer) Seek(topic string, partition int32, offset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seeks = append(c.seeks, seek{topic: topic, partition: partition, offset: offset})
}

func (c *fakeConsumer) Run(context.Context) error {
	c.mu.Lock()
	c.runCalled = true
	c.mu.Unlock()
	if c.runErr != nil {
		return c.runErr
	}
	if c.failRun != nil {
		c.errsCh <- c.failRun
		return nil
	}
	close(c.fetchCycle)
	return nil
}

func (c *fakeConsumer) FetchCycle() <-chan struct{} { return c.fetchCycle }
func (c *fakeConsumer) Errs() <-chan error          { return c.errsCh }

func (c *fakeConsumer) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopCalled = true
	return c.stopErr
}
