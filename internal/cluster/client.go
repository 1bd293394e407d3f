package cluster

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
)

const defaultMetadataMaxAge = 5 * time.Minute

// Client is the franz-go backed Cluster implementation.
type Client struct {
	cfg Config
	cl  *kgo.Client
	adm *kadm.Client

	metadataMaxAge time.Duration

	mu        sync.Mutex
	meta      Metadata
	metaAt    time.Time
	targets   map[string]struct{}
	connected bool
}

var _ Cluster = (*Client)(nil)

// New builds a cluster handle from cfg. No connection is made until
// Connect.
func New(cfg Config) (*Client, error) {
	opts, err := cfg.clientOpts()
	if err != nil {
		return nil, err
	}

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create Kafka client: %w", err)
	}

	return &Client{
		cfg:            cfg,
		cl:             cl,
		adm:            kadm.NewClient(cl),
		metadataMaxAge: defaultMetadataMaxAge,
		targets:        make(map[string]struct{}),
	}, nil
}

// Connect pings the cluster and loads the initial metadata snapshot.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.cl.Ping(ctx); err != nil {
		return fmt.Errorf("connect to Kafka cluster: %w", err)
	}
	if err := c.RefreshMetadata(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.cl.Close()
}

// RefreshMetadata reloads the snapshot. With no target topics the request
// covers every topic in the cluster.
func (c *Client) RefreshMetadata(ctx context.Context) error {
	req := kmsg.NewPtrMetadataRequest()

	c.mu.Lock()
	targets := make([]string, 0, len(c.targets))
	for topic := range c.targets {
		targets = append(targets, topic)
	}
	c.mu.Unlock()
	sort.Strings(targets)

	if len(targets) > 0 {
		for _, topic := range targets {
			rt := kmsg.NewMetadataRequestTopic()
			rt.Topic = kmsg.StringPtr(topic)
			req.Topics = append(req.Topics, rt)
		}
	}

	resp, err := req.RequestWith(ctx, c.cl)
	if err != nil {
		return fmt.Errorf("refresh metadata: %w", err)
	}

	meta := Metadata{ControllerID: resp.ControllerID}
	if resp.ClusterID != nil {
		meta.ClusterID = *resp.ClusterID
	}
	for _, b := range resp.Brokers {
		info := BrokerInfo{NodeID: b.NodeID, Host: b.Host, Port: b.Port}
		if b.Rack != nil {
			info.Rack = *b.Rack
		}
		meta.Brokers = append(meta.Brokers, info)
	}
	sort.Slice(meta.Brokers, func(i, j int) bool {
		return meta.Brokers[i].NodeID < meta.Brokers[j].NodeID
	})
	for _, t := range resp.Topics {
		if t.Topic == nil {
			continue
		}
		tm := TopicMetadata{Topic: *t.Topic, Internal: t.IsInternal}
		for _, p := range t.Partitions {
			tm.Partitions = append(tm.Partitions, PartitionMetadata{
				Partition: p.Partition,
				Leader:    p.Leader,
				Replicas:  p.Replicas,
				ISR:       p.ISR,
			})
		}
		sort.Slice(tm.Partitions, func(i, j int) bool {
			return tm.Partitions[i].Partition < tm.Partitions[j].Partition
		})
		meta.Topics = append(meta.Topics, tm)
	}

	c.mu.Lock()
	c.meta = meta
	c.metaAt = time.Now()
	c.mu.Unlock()
	return nil
}

func (c *Client) RefreshMetadataIfNecessary(ctx context.Context) error {
	c.mu.Lock()
	fresh := !c.metaAt.IsZero() && time.Since(c.metaAt) < c.metadataMaxAge
	c.mu.Unlock()
	if fresh {
		return nil
	}
	return c.RefreshMetadata(ctx)
}

func (c *Client) Metadata() Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta
}

// Controller resolves the controller from the latest snapshot. A snapshot
// without a controller is reported as NotController so callers classify it
// as stale routing.
func (c *Client) Controller() (Broker, error) {
	c.mu.Lock()
	id := c.meta.ControllerID
	c.mu.Unlock()
	if id < 0 {
		return nil, fmt.Errorf("no controller in current metadata: %w", kerr.NotController)
	}
	return c.Broker(id), nil
}

// Coordinator asks the cluster for the group's current coordinator. Never
// cached.
func (c *Client) Coordinator(ctx context.Context, group string) (Broker, error) {
	req := kmsg.NewPtrFindCoordinatorRequest()
	req.CoordinatorKey = group
	req.CoordinatorType = 0 // group
	req.CoordinatorKeys = []string{group}

	resp, err := req.RequestWith(ctx, c.cl)
	if err != nil {
		return nil, fmt.Errorf("find coordinator for group %q: %w", group, err)
	}

	errCode, nodeID := resp.ErrorCode, resp.NodeID
	if len(resp.Coordinators) > 0 {
		errCode, nodeID = resp.Coordinators[0].ErrorCode, resp.Coordinators[0].NodeID
	}
	if err := kerr.ErrorForCode(errCode); err != nil {
		return nil, fmt.Errorf("find coordinator for group %q: %w", group, err)
	}
	return c.Broker(nodeID), nil
}

func (c *Client) Broker(nodeID int32) Broker {
	return &kgoBroker{id: nodeID, b: c.cl.Broker(int(nodeID))}
}

func (c *Client) Brokers() []Broker {
	c.mu.Lock()
	infos := append([]BrokerInfo(nil), c.meta.Brokers...)
	c.mu.Unlock()

	brokers := make([]Broker, 0, len(infos))
	for _, info := range infos {
		brokers = append(brokers, c.Broker(info.NodeID))
	}
	return brokers
}

func (c *Client) TopicPartitions(topic string) ([]PartitionMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.meta.Topics {
		if t.Topic == topic {
			return append([]PartitionMetadata(nil), t.Partitions...), nil
		}
	}
	return nil, fmt.Errorf("topic %q not in current metadata: %w", topic, kerr.UnknownTopicOrPartition)
}

// AddTargetTopic registers topic in the target set and refreshes metadata
// so partition state for it becomes visible.
func (c *Client) AddTargetTopic(ctx context.Context, topic string) error {
	c.mu.Lock()
	_, known := c.targets[topic]
	c.targets[topic] = struct{}{}
	c.mu.Unlock()
	if known {
		return nil
	}
	return c.RefreshMetadata(ctx)
}

func (c *Client) RemoveTargetTopic(topic string) {
	c.mu.Lock()
	delete(c.targets, topic)
	c.mu.Unlock()
}

func (c *Client) TargetTopics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	topics := make([]string, 0, len(c.targets))
	for topic := range c.targets {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// ListOffsets queries the start or end watermark for every partition of
// topic, sharded across partition leaders by kadm.
func (c *Client) ListOffsets(ctx context.Context, topic string, atStart bool) (map[int32]int64, error) {
	var (
		listed kadm.ListedOffsets
		err    error
	)
	if atStart {
		listed, err = c.adm.ListStartOffsets(ctx, topic)
	} else {
		listed, err = c.adm.ListEndOffsets(ctx, topic)
	}
	if err != nil {
		return nil, fmt.Errorf("list offsets for topic %q: %w", topic, err)
	}

	offsets := make(map[int32]int64)
	for _, ps := range listed {
		for _, lo := range ps {
			if lo.Err != nil {
				return nil, fmt.Errorf("list offsets for %s[%d]: %w", lo.Topic, lo.Partition, lo.Err)
			}
			offsets[lo.Partition] = lo.Offset
		}
	}
	return offsets, nil
}

func (c *Client) GroupConsumer(group, topic string) (GroupConsumer, error) {
	return newGroupConsumer(c.cfg, group, topic)
}

type kgoBroker struct {
	id int32
	b  *kgo.Broker
}

func (b *kgoBroker) NodeID() int32 { return b.id }

func (b *kgoBroker) Request(ctx context.Context, req kmsg.Request) (kmsg.Response, error) {
	return b.b.Request(ctx, req)
}
