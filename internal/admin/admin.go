// Package admin implements the administrative layer of the client: request
// validation, controller and coordinator routing with retry, multi-broker
// fan-out for group operations, and consumer-group offset management.
package admin

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ppiankov/kafkadmin/internal/cluster"
	"github.com/ppiankov/kafkadmin/internal/retry"
)

// Lifecycle event names accepted by On.
const (
	EventConnect    = "admin.connect"
	EventDisconnect = "admin.disconnect"
)

// Options tunes an Admin handle. Zero values fall back to defaults.
type Options struct {
	// RetryPolicy bounds every retried administrative operation.
	RetryPolicy retry.Policy
	// LeaderWaitDelay is the fixed delay between leader-readiness polls
	// after topic creation.
	LeaderWaitDelay time.Duration
	// LeaderWaitTimeout bounds the leader-readiness poll independently of
	// RetryPolicy.
	LeaderWaitTimeout time.Duration
	// SetOffsetsTimeout bounds the wait for the ephemeral consumer's first
	// fetch cycle.
	SetOffsetsTimeout time.Duration
}

const (
	defaultLeaderWaitDelay   = 100 * time.Millisecond
	defaultLeaderWaitTimeout = 10 * time.Second
	defaultSetOffsetsTimeout = 30 * time.Second
)

// Admin issues administrative operations against one cluster handle.
type Admin struct {
	cluster cluster.Cluster

	policy            retry.Policy
	leaderWaitDelay   time.Duration
	leaderWaitTimeout time.Duration
	setOffsetsTimeout time.Duration

	mu        sync.Mutex
	listeners map[string]map[int]func()
	nextID    int
}

// New builds an Admin over c.
func New(c cluster.Cluster, opts Options) *Admin {
	if opts.RetryPolicy == (retry.Policy{}) {
		opts.RetryPolicy = retry.DefaultPolicy
	}
	if opts.LeaderWaitDelay <= 0 {
		opts.LeaderWaitDelay = defaultLeaderWaitDelay
	}
	if opts.LeaderWaitTimeout <= 0 {
		opts.LeaderWaitTimeout = defaultLeaderWaitTimeout
	}
	if opts.SetOffsetsTimeout <= 0 {
		opts.SetOffsetsTimeout = defaultSetOffsetsTimeout
	}
	return &Admin{
		cluster:           c,
		policy:            opts.RetryPolicy,
		leaderWaitDelay:   opts.LeaderWaitDelay,
		leaderWaitTimeout: opts.LeaderWaitTimeout,
		setOffsetsTimeout: opts.SetOffsetsTimeout,
		listeners: map[string]map[int]func(){
			EventConnect:    {},
			EventDisconnect: {},
		},
	}
}

// Connect establishes the cluster connection and emits EventConnect.
func (a *Admin) Connect(ctx context.Context) error {
	if err := a.cluster.Connect(ctx); err != nil {
		return err
	}
	a.emit(EventConnect)
	return nil
}

// Disconnect closes the cluster connection and emits EventDisconnect.
func (a *Admin) Disconnect() {
	a.cluster.Close()
	a.emit(EventDisconnect)
}

// On registers fn for a lifecycle event and returns an unsubscribe func.
// Unrecognized event names are rejected.
func (a *Admin) On(event string, fn func()) (func(), error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, ok := a.listeners[event]
	if !ok {
		return nil, ErrUnknownEvent
	}
	id := a.nextID
	a.nextID++
	set[id] = fn

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(set, id)
	}, nil
}

func (a *Admin) emit(event string) {
	a.mu.Lock()
	fns := make([]func(), 0, len(a.listeners[event]))
	for _, fn := range a.listeners[event] {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ListTopics returns every topic name known to the cluster.
func (a *Admin) ListTopics(ctx context.Context) ([]string, error) {
	if err := a.cluster.RefreshMetadata(ctx); err != nil {
		return nil, err
	}
	meta := a.cluster.Metadata()
	names := make([]string, 0, len(meta.Topics))
	for _, t := range meta.Topics {
		names = append(names, t.Topic)
	}
	sort.Strings(names)
	return names, nil
}

// FetchTopicMetadata returns partition metadata for the given topics, or
// for every tracked topic when none are given.
func (a *Admin) FetchTopicMetadata(ctx context.Context, topics []string) ([]cluster.TopicMetadata, error) {
	for _, topic := range topics {
		if topic == "" {
			return nil, validationErr("topic", "topic name must be a non-empty string", topics)
		}
		if err := a.cluster.AddTargetTopic(ctx, topic); err != nil {
			return nil, err
		}
	}
	if err := a.cluster.RefreshMetadata(ctx); err != nil {
		return nil, err
	}

	meta := a.cluster.Metadata()
	if len(topics) == 0 {
		return meta.Topics, nil
	}

	byName := make(map[string]cluster.TopicMetadata, len(meta.Topics))
	for _, t := range meta.Topics {
		byName[t.Topic] = t
	}
	out := make([]cluster.TopicMetadata, 0, len(topics))
	for _, topic := range topics {
		if t, ok := byName[topic]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTopicMetadata returns partition metadata for the given topics.
//
// Deprecated: use FetchTopicMetadata.
func (a *Admin) GetTopicMetadata(ctx context.Context, topics []string) ([]cluster.TopicMetadata, error) {
	return a.FetchTopicMetadata(ctx, topics)
}

// DescribeCluster returns the broker pool, controller id, and cluster id.
func (a *Admin) DescribeCluster(ctx context.Context) (ClusterDescription, error) {
	if err := a.cluster.RefreshMetadata(ctx); err != nil {
		return ClusterDescription{}, err
	}
	meta := a.cluster.Metadata()
	desc := ClusterDescription{
		ClusterID:    meta.ClusterID,
		ControllerID: meta.ControllerID,
	}
	for _, b := range meta.Brokers {
		desc.Brokers = append(desc.Brokers, BrokerDescription{
			NodeID: b.NodeID,
			Host:   b.Host,
			Port:   b.Port,
			Rack:   b.Rack,
		})
	}
	return desc, nil
}
