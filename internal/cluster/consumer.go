package cluster

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
)

// groupConsumer is an ephemeral kgo group consumer. It exists only to make
// the group's normal join/sync/heartbeat machinery adopt explicitly seeked
// positions: fetching stays paused the whole time and no record is ever
// handed to a caller. Stop commits the seeked positions and leaves the
// group, which is what durably persists them.
//
// With every topic paused kgo issues no fetch requests, so PollFetches
// blocks until the client closes or an error fetch is injected. The
// seeks-adoptable signal therefore comes from the partition-assignment
// callback, not from a poll completing; polling runs only to surface
// injected errors (auth failures, group errors).
type groupConsumer struct {
	cl    *kgo.Client
	group string
	topic string

	mu    sync.Mutex
	seeks map[string]map[int32]kgo.EpochOffset

	assigned   chan struct{}
	assignOnce sync.Once

	fetchCycle chan struct{}
	cycleOnce  sync.Once

	failed   chan struct{}
	failOnce sync.Once
	errs     chan error

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// Seams for the run loop; the kgo-backed defaults are installed by
	// newGroupConsumer.
	pollFn     func(context.Context) error
	applySeeks func(map[string]map[int32]kgo.EpochOffset)
}

func newGroupConsumer(cfg Config, group, topic string) (*groupConsumer, error) {
	g := &groupConsumer{
		group:      group,
		topic:      topic,
		seeks:      make(map[string]map[int32]kgo.EpochOffset),
		assigned:   make(chan struct{}),
		fetchCycle: make(chan struct{}),
		failed:     make(chan struct{}),
		errs:       make(chan error, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	opts, err := cfg.clientOpts()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
		kgo.OnPartitionsAssigned(func(context.Context, *kgo.Client, map[string][]int32) {
			g.markAssigned()
		}),
	)

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create group consumer for %q: %w", group, err)
	}
	g.cl = cl
	g.pollFn = g.poll
	g.applySeeks = cl.SetOffsets
	return g, nil
}

func (g *groupConsumer) Pause(topics ...string) {
	g.cl.PauseFetchTopics(topics...)
}

func (g *groupConsumer) Seek(topic string, partition int32, offset int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := g.seeks[topic]
	if t == nil {
		t = make(map[int32]kgo.EpochOffset)
		g.seeks[topic] = t
	}
	t[partition] = kgo.EpochOffset{Epoch: -1, Offset: offset}
}

func (g *groupConsumer) markAssigned() {
	g.assignOnce.Do(func() { close(g.assigned) })
}

// Run starts the run loop. Once the group assignment is live the recorded
// seeks are applied and FetchCycle is signaled.
func (g *groupConsumer) Run(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-g.stop:
				return
			case <-ctx.Done():
				return
			default:
			}
			if err := g.pollFn(ctx); err != nil {
				g.fail(err)
				return
			}
		}
	}()

	go func() {
		defer close(g.done)

		select {
		case <-g.assigned:
		case <-g.failed:
			return
		case <-g.stop:
			return
		case <-ctx.Done():
			g.fail(ctx.Err())
			return
		}

		g.mu.Lock()
		seeks := g.seeks
		g.mu.Unlock()
		if len(seeks) > 0 {
			g.applySeeks(seeks)
		}
		g.cycleOnce.Do(func() { close(g.fetchCycle) })

		select {
		case <-g.stop:
		case <-ctx.Done():
		case <-g.failed:
		}
	}()
	return nil
}

func (g *groupConsumer) poll(ctx context.Context) error {
	fetches := g.cl.PollFetches(ctx)
	if fetches.IsClientClosed() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, fe := range fetches.Errors() {
		if fe.Err != nil {
			return fmt.Errorf("fetch %s[%d]: %w", fe.Topic, fe.Partition, fe.Err)
		}
	}
	return nil
}

func (g *groupConsumer) fail(err error) {
	select {
	case g.errs <- err:
	default:
	}
	g.failOnce.Do(func() { close(g.failed) })
}

func (g *groupConsumer) FetchCycle() <-chan struct{} { return g.fetchCycle }

func (g *groupConsumer) Errs() <-chan error { return g.errs }

// Stop commits the seeked positions, leaves the group, and closes the
// client.
func (g *groupConsumer) Stop(ctx context.Context) error {
	g.stopOnce.Do(func() { close(g.stop) })

	var commitErr error
	g.mu.Lock()
	seeks := g.seeks
	g.mu.Unlock()
	if len(seeks) > 0 {
		g.cl.CommitOffsetsSync(ctx, seeks, func(_ *kgo.Client, _ *kmsg.OffsetCommitRequest, _ *kmsg.OffsetCommitResponse, err error) {
			commitErr = err
		})
	}

	g.cl.Close()
	<-g.done

	if commitErr != nil {
		return fmt.Errorf("commit offsets for group %q: %w", g.group, commitErr)
	}
	return nil
}
