package admin

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/ppiankov/kafkadmin/internal/cluster"
	"github.com/ppiankov/kafkadmin/internal/retry"
)

var fetchTopicOffsetsStrategy = retry.Strategy{
	Retriable: []*kerr.Error{kerr.UnknownTopicOrPartition, kerr.LeaderNotAvailable},
}

// Group states that permit offset mutation. Any other state means live
// members whose positions must not be clobbered.
func terminalGroupState(state string) bool {
	return state == "Empty" || state == "Dead"
}

// FetchTopicOffsets returns, per partition of topic, the low and high
// watermarks. Offset mirrors the high watermark.
func (a *Admin) FetchTopicOffsets(ctx context.Context, topic string) ([]PartitionOffset, error) {
	if topic == "" {
		return nil, validationErr("topic", "topic name must be a non-empty string", nil)
	}

	return retry.Do(ctx, "fetch topic offsets", a.policy, fetchTopicOffsetsStrategy,
		func(ctx context.Context, _ retry.Attempt) ([]PartitionOffset, error) {
			if err := a.cluster.AddTargetTopic(ctx, topic); err != nil {
				return nil, err
			}
			if err := a.cluster.RefreshMetadata(ctx); err != nil {
				return nil, err
			}

			high, err := a.cluster.ListOffsets(ctx, topic, false)
			if err != nil {
				return nil, err
			}
			low, err := a.cluster.ListOffsets(ctx, topic, true)
			if err != nil {
				return nil, err
			}

			out := make([]PartitionOffset, 0, len(high))
			for partition, h := range high {
				l, ok := low[partition]
				if !ok {
					return nil, fmt.Errorf("partition %d missing from low watermark response for topic %q", partition, topic)
				}
				out = append(out, PartitionOffset{
					Partition: partition,
					Offset:    h,
					High:      h,
					Low:       l,
				})
			}
			sort.Slice(out, func(i, j int) bool { return out[i].Partition < out[j].Partition })
			return out, nil
		})
}

// FetchOffsets returns the committed offset per partition of topic for the
// group, queried at the group's coordinator. Single-shot: no retry
// wrapper.
func (a *Admin) FetchOffsets(ctx context.Context, groupID, topic string) ([]CommittedOffset, error) {
	if groupID == "" {
		return nil, validationErr("groupId", "group id must be a non-empty string", nil)
	}
	if topic == "" {
		return nil, validationErr("topic", "topic name must be a non-empty string", nil)
	}

	if err := a.cluster.AddTargetTopic(ctx, topic); err != nil {
		return nil, err
	}
	coordinator, err := a.cluster.Coordinator(ctx, groupID)
	if err != nil {
		return nil, err
	}
	partitions, err := a.cluster.TopicPartitions(topic)
	if err != nil {
		return nil, err
	}
	ids := make([]int32, len(partitions))
	for i, p := range partitions {
		ids[i] = p.Partition
	}

	req := kmsg.NewPtrOffsetFetchRequest()
	req.Group = groupID
	rt := kmsg.NewOffsetFetchRequestTopic()
	rt.Topic = topic
	rt.Partitions = ids
	req.Topics = append(req.Topics, rt)
	rg := kmsg.NewOffsetFetchRequestGroup()
	rg.Group = groupID
	rgt := kmsg.NewOffsetFetchRequestGroupTopic()
	rgt.Topic = topic
	rgt.Partitions = ids
	rg.Topics = append(rg.Topics, rgt)
	req.Groups = append(req.Groups, rg)

	resp, err := coordinator.Request(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch offsets for group %q: %w", groupID, err)
	}
	return parseOffsetFetch(resp.(*kmsg.OffsetFetchResponse), groupID)
}

// parseOffsetFetch handles both response generations: batched groups
// (v8+) and single-group topics (older).
func parseOffsetFetch(resp *kmsg.OffsetFetchResponse, groupID string) ([]CommittedOffset, error) {
	var out []CommittedOffset

	if len(resp.Groups) > 0 {
		g := resp.Groups[0]
		if err := kerr.ErrorForCode(g.ErrorCode); err != nil {
			return nil, fmt.Errorf("fetch offsets for group %q: %w", groupID, err)
		}
		for _, t := range g.Topics {
			for _, p := range t.Partitions {
				if err := kerr.ErrorForCode(p.ErrorCode); err != nil {
					return nil, fmt.Errorf("fetch offsets for %s[%d]: %w", t.Topic, p.Partition, err)
				}
				out = append(out, CommittedOffset{Partition: p.Partition, Offset: p.Offset, Metadata: p.Metadata})
			}
		}
	} else {
		if err := kerr.ErrorForCode(resp.ErrorCode); err != nil {
			return nil, fmt.Errorf("fetch offsets for group %q: %w", groupID, err)
		}
		for _, t := range resp.Topics {
			for _, p := range t.Partitions {
				if err := kerr.ErrorForCode(p.ErrorCode); err != nil {
					return nil, fmt.Errorf("fetch offsets for %s[%d]: %w", t.Topic, p.Partition, err)
				}
				out = append(out, CommittedOffset{Partition: p.Partition, Offset: p.Offset, Metadata: p.Metadata})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Partition < out[j].Partition })
	return out, nil
}

// SetOffsets commits the given offsets for the group without consuming
// records. The group's state must be terminal (Empty or Dead); refusing
// any other state protects live members from having their positions
// clobbered. The mechanism is an ephemeral consumer that joins the group
// with fetching paused, seeks each partition to its target, waits for the
// group assignment to go live as the signal that the positions were
// adopted, and then stops, which commits them.
func (a *Admin) SetOffsets(ctx context.Context, groupID, topic string, seeks []SeekTarget) error {
	if groupID == "" {
		return validationErr("groupId", "group id must be a non-empty string", nil)
	}
	if topic == "" {
		return validationErr("topic", "topic name must be a non-empty string", nil)
	}
	if err := validateSeekTargets(seeks); err != nil {
		return err
	}

	state, err := a.describeGroupState(ctx, groupID)
	if err != nil {
		return err
	}
	if !terminalGroupState(state) {
		return &GroupStateError{GroupID: groupID, State: state}
	}

	consumer, err := a.cluster.GroupConsumer(groupID, topic)
	if err != nil {
		return err
	}
	consumer.Pause(topic)
	for _, s := range seeks {
		consumer.Seek(topic, s.Partition, s.Offset)
	}

	if err := consumer.Run(ctx); err != nil {
		return err
	}
	if err := a.awaitFetchCycle(ctx, consumer); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), a.setOffsetsTimeout)
		defer cancel()
		_ = consumer.Stop(stopCtx)
		return err
	}
	return consumer.Stop(ctx)
}

func (a *Admin) awaitFetchCycle(ctx context.Context, consumer cluster.GroupConsumer) error {
	select {
	case <-consumer.FetchCycle():
		return nil
	case err := <-consumer.Errs():
		return err
	case <-time.After(a.setOffsetsTimeout):
		return fmt.Errorf("timed out after %s waiting for the consumer to adopt seek positions", a.setOffsetsTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// describeGroupState asks the group's coordinator for its current state.
func (a *Admin) describeGroupState(ctx context.Context, groupID string) (string, error) {
	coordinator, err := a.cluster.Coordinator(ctx, groupID)
	if err != nil {
		return "", err
	}

	req := kmsg.NewPtrDescribeGroupsRequest()
	req.Groups = []string{groupID}

	resp, err := coordinator.Request(ctx, req)
	if err != nil {
		return "", fmt.Errorf("describe group %q: %w", groupID, err)
	}
	dresp := resp.(*kmsg.DescribeGroupsResponse)
	if len(dresp.Groups) == 0 {
		return "", fmt.Errorf("describe group %q: empty response", groupID)
	}
	g := dresp.Groups[0]
	if err := kerr.ErrorForCode(g.ErrorCode); err != nil {
		return "", fmt.Errorf("describe group %q: %w", groupID, err)
	}
	return g.State, nil
}

// ResetOffsets moves every partition of topic to its earliest or latest
// known offset for the group, delegating to SetOffsets.
func (a *Admin) ResetOffsets(ctx context.Context, groupID, topic string, earliest bool) error {
	offsets, err := a.FetchTopicOffsets(ctx, topic)
	if err != nil {
		return err
	}

	seeks := make([]SeekTarget, 0, len(offsets))
	for _, o := range offsets {
		target := o.High
		if earliest {
			target = o.Low
		}
		seeks = append(seeks, SeekTarget{Partition: o.Partition, Offset: target})
	}
	return a.SetOffsets(ctx, groupID, topic, seeks)
}
