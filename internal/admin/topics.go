package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/ppiankov/kafkadmin/internal/retry"
)

var createTopicsStrategy = retry.Strategy{
	Retriable: []*kerr.Error{kerr.NotController},
	Tolerated: []*kerr.Error{kerr.TopicAlreadyExists},
}

var deleteTopicsStrategy = retry.Strategy{
	Retriable: []*kerr.Error{kerr.NotController, kerr.UnknownTopicOrPartition},
}

var createPartitionsStrategy = retry.Strategy{
	Retriable: []*kerr.Error{kerr.NotController},
}

// CreateTopics creates the given topics through the controller. It returns
// true when the topics were created and false, without error, when every
// topic already existed. Unless disabled via opts, it then waits until all
// created topics have a leader for every partition.
func (a *Admin) CreateTopics(ctx context.Context, topics []TopicSpec, opts CreateTopicsOptions) (bool, error) {
	if err := validateTopicSpecs(topics); err != nil {
		return false, err
	}

	created, err := retry.Do(ctx, "create topics", a.policy, createTopicsStrategy,
		func(ctx context.Context, _ retry.Attempt) (bool, error) {
			if err := a.cluster.RefreshMetadata(ctx); err != nil {
				return false, err
			}
			controller, err := a.cluster.Controller()
			if err != nil {
				return false, err
			}

			req := kmsg.NewPtrCreateTopicsRequest()
			req.TimeoutMillis = timeoutMillis(opts.Timeout)
			req.ValidateOnly = opts.ValidateOnly
			for _, t := range topics {
				rt := kmsg.NewCreateTopicsRequestTopic()
				rt.Topic = t.Topic
				rt.NumPartitions = orBrokerDefault32(t.NumPartitions)
				rt.ReplicationFactor = orBrokerDefault16(t.ReplicationFactor)
				for _, pa := range t.ReplicaAssignment {
					ra := kmsg.NewCreateTopicsRequestTopicReplicaAssignment()
					ra.Partition = pa.Partition
					ra.Replicas = pa.Replicas
					rt.ReplicaAssignment = append(rt.ReplicaAssignment, ra)
				}
				for name, value := range t.Configs {
					rc := kmsg.NewCreateTopicsRequestTopicConfig()
					rc.Name = name
					rc.Value = value
					rt.Configs = append(rt.Configs, rc)
				}
				req.Topics = append(req.Topics, rt)
			}

			resp, err := controller.Request(ctx, req)
			if err != nil {
				return false, fmt.Errorf("create topics: %w", err)
			}
			cresp := resp.(*kmsg.CreateTopicsResponse)
			for _, t := range cresp.Topics {
				if err := kerr.ErrorForCode(t.ErrorCode); err != nil {
					return false, fmt.Errorf("create topic %q: %w", t.Topic, err)
				}
			}

			for _, t := range topics {
				if err := a.cluster.AddTargetTopic(ctx, t.Topic); err != nil {
					return false, err
				}
			}
			return true, nil
		})
	if retry.WasTolerated(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if created && !opts.ValidateOnly && opts.waitForLeaders() {
		names := make([]string, len(topics))
		for i, t := range topics {
			names[i] = t.Topic
		}
		if err := a.waitForTopicLeaders(ctx, names); err != nil {
			return false, err
		}
	}
	return created, nil
}

// waitForTopicLeaders polls broker metadata until every partition of every
// topic has a leader. The loop runs on a fixed delay and its own timeout,
// independent of the administrative retry policy. A missing topic or a
// LEADER_NOT_AVAILABLE partition means "not yet", not an error.
func (a *Admin) waitForTopicLeaders(ctx context.Context, topics []string) error {
	deadline := time.Now().Add(a.leaderWaitTimeout)
	for {
		pending, err := a.topicsAwaitingLeaders(ctx, topics)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return &LeaderWaitError{Topics: pending, Timeout: a.leaderWaitTimeout}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.leaderWaitDelay):
		}
	}
}

func (a *Admin) topicsAwaitingLeaders(ctx context.Context, topics []string) ([]string, error) {
	if err := a.cluster.RefreshMetadata(ctx); err != nil {
		return nil, err
	}

	var pending []string
	for _, topic := range topics {
		parts, err := a.cluster.TopicPartitions(topic)
		if err != nil {
			if errors.Is(err, kerr.UnknownTopicOrPartition) || errors.Is(err, kerr.LeaderNotAvailable) {
				pending = append(pending, topic)
				continue
			}
			return nil, err
		}
		if len(parts) == 0 {
			pending = append(pending, topic)
			continue
		}
		for _, p := range parts {
			if p.Leader < 0 {
				pending = append(pending, topic)
				break
			}
		}
	}
	return pending, nil
}

// DeleteTopics deletes the given topics through the controller. On success
// the topics leave the target set and metadata is refreshed so later calls
// do not observe stale partition state.
func (a *Admin) DeleteTopics(ctx context.Context, topics []string, timeout time.Duration) error {
	if err := validateTopicNames(topics); err != nil {
		return err
	}

	_, err := retry.Do(ctx, "delete topics", a.policy, deleteTopicsStrategy,
		func(ctx context.Context, _ retry.Attempt) (struct{}, error) {
			var none struct{}
			if err := a.cluster.RefreshMetadata(ctx); err != nil {
				return none, err
			}
			controller, err := a.cluster.Controller()
			if err != nil {
				return none, err
			}

			req := kmsg.NewPtrDeleteTopicsRequest()
			req.TimeoutMillis = timeoutMillis(timeout)
			req.TopicNames = topics
			for _, topic := range topics {
				rt := kmsg.NewDeleteTopicsRequestTopic()
				rt.Topic = kmsg.StringPtr(topic)
				req.Topics = append(req.Topics, rt)
			}

			resp, err := controller.Request(ctx, req)
			if err != nil {
				return none, fmt.Errorf("delete topics: %w", err)
			}
			dresp := resp.(*kmsg.DeleteTopicsResponse)
			for _, t := range dresp.Topics {
				err := kerr.ErrorForCode(t.ErrorCode)
				if err == nil {
					continue
				}
				name := ""
				if t.Topic != nil {
					name = *t.Topic
				}
				if errors.Is(err, kerr.RequestTimedOut) {
					slog.Error("delete topics timed out",
						"topic", name,
						"hint", "the cluster may have delete.topic.enable set to false, or the request timeout is too short for the deletion to complete",
					)
					return none, retry.Bail(fmt.Errorf("delete topic %q: %w", name, err))
				}
				return none, fmt.Errorf("delete topic %q: %w", name, err)
			}
			return none, nil
		})
	if err != nil {
		return err
	}

	for _, topic := range topics {
		a.cluster.RemoveTargetTopic(topic)
	}
	return a.cluster.RefreshMetadata(ctx)
}

// CreatePartitions grows the partition count of the given topics through
// the controller.
func (a *Admin) CreatePartitions(ctx context.Context, updates []PartitionUpdate, validateOnly bool, timeout time.Duration) error {
	if err := validatePartitionUpdates(updates); err != nil {
		return err
	}

	_, err := retry.Do(ctx, "create partitions", a.policy, createPartitionsStrategy,
		func(ctx context.Context, _ retry.Attempt) (struct{}, error) {
			var none struct{}
			if err := a.cluster.RefreshMetadata(ctx); err != nil {
				return none, err
			}
			controller, err := a.cluster.Controller()
			if err != nil {
				return none, err
			}

			req := kmsg.NewPtrCreatePartitionsRequest()
			req.TimeoutMillis = timeoutMillis(timeout)
			req.ValidateOnly = validateOnly
			for _, u := range updates {
				rt := kmsg.NewCreatePartitionsRequestTopic()
				rt.Topic = u.Topic
				rt.Count = u.Count
				for _, replicas := range u.Assignments {
					ra := kmsg.NewCreatePartitionsRequestTopicAssignment()
					ra.Replicas = replicas
					rt.Assignment = append(rt.Assignment, ra)
				}
				req.Topics = append(req.Topics, rt)
			}

			resp, err := controller.Request(ctx, req)
			if err != nil {
				return none, fmt.Errorf("create partitions: %w", err)
			}
			presp := resp.(*kmsg.CreatePartitionsResponse)
			for _, t := range presp.Topics {
				if err := kerr.ErrorForCode(t.ErrorCode); err != nil {
					return none, fmt.Errorf("create partitions for %q: %w", t.Topic, err)
				}
			}
			return none, nil
		})
	return err
}

func timeoutMillis(d time.Duration) int32 {
	if d <= 0 {
		return 15000
	}
	return int32(d / time.Millisecond)
}

func orBrokerDefault32(v int32) int32 {
	if v <= 0 {
		return -1
	}
	return v
}

func orBrokerDefault16(v int16) int16 {
	if v <= 0 {
		return -1
	}
	return v
}
