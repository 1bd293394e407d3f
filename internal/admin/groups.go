package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/ppiankov/kafkadmin/internal/cluster"
	"github.com/ppiankov/kafkadmin/internal/retry"
)

var deleteGroupsStrategy = retry.Strategy{
	Retriable: []*kerr.Error{kerr.NotController, kerr.CoordinatorNotAvailable},
	RetriableIf: func(err error) bool {
		var dge *DeleteGroupsError
		return errors.As(err, &dge)
	},
}

// ListGroups queries every broker in the pool and concatenates their group
// lists. There is no partial-failure tolerance: any broker error fails the
// whole call.
func (a *Admin) ListGroups(ctx context.Context) ([]GroupOverview, error) {
	if err := a.cluster.RefreshMetadata(ctx); err != nil {
		return nil, err
	}
	brokers := a.cluster.Brokers()

	perBroker := make([][]GroupOverview, len(brokers))
	errs := make([]error, len(brokers))

	var wg sync.WaitGroup
	for i, b := range brokers {
		wg.Add(1)
		go func(i int, b cluster.Broker) {
			defer wg.Done()
			perBroker[i], errs[i] = listBrokerGroups(ctx, b)
		}(i, b)
	}
	wg.Wait()

	var out []GroupOverview
	for i := range brokers {
		if errs[i] != nil {
			return nil, errs[i]
		}
		out = append(out, perBroker[i]...)
	}
	return out, nil
}

func listBrokerGroups(ctx context.Context, b cluster.Broker) ([]GroupOverview, error) {
	req := kmsg.NewPtrListGroupsRequest()
	resp, err := b.Request(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list groups on broker %d: %w", b.NodeID(), err)
	}
	lresp := resp.(*kmsg.ListGroupsResponse)
	if err := kerr.ErrorForCode(lresp.ErrorCode); err != nil {
		return nil, fmt.Errorf("list groups on broker %d: %w", b.NodeID(), err)
	}

	groups := make([]GroupOverview, 0, len(lresp.Groups))
	for _, g := range lresp.Groups {
		groups = append(groups, GroupOverview{
			GroupID:      g.Group,
			ProtocolType: g.ProtocolType,
		})
	}
	return groups, nil
}

// DeleteGroups deletes the given consumer groups. Coordinators are
// resolved fresh on every attempt, the groups are partitioned by
// coordinator, and one delete call per coordinator is issued concurrently.
// Groups that fail are retried alone: successes from earlier attempts are
// never re-deleted. The returned results cover every requested group id
// exactly once. When retries exhaust with failures remaining, the error
// carries the per-group failure details of the final attempt.
func (a *Admin) DeleteGroups(ctx context.Context, groupIDs []string) ([]DeleteGroupResult, error) {
	if err := validateGroupIDs(groupIDs); err != nil {
		return nil, err
	}

	// completed and remaining thread the shrinking target set through the
	// retry attempts.
	var completed []DeleteGroupResult
	remaining := append([]string(nil), groupIDs...)

	return retry.Do(ctx, "delete groups", a.policy, deleteGroupsStrategy,
		func(ctx context.Context, _ retry.Attempt) ([]DeleteGroupResult, error) {
			if err := a.cluster.RefreshMetadata(ctx); err != nil {
				return nil, err
			}

			// Coordinators can move between attempts, so the assignment is
			// recomputed on every pass.
			order, batches, err := a.groupsByCoordinator(ctx, remaining)
			if err != nil {
				return nil, err
			}

			results, err := a.deleteGroupBatches(ctx, order, batches)
			if err != nil {
				return nil, err
			}

			var failed []DeleteGroupResult
			for _, r := range results {
				if r.ErrorCode == 0 {
					completed = append(completed, r)
				} else {
					failed = append(failed, r)
				}
			}
			if len(failed) > 0 {
				remaining = remaining[:0]
				for _, r := range failed {
					remaining = append(remaining, r.GroupID)
				}
				return nil, &DeleteGroupsError{
					Completed: append([]DeleteGroupResult(nil), completed...),
					Failed:    failed,
				}
			}
			return append([]DeleteGroupResult(nil), completed...), nil
		})
}

type coordinatorBatch struct {
	broker cluster.Broker
	groups []string
}

// groupsByCoordinator resolves each group's coordinator and partitions the
// groups by coordinator node id, preserving coordinator discovery order.
func (a *Admin) groupsByCoordinator(ctx context.Context, groupIDs []string) ([]int32, map[int32]*coordinatorBatch, error) {
	var order []int32
	batches := make(map[int32]*coordinatorBatch)
	for _, id := range groupIDs {
		b, err := a.cluster.Coordinator(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		batch, ok := batches[b.NodeID()]
		if !ok {
			batch = &coordinatorBatch{broker: b}
			batches[b.NodeID()] = batch
			order = append(order, b.NodeID())
		}
		batch.groups = append(batch.groups, id)
	}
	return order, batches, nil
}

// deleteGroupBatches issues one delete call per coordinator concurrently
// and flattens the per-group results in coordinator-iteration order.
func (a *Admin) deleteGroupBatches(ctx context.Context, order []int32, batches map[int32]*coordinatorBatch) ([]DeleteGroupResult, error) {
	perCoord := make([][]DeleteGroupResult, len(order))
	errs := make([]error, len(order))

	var wg sync.WaitGroup
	for i, nodeID := range order {
		batch := batches[nodeID]
		wg.Add(1)
		go func(i int, batch *coordinatorBatch) {
			defer wg.Done()
			perCoord[i], errs[i] = deleteCoordinatorGroups(ctx, batch)
		}(i, batch)
	}
	wg.Wait()

	var out []DeleteGroupResult
	for i := range order {
		if errs[i] != nil {
			return nil, errs[i]
		}
		out = append(out, perCoord[i]...)
	}
	return out, nil
}

func deleteCoordinatorGroups(ctx context.Context, batch *coordinatorBatch) ([]DeleteGroupResult, error) {
	req := kmsg.NewPtrDeleteGroupsRequest()
	req.Groups = batch.groups

	resp, err := batch.broker.Request(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("delete groups on broker %d: %w", batch.broker.NodeID(), err)
	}
	dresp := resp.(*kmsg.DeleteGroupsResponse)

	results := make([]DeleteGroupResult, 0, len(dresp.Groups))
	for _, g := range dresp.Groups {
		results = append(results, DeleteGroupResult{
			GroupID:   g.Group,
			ErrorCode: g.ErrorCode,
			Err:       kerr.ErrorForCode(g.ErrorCode),
		})
	}
	return results, nil
}
