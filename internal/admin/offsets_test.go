package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/ppiankov/kafkadmin/internal/cluster"
)

func describeGroupsHandler(state string) func(kmsg.Request) (kmsg.Response, error) {
	return func(req kmsg.Request) (kmsg.Response, error) {
		dreq := req.(*kmsg.DescribeGroupsRequest)
		resp := kmsg.NewPtrDescribeGroupsResponse()
		for _, g := range dreq.Groups {
			rg := kmsg.NewDescribeGroupsResponseGroup()
			rg.Group = g
			rg.State = state
			rg.ProtocolType = "consumer"
			resp.Groups = append(resp.Groups, rg)
		}
		return resp, nil
	}
}

func TestFetchTopicOffsetsPairsWatermarks(t *testing.T) {
	fc := newFakeCluster()
	fc.meta = metaWithLeaders("orders", 3)
	fc.highOffsets = map[int32]int64{0: 42, 1: 0, 2: 7}
	fc.lowOffsets = map[int32]int64{0: 10, 1: 0, 2: 7}
	a := New(fc, fastOptions())

	offsets, err := a.FetchTopicOffsets(context.Background(), "orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offsets) != 3 {
		t.Fatalf("got %d entries, want one per partition", len(offsets))
	}
	for i, o := range offsets {
		if o.Partition != int32(i) {
			t.Fatalf("offsets not sorted by partition: %+v", offsets)
		}
		if o.Offset != o.High {
			t.Fatalf("partition %d: Offset = %d, want the high watermark %d", o.Partition, o.Offset, o.High)
		}
		if o.Low > o.High {
			t.Fatalf("partition %d: low %d above high %d", o.Partition, o.Low, o.High)
		}
	}
	if offsets[0].Low != 10 || offsets[0].High != 42 {
		t.Fatalf("partition 0 = %+v, want low 10 high 42", offsets[0])
	}
	if !fc.hasTarget("orders") {
		t.Fatalf("queried topic must join the target set")
	}
}

func TestFetchTopicOffsetsRetriesUnknownTopic(t *testing.T) {
	fc := newFakeCluster()
	fc.meta = metaWithLeaders("orders", 1)
	fc.highOffsets = map[int32]int64{0: 5}
	fc.lowOffsets = map[int32]int64{0: 0}
	fc.listErr = errUnknownTopic("orders")
	fc.listErrOnce = true
	a := New(fc, fastOptions())

	offsets, err := a.FetchTopicOffsets(context.Background(), "orders")
	if err != nil {
		t.Fatalf("freshly created topics need the retry window, got %v", err)
	}
	if len(offsets) != 1 || offsets[0].High != 5 {
		t.Fatalf("offsets = %+v", offsets)
	}
}

func TestFetchOffsetsReadsCoordinator(t *testing.T) {
	fc := newFakeCluster()
	fc.meta = metaWithLeaders("orders", 2)
	meta := "checkpoint"
	coordinator := &fakeBroker{id: 7}
	coordinator.handler = func(req kmsg.Request) (kmsg.Response, error) {
		resp := kmsg.NewPtrOffsetFetchResponse()
		rt := kmsg.NewOffsetFetchResponseTopic()
		rt.Topic = "orders"
		for p, off := range map[int32]int64{0: 12, 1: -1} {
			rp := kmsg.NewOffsetFetchResponseTopicPartition()
			rp.Partition = p
			rp.Offset = off
			if off >= 0 {
				rp.Metadata = &meta
			}
			rt.Partitions = append(rt.Partitions, rp)
		}
		resp.Topics = append(resp.Topics, rt)
		return resp, nil
	}
	fc.coordinatorFn = func(group string) (cluster.Broker, error) {
		if group != "readers" {
			t.Fatalf("coordinator lookup for %q, want readers", group)
		}
		return coordinator, nil
	}
	a := New(fc, fastOptions())

	committed, err := a.FetchOffsets(context.Background(), "readers", "orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(committed) != 2 {
		t.Fatalf("got %d entries, want 2", len(committed))
	}
	if committed[0].Partition != 0 || committed[0].Offset != 12 {
		t.Fatalf("partition 0 = %+v", committed[0])
	}
	if committed[1].Offset != -1 {
		t.Fatalf("uncommitted partition must surface -1, got %+v", committed[1])
	}
}

func TestSetOffsetsRefusesLiveGroup(t *testing.T) {
	fc := newFakeCluster()
	coordinator := &fakeBroker{id: 7, handler: describeGroupsHandler("Stable")}
	fc.coordinatorFn = func(string) (cluster.Broker, error) { return coordinator, nil }
	consumer := newFakeConsumer()
	fc.consumer = consumer
	a := New(fc, fastOptions())

	err := a.SetOffsets(context.Background(), "readers", "orders", []SeekTarget{{Partition: 0, Offset: 3}})

	var gse *GroupStateError
	if !errors.As(err, &gse) {
		t.Fatalf("error = %v, want GroupStateError", err)
	}
	if gse.State != "Stable" {
		t.Fatalf("state = %q, want Stable", gse.State)
	}
	if consumer.runCalled {
		t.Fatalf("a live group must never be joined")
	}
}

func TestSetOffsetsPauseSeekRunStop(t *testing.T) {
	for _, state := range []string{"Empty", "Dead"} {
		t.Run(state, func(t *testing.T) {
			fc := newFakeCluster()
			coordinator := &fakeBroker{id: 7, handler: describeGroupsHandler(state)}
			fc.coordinatorFn = func(string) (cluster.Broker, error) { return coordinator, nil }
			consumer := newFakeConsumer()
			fc.consumer = consumer
			a := New(fc, fastOptions())

			seeks := []SeekTarget{{Partition: 0, Offset: 3}, {Partition: 1, Offset: 9}}
			if err := a.SetOffsets(context.Background(), "readers", "orders", seeks); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(consumer.paused) != 1 || consumer.paused[0] != "orders" {
				t.Fatalf("paused = %v, want the target topic before joining", consumer.paused)
			}
			if len(consumer.seeks) != 2 {
				t.Fatalf("seeks = %+v, want both targets", consumer.seeks)
			}
			for i, s := range consumer.seeks {
				if s.topic != "orders" || s.partition != seeks[i].Partition || s.offset != seeks[i].Offset {
					t.Fatalf("seek %d = %+v, want %+v on orders", i, s, seeks[i])
				}
			}
			if !consumer.runCalled || !consumer.stopCalled {
				t.Fatalf("run=%v stop=%v, want both", consumer.runCalled, consumer.stopCalled)
			}
		})
	}
}

func TestSetOffsetsConsumerErrorStopsConsumer(t *testing.T) {
	fc := newFakeCluster()
	coordinator := &fakeBroker{id: 7, handler: describeGroupsHandler("Empty")}
	fc.coordinatorFn = func(string) (cluster.Broker, error) { return coordinator, nil }
	consumer := newFakeConsumer()
	consumer.failRun = errors.New("rebalance storm")
	fc.consumer = consumer
	a := New(fc, fastOptions())

	err := a.SetOffsets(context.Background(), "readers", "orders", []SeekTarget{{Partition: 0, Offset: 3}})
	if err == nil || err.Error() != "rebalance storm" {
		t.Fatalf("error = %v, want the consumer error", err)
	}
	if !consumer.stopCalled {
		t.Fatalf("a failed session must still be stopped")
	}
}

func TestSetOffsetsValidation(t *testing.T) {
	a := New(newFakeCluster(), fastOptions())
	cases := []struct {
		name  string
		group string
		topic string
		seeks []SeekTarget
	}{
		{name: "empty-group", group: "", topic: "orders", seeks: []SeekTarget{{Partition: 0, Offset: 1}}},
		{name: "empty-topic", group: "readers", topic: "", seeks: []SeekTarget{{Partition: 0, Offset: 1}}},
		{name: "no-seeks", group: "readers", topic: "orders", seeks: nil},
		{name: "negative-partition", group: "readers", topic: "orders", seeks: []SeekTarget{{Partition: -1, Offset: 1}}},
		{name: "negative-offset", group: "readers", topic: "orders", seeks: []SeekTarget{{Partition: 0, Offset: -1}}},
		{name: "duplicate-partition", group: "readers", topic: "orders", seeks: []SeekTarget{{Partition: 0, Offset: 1}, {Partition: 0, Offset: 2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := a.SetOffsets(context.Background(), tc.group, tc.topic, tc.seeks)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestResetOffsets(t *testing.T) {
	cases := []struct {
		name     string
		earliest bool
		want     map[int32]int64
	}{
		{name: "earliest", earliest: true, want: map[int32]int64{0: 10, 1: 0}},
		{name: "latest", earliest: false, want: map[int32]int64{0: 42, 1: 5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := newFakeCluster()
			fc.meta = metaWithLeaders("orders", 2)
			fc.highOffsets = map[int32]int64{0: 42, 1: 5}
			fc.lowOffsets = map[int32]int64{0: 10, 1: 0}
			coordinator := &fakeBroker{id: 7, handler: describeGroupsHandler("Empty")}
			fc.coordinatorFn = func(string) (cluster.Broker, error) { return coordinator, nil }
			consumer := newFakeConsumer()
			fc.consumer = consumer
			a := New(fc, fastOptions())

			if err := a.ResetOffsets(context.Background(), "readers", "orders", tc.earliest); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(consumer.seeks) != len(tc.want) {
				t.Fatalf("seeks = %+v, want one per partition", consumer.seeks)
			}
			for _, s := range consumer.seeks {
				if s.offset != tc.want[s.partition] {
					t.Fatalf("partition %d sought to %d, want %d", s.partition, s.offset, tc.want[s.partition])
				}
			}
		})
	}
}

func TestFetchOffsetsSurfacesGroupError(t *testing.T) {
	fc := newFakeCluster()
	fc.meta = metaWithLeaders("orders", 1)
	coordinator := &fakeBroker{id: 7}
	coordinator.handler = func(req kmsg.Request) (kmsg.Response, error) {
		resp := kmsg.NewPtrOffsetFetchResponse()
		resp.ErrorCode = kerr.GroupAuthorizationFailed.Code
		return resp, nil
	}
	fc.coordinatorFn = func(string) (cluster.Broker, error) { return coordinator, nil }
	a := New(fc, fastOptions())

	_, err := a.FetchOffsets(context.Background(), "readers", "orders")
	if !errors.Is(err, kerr.GroupAuthorizationFailed) {
		t.Fatalf("error = %v, want GroupAuthorizationFailed", err)
	}
}
