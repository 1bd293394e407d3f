package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/kafkadmin/internal/cluster"
)

func TestLifecycleEvents(t *testing.T) {
	a := New(newFakeCluster(), fastOptions())

	var connects, disconnects int
	if _, err := a.On(EventConnect, func() { connects++ }); err != nil {
		t.Fatalf("On(connect): %v", err)
	}
	off, err := a.On(EventDisconnect, func() { disconnects++ })
	if err != nil {
		t.Fatalf("On(disconnect): %v", err)
	}

	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	a.Disconnect()
	if connects != 1 || disconnects != 1 {
		t.Fatalf("connects=%d disconnects=%d, want 1 and 1", connects, disconnects)
	}

	off()
	a.Disconnect()
	if disconnects != 1 {
		t.Fatalf("unsubscribed listener fired, disconnects=%d", disconnects)
	}
}

func TestOnRejectsUnknownEvent(t *testing.T) {
	a := New(newFakeCluster(), fastOptions())
	if _, err := a.On("admin.reconnect", func() {}); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("error = %v, want ErrUnknownEvent", err)
	}
}

func TestListTopicsSorted(t *testing.T) {
	fc := newFakeCluster()
	fc.meta = cluster.Metadata{Topics: []cluster.TopicMetadata{
		{Topic: "zebra"},
		{Topic: "alpha"},
		{Topic: "middle"},
	}}
	a := New(fc, fastOptions())

	names, err := a.ListTopics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alpha", "middle", "zebra"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestFetchTopicMetadata(t *testing.T) {
	fc := newFakeCluster()
	fc.meta = cluster.Metadata{Topics: []cluster.TopicMetadata{
		{Topic: "orders", Partitions: []cluster.PartitionMetadata{{Partition: 0, Leader: 1}}},
		{Topic: "audit"},
	}}
	a := New(fc, fastOptions())

	got, err := a.FetchTopicMetadata(context.Background(), []string{"orders"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Topic != "orders" {
		t.Fatalf("got = %+v, want only orders", got)
	}
	if !fc.hasTarget("orders") {
		t.Fatalf("requested topic must join the target set")
	}

	all, err := a.FetchTopicMetadata(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("no filter must return the whole snapshot, got %+v", all)
	}

	_, err = a.FetchTopicMetadata(context.Background(), []string{""})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestDescribeCluster(t *testing.T) {
	fc := newFakeCluster()
	fc.meta = cluster.Metadata{
		ClusterID:    "test-cluster",
		ControllerID: 2,
		Brokers: []cluster.BrokerInfo{
			{NodeID: 1, Host: "b1", Port: 9092, Rack: "a"},
			{NodeID: 2, Host: "b2", Port: 9092, Rack: "b"},
		},
	}
	a := New(fc, fastOptions())

	desc, err := a.DescribeCluster(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.ClusterID != "test-cluster" || desc.ControllerID != 2 {
		t.Fatalf("desc = %+v", desc)
	}
	if len(desc.Brokers) != 2 || desc.Brokers[1].Host != "b2" {
		t.Fatalf("brokers = %+v", desc.Brokers)
	}
}
