package admin

import (
	"time"

	"github.com/twmb/franz-go/pkg/kmsg"
)

// TopicSpec describes one topic to create. Zero NumPartitions and
// ReplicationFactor defer to the broker defaults.
type TopicSpec struct {
	Topic             string
	NumPartitions     int32
	ReplicationFactor int16
	ReplicaAssignment []PartitionAssignment
	Configs           map[string]*string
}

// PartitionAssignment places one partition's replicas.
type PartitionAssignment struct {
	Partition int32
	Replicas  []int32
}

// CreateTopicsOptions tunes CreateTopics. WaitForLeaders defaults to true;
// set it to a false pointer to return as soon as the controller accepts
// the request.
type CreateTopicsOptions struct {
	ValidateOnly   bool
	Timeout        time.Duration
	WaitForLeaders *bool
}

func (o CreateTopicsOptions) waitForLeaders() bool {
	return o.WaitForLeaders == nil || *o.WaitForLeaders
}

// PartitionUpdate grows one topic to Count partitions. Assignments, if
// set, places the replicas of each added partition.
type PartitionUpdate struct {
	Topic       string
	Count       int32
	Assignments [][]int32
}

// ConfigResource names one resource whose configuration is described. An
// empty ConfigNames describes every key.
type ConfigResource struct {
	Type        kmsg.ConfigResourceType
	Name        string
	ConfigNames []string
}

// DescribedConfigResource is the description of one resource.
type DescribedConfigResource struct {
	Type    kmsg.ConfigResourceType
	Name    string
	Configs []DescribedConfigEntry
}

// DescribedConfigEntry is one configuration key of a described resource.
type DescribedConfigEntry struct {
	Name      string
	Value     *string
	ReadOnly  bool
	IsDefault bool
	Sensitive bool
}

// ConfigEntry is one key to set when altering configuration.
type ConfigEntry struct {
	Name  string
	Value string
}

// AlterConfigResource names one resource and the full configuration to
// apply to it.
type AlterConfigResource struct {
	Type    kmsg.ConfigResourceType
	Name    string
	Entries []ConfigEntry
}

// AlteredConfigResource is the per-resource outcome of AlterConfigs.
type AlteredConfigResource struct {
	Type kmsg.ConfigResourceType
	Name string
}

// ACL is one access-control entry to create. All fields are required.
type ACL struct {
	ResourceType        kmsg.ACLResourceType
	ResourceName        string
	ResourcePatternType kmsg.ACLResourcePatternType
	Principal           string
	Host                string
	Operation           kmsg.ACLOperation
	PermissionType      kmsg.ACLPermissionType
}

// ACLFilter matches existing entries for describe and delete. Nil
// Principal, Host, and ResourceName mean "no filter" on that field.
type ACLFilter struct {
	ResourceType        kmsg.ACLResourceType
	ResourceName        *string
	ResourcePatternType kmsg.ACLResourcePatternType
	Principal           *string
	Host                *string
	Operation           kmsg.ACLOperation
	PermissionType      kmsg.ACLPermissionType
}

// DescribedACLResource groups the matched entries of one resource.
type DescribedACLResource struct {
	ResourceType        kmsg.ACLResourceType
	ResourceName        string
	ResourcePatternType kmsg.ACLResourcePatternType
	ACLs                []DescribedACL
}

// DescribedACL is one matched access-control entry.
type DescribedACL struct {
	Principal      string
	Host           string
	Operation      kmsg.ACLOperation
	PermissionType kmsg.ACLPermissionType
}

// DeletedACLFilterResult is the outcome of one delete filter, carrying the
// entries it matched and removed.
type DeletedACLFilterResult struct {
	ErrorCode    int16
	ErrorMessage *string
	Matched      []DeletedACL
}

// DeletedACL is one entry removed by a delete filter.
type DeletedACL struct {
	ErrorCode           int16
	ErrorMessage        *string
	ResourceType        kmsg.ACLResourceType
	ResourceName        string
	ResourcePatternType kmsg.ACLResourcePatternType
	Principal           string
	Host                string
	Operation           kmsg.ACLOperation
	PermissionType      kmsg.ACLPermissionType
}

// GroupOverview is one consumer group as reported by a broker.
type GroupOverview struct {
	GroupID      string
	ProtocolType string
}

// DeleteGroupResult is the per-group outcome of DeleteGroups.
type DeleteGroupResult struct {
	GroupID   string
	ErrorCode int16
	Err       error
}

// PartitionOffset carries the watermarks of one partition. Offset always
// equals High.
type PartitionOffset struct {
	Partition int32
	Offset    int64
	High      int64
	Low       int64
}

// CommittedOffset is one partition's committed offset for a group.
type CommittedOffset struct {
	Partition int32
	Offset    int64
	Metadata  *string
}

// SeekTarget repositions one partition of the target topic.
type SeekTarget struct {
	Partition int32
	Offset    int64
}

// ClusterDescription is the broker-level view of the cluster.
type ClusterDescription struct {
	ClusterID    string
	ControllerID int32
	Brokers      []BrokerDescription
}

// BrokerDescription is one node of the cluster.
type BrokerDescription struct {
	NodeID int32
	Host   string
	Port   int32
	Rack   string
}
