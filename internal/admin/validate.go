package admin

import (
	"github.com/twmb/franz-go/pkg/kmsg"
)

// Request validation. Every rule here runs before any network call, and
// the first violated rule in precedence order is the single error raised.

func validACLResourceType(t kmsg.ACLResourceType) bool {
	switch t {
	case kmsg.ACLResourceTypeAny,
		kmsg.ACLResourceTypeTopic,
		kmsg.ACLResourceTypeGroup,
		kmsg.ACLResourceTypeCluster,
		kmsg.ACLResourceTypeTransactionalId,
		kmsg.ACLResourceTypeDelegationToken,
		kmsg.ACLResourceTypeUser:
		return true
	}
	return false
}

func validACLPatternType(t kmsg.ACLResourcePatternType) bool {
	switch t {
	case kmsg.ACLResourcePatternTypeAny,
		kmsg.ACLResourcePatternTypeMatch,
		kmsg.ACLResourcePatternTypeLiteral,
		kmsg.ACLResourcePatternTypePrefixed:
		return true
	}
	return false
}

func validACLOperation(op kmsg.ACLOperation) bool {
	switch op {
	case kmsg.ACLOperationAny,
		kmsg.ACLOperationAll,
		kmsg.ACLOperationRead,
		kmsg.ACLOperationWrite,
		kmsg.ACLOperationCreate,
		kmsg.ACLOperationDelete,
		kmsg.ACLOperationAlter,
		kmsg.ACLOperationDescribe,
		kmsg.ACLOperationClusterAction,
		kmsg.ACLOperationDescribeConfigs,
		kmsg.ACLOperationAlterConfigs,
		kmsg.ACLOperationIdempotentWrite:
		return true
	}
	return false
}

func validACLPermissionType(t kmsg.ACLPermissionType) bool {
	switch t {
	case kmsg.ACLPermissionTypeAny,
		kmsg.ACLPermissionTypeDeny,
		kmsg.ACLPermissionTypeAllow:
		return true
	}
	return false
}

func validConfigResourceType(t kmsg.ConfigResourceType) bool {
	switch t {
	case kmsg.ConfigResourceTypeTopic,
		kmsg.ConfigResourceTypeBroker,
		kmsg.ConfigResourceTypeBrokerLogger:
		return true
	}
	return false
}

// validateTopicSpecs checks array shape, names, and name uniqueness for
// topic creation.
func validateTopicSpecs(topics []TopicSpec) error {
	if len(topics) == 0 {
		return validationErr("topics", "at least one topic is required", nil)
	}
	seen := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		if t.Topic == "" {
			return validationErr("topic", "topic name must be a non-empty string", t)
		}
		if _, dup := seen[t.Topic]; dup {
			return validationErr("topics", "duplicate topic name "+t.Topic, topics)
		}
		seen[t.Topic] = struct{}{}
	}
	return nil
}

func validateTopicNames(topics []string) error {
	if len(topics) == 0 {
		return validationErr("topics", "at least one topic is required", nil)
	}
	for _, t := range topics {
		if t == "" {
			return validationErr("topic", "topic name must be a non-empty string", topics)
		}
	}
	return nil
}

func validatePartitionUpdates(updates []PartitionUpdate) error {
	if len(updates) == 0 {
		return validationErr("topicPartitions", "at least one topic is required", nil)
	}
	seen := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		if u.Topic == "" {
			return validationErr("topic", "topic name must be a non-empty string", u)
		}
		if _, dup := seen[u.Topic]; dup {
			return validationErr("topicPartitions", "duplicate topic name "+u.Topic, updates)
		}
		seen[u.Topic] = struct{}{}
	}
	return nil
}

func validateConfigResources(resources []ConfigResource) error {
	if len(resources) == 0 {
		return validationErr("resources", "at least one resource is required", nil)
	}
	for _, r := range resources {
		if !validConfigResourceType(r.Type) {
			return validationErr("resourceType", "not a valid resource type", r)
		}
		if r.Name == "" {
			return validationErr("resourceName", "resource name must be a non-empty string", r)
		}
	}
	return nil
}

func validateAlterConfigResources(resources []AlterConfigResource) error {
	if len(resources) == 0 {
		return validationErr("resources", "at least one resource is required", nil)
	}
	for _, r := range resources {
		if !validConfigResourceType(r.Type) {
			return validationErr("resourceType", "not a valid resource type", r)
		}
		if r.Name == "" {
			return validationErr("resourceName", "resource name must be a non-empty string", r)
		}
		for _, e := range r.Entries {
			if e.Name == "" {
				return validationErr("configEntries", "config entry name must be a non-empty string", r)
			}
		}
	}
	return nil
}

// validateACLs checks a creation batch. The batch is atomic: the first
// invalid entry fails the whole call. Precedence per entry: principal,
// host, resourceName, operation, resourcePatternType, permissionType,
// resourceType.
func validateACLs(acls []ACL) error {
	if len(acls) == 0 {
		return validationErr("acl", "at least one ACL entry is required", nil)
	}
	for _, a := range acls {
		if a.Principal == "" {
			return validationErr("principal", "principal must be a non-empty string", a)
		}
		if a.Host == "" {
			return validationErr("host", "host must be a non-empty string", a)
		}
		if a.ResourceName == "" {
			return validationErr("resourceName", "resource name must be a non-empty string", a)
		}
		if !validACLOperation(a.Operation) {
			return validationErr("operation", "not a valid ACL operation", a)
		}
		if !validACLPatternType(a.ResourcePatternType) {
			return validationErr("resourcePatternType", "not a valid resource pattern type", a)
		}
		if !validACLPermissionType(a.PermissionType) {
			return validationErr("permissionType", "not a valid permission type", a)
		}
		if !validACLResourceType(a.ResourceType) {
			return validationErr("resourceType", "not a valid resource type", a)
		}
	}
	return nil
}

// validateACLFilter checks one describe/delete filter. Nil principal,
// host, and resource name mean "no filter"; when present they must be
// non-empty.
func validateACLFilter(f ACLFilter) error {
	if f.Principal != nil && *f.Principal == "" {
		return validationErr("principal", "principal filter must be nil or a non-empty string", f)
	}
	if f.Host != nil && *f.Host == "" {
		return validationErr("host", "host filter must be nil or a non-empty string", f)
	}
	if f.ResourceName != nil && *f.ResourceName == "" {
		return validationErr("resourceName", "resource name filter must be nil or a non-empty string", f)
	}
	if !validACLOperation(f.Operation) {
		return validationErr("operation", "not a valid ACL operation", f)
	}
	if !validACLPatternType(f.ResourcePatternType) {
		return validationErr("resourcePatternType", "not a valid resource pattern type", f)
	}
	if !validACLPermissionType(f.PermissionType) {
		return validationErr("permissionType", "not a valid permission type", f)
	}
	if !validACLResourceType(f.ResourceType) {
		return validationErr("resourceType", "not a valid resource type", f)
	}
	return nil
}

func validateGroupIDs(groupIDs []string) error {
	if len(groupIDs) == 0 {
		return validationErr("groupIds", "at least one group id is required", nil)
	}
	for _, id := range groupIDs {
		if id == "" {
			return validationErr("groupId", "group id must be a non-empty string", groupIDs)
		}
	}
	return nil
}

func validateSeekTargets(seeks []SeekTarget) error {
	if len(seeks) == 0 {
		return validationErr("partitions", "at least one partition is required", nil)
	}
	seen := make(map[int32]struct{}, len(seeks))
	for _, s := range seeks {
		if s.Partition < 0 {
			return validationErr("partition", "partition must be non-negative", s)
		}
		if s.Offset < 0 {
			return validationErr("offset", "offset must be non-negative", s)
		}
		if _, dup := seen[s.Partition]; dup {
			return validationErr("partitions", "duplicate partition", seeks)
		}
		seen[s.Partition] = struct{}{}
	}
	return nil
}
