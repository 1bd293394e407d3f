package render

import (
	"fmt"
	"io"

	"github.com/ppiankov/kafkadmin/internal/admin"
	"github.com/ppiankov/kafkadmin/internal/cluster"
)

// TextRenderer writes human-readable result listings.
type TextRenderer struct {
	writer io.Writer
}

// NewTextRenderer creates a new text renderer.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{writer: w}
}

func (r *TextRenderer) writef(writeErr *error, format string, args ...any) {
	if *writeErr != nil {
		return
	}
	_, *writeErr = fmt.Fprintf(r.writer, format, args...)
}

// Cluster renders the broker pool and controller.
func (r *TextRenderer) Cluster(desc admin.ClusterDescription) error {
	var err error
	r.writef(&err, "Cluster: %s\n", desc.ClusterID)
	r.writef(&err, "Controller: %d\n", desc.ControllerID)
	r.writef(&err, "Brokers: %d\n", len(desc.Brokers))
	for _, b := range desc.Brokers {
		r.writef(&err, "  - Broker %d: %s:%d", b.NodeID, b.Host, b.Port)
		if b.Rack != "" {
			r.writef(&err, " (rack: %s)", b.Rack)
		}
		r.writef(&err, "\n")
	}
	return err
}

// TopicNames renders a plain topic listing.
func (r *TextRenderer) TopicNames(names []string) error {
	var err error
	for _, name := range names {
		r.writef(&err, "%s\n", name)
	}
	return err
}

// TopicMetadata renders partition layout per topic.
func (r *TextRenderer) TopicMetadata(topics []cluster.TopicMetadata) error {
	var err error
	for _, t := range topics {
		r.writef(&err, "Topic: %s", t.Topic)
		if t.Internal {
			r.writef(&err, " (internal)")
		}
		r.writef(&err, "\n")
		for _, p := range t.Partitions {
			r.writef(&err, "  Partition %d: leader=%d replicas=%v isr=%v\n",
				p.Partition, p.Leader, p.Replicas, p.ISR)
		}
	}
	return err
}

// Groups renders a consumer group listing.
func (r *TextRenderer) Groups(groups []admin.GroupOverview) error {
	var err error
	for _, g := range groups {
		r.writef(&err, "%s\t%s\n", g.GroupID, g.ProtocolType)
	}
	return err
}

// DeleteGroupResults renders per-group deletion outcomes.
func (r *TextRenderer) DeleteGroupResults(results []admin.DeleteGroupResult) error {
	var err error
	for _, res := range results {
		if res.Err != nil {
			r.writef(&err, "%s\tFAILED: %v\n", res.GroupID, res.Err)
		} else {
			r.writef(&err, "%s\tdeleted\n", res.GroupID)
		}
	}
	return err
}

// PartitionOffsets renders topic watermarks.
func (r *TextRenderer) PartitionOffsets(topic string, offsets []admin.PartitionOffset) error {
	var err error
	r.writef(&err, "Topic: %s\n", topic)
	for _, o := range offsets {
		r.writef(&err, "  Partition %d: low=%d high=%d\n", o.Partition, o.Low, o.High)
	}
	return err
}

// CommittedOffsets renders a group's committed positions.
func (r *TextRenderer) CommittedOffsets(group, topic string, offsets []admin.CommittedOffset) error {
	var err error
	r.writef(&err, "Group: %s\nTopic: %s\n", group, topic)
	for _, o := range offsets {
		r.writef(&err, "  Partition %d: offset=%d", o.Partition, o.Offset)
		if o.Metadata != nil && *o.Metadata != "" {
			r.writef(&err, " metadata=%q", *o.Metadata)
		}
		r.writef(&err, "\n")
	}
	return err
}

// Configs renders described configuration per resource.
func (r *TextRenderer) Configs(resources []admin.DescribedConfigResource) error {
	var err error
	for _, res := range resources {
		r.writef(&err, "Resource: %s (type %d)\n", res.Name, res.Type)
		for _, c := range res.Configs {
			value := "<nil>"
			if c.Value != nil {
				value = *c.Value
			}
			if c.Sensitive {
				value = "<sensitive>"
			}
			r.writef(&err, "  %s=%s", c.Name, value)
			if c.IsDefault {
				r.writef(&err, " (default)")
			}
			if c.ReadOnly {
				r.writef(&err, " (read-only)")
			}
			r.writef(&err, "\n")
		}
	}
	return err
}

// ACLResources renders described ACL entries grouped by resource.
func (r *TextRenderer) ACLResources(resources []admin.DescribedACLResource) error {
	var err error
	for _, res := range resources {
		r.writef(&err, "Resource: %s %s (pattern %s)\n",
			res.ResourceType, res.ResourceName, res.ResourcePatternType)
		for _, a := range res.ACLs {
			r.writef(&err, "  %s@%s: %s %s\n", a.Principal, a.Host, a.PermissionType, a.Operation)
		}
	}
	return err
}

// DeletedACLs renders the entries removed per delete filter.
func (r *TextRenderer) DeletedACLs(results []admin.DeletedACLFilterResult) error {
	var err error
	for i, res := range results {
		r.writef(&err, "Filter %d: %d matched\n", i+1, len(res.Matched))
		for _, m := range res.Matched {
			r.writef(&err, "  %s %s %s@%s: %s %s\n",
				m.ResourceType, m.ResourceName, m.Principal, m.Host, m.PermissionType, m.Operation)
		}
	}
	return err
}
