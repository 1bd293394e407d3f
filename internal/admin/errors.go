package admin

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownEvent is returned by On for event names this layer does not
// emit.
var ErrUnknownEvent = errors.New("unknown admin event name")

// ValidationError reports the first violated rule of a request, before any
// network call. Value echoes the offending record.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s: %+v", e.Field, e.Message, e.Value)
}

func validationErr(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// LeaderWaitError reports that created topics did not elect leaders for
// every partition within the leader-wait deadline. It is distinct from retry
// exhaustion of the create call itself.
type LeaderWaitError struct {
	Topics  []string
	Timeout time.Duration
}

func (e *LeaderWaitError) Error() string {
	return fmt.Sprintf("timed out while waiting for topic leaders after %s: %s",
		e.Timeout, strings.Join(e.Topics, ", "))
}

// DeleteGroupsError aggregates the per-group failures of the last
// delete-groups attempt. Completed carries the groups that succeeded in
// this or earlier attempts; they were not re-attempted.
type DeleteGroupsError struct {
	Completed []DeleteGroupResult
	Failed    []DeleteGroupResult
}

func (e *DeleteGroupsError) Error() string {
	ids := make([]string, len(e.Failed))
	for i, r := range e.Failed {
		ids[i] = fmt.Sprintf("%s (error code %d)", r.GroupID, r.ErrorCode)
	}
	return fmt.Sprintf("delete groups failed for %s", strings.Join(ids, ", "))
}

// GroupStateError reports a refusal to touch a consumer group whose state
// is not terminal.
type GroupStateError struct {
	GroupID string
	State   string
}

func (e *GroupStateError) Error() string {
	return fmt.Sprintf("group %q is in state %q; offsets can only be set while the group is Empty or Dead", e.GroupID, e.State)
}
