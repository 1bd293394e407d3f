package admin

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/ppiankov/kafkadmin/internal/retry"
)

var aclsStrategy = retry.Strategy{
	Retriable: []*kerr.Error{kerr.NotController},
}

// CreateACLs creates the given access-control entries through the
// controller. The batch is atomic at the validation boundary: one invalid
// entry fails the whole call before any network activity.
func (a *Admin) CreateACLs(ctx context.Context, acls []ACL) (bool, error) {
	if err := validateACLs(acls); err != nil {
		return false, err
	}

	return retry.Do(ctx, "create acls", a.policy, aclsStrategy,
		func(ctx context.Context, _ retry.Attempt) (bool, error) {
			if err := a.cluster.RefreshMetadata(ctx); err != nil {
				return false, err
			}
			controller, err := a.cluster.Controller()
			if err != nil {
				return false, err
			}

			req := kmsg.NewPtrCreateACLsRequest()
			for _, acl := range acls {
				rc := kmsg.NewCreateACLsRequestCreation()
				rc.ResourceType = acl.ResourceType
				rc.ResourceName = acl.ResourceName
				rc.ResourcePatternType = acl.ResourcePatternType
				rc.Principal = acl.Principal
				rc.Host = acl.Host
				rc.Operation = acl.Operation
				rc.PermissionType = acl.PermissionType
				req.Creations = append(req.Creations, rc)
			}

			resp, err := controller.Request(ctx, req)
			if err != nil {
				return false, fmt.Errorf("create acls: %w", err)
			}
			cresp := resp.(*kmsg.CreateACLsResponse)
			for i, r := range cresp.Results {
				if err := kerr.ErrorForCode(r.ErrorCode); err != nil {
					return false, fmt.Errorf("create acl %+v: %w", acls[i], err)
				}
			}
			return true, nil
		})
}

// DescribeACLs returns the entries matching the filter, grouped by
// resource, exactly as the cluster reports them.
func (a *Admin) DescribeACLs(ctx context.Context, filter ACLFilter) ([]DescribedACLResource, error) {
	if err := validateACLFilter(filter); err != nil {
		return nil, err
	}

	return retry.Do(ctx, "describe acls", a.policy, aclsStrategy,
		func(ctx context.Context, _ retry.Attempt) ([]DescribedACLResource, error) {
			if err := a.cluster.RefreshMetadata(ctx); err != nil {
				return nil, err
			}
			controller, err := a.cluster.Controller()
			if err != nil {
				return nil, err
			}

			req := kmsg.NewPtrDescribeACLsRequest()
			req.ResourceType = filter.ResourceType
			req.ResourceName = filter.ResourceName
			req.ResourcePatternType = filter.ResourcePatternType
			req.Principal = filter.Principal
			req.Host = filter.Host
			req.Operation = filter.Operation
			req.PermissionType = filter.PermissionType

			resp, err := controller.Request(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("describe acls: %w", err)
			}
			dresp := resp.(*kmsg.DescribeACLsResponse)
			if err := kerr.ErrorForCode(dresp.ErrorCode); err != nil {
				return nil, fmt.Errorf("describe acls: %w", err)
			}

			out := make([]DescribedACLResource, 0, len(dresp.Resources))
			for _, r := range dresp.Resources {
				resource := DescribedACLResource{
					ResourceType:        r.ResourceType,
					ResourceName:        r.ResourceName,
					ResourcePatternType: r.ResourcePatternType,
				}
				for _, acl := range r.ACLs {
					resource.ACLs = append(resource.ACLs, DescribedACL{
						Principal:      acl.Principal,
						Host:           acl.Host,
						Operation:      acl.Operation,
						PermissionType: acl.PermissionType,
					})
				}
				out = append(out, resource)
			}
			return out, nil
		})
}

// DeleteACLs removes the entries matching each filter and returns the
// matched entries per filter, exactly as the cluster reports them.
func (a *Admin) DeleteACLs(ctx context.Context, filters []ACLFilter) ([]DeletedACLFilterResult, error) {
	if len(filters) == 0 {
		return nil, validationErr("filters", "at least one filter is required", nil)
	}
	for _, f := range filters {
		if err := validateACLFilter(f); err != nil {
			return nil, err
		}
	}

	return retry.Do(ctx, "delete acls", a.policy, aclsStrategy,
		func(ctx context.Context, _ retry.Attempt) ([]DeletedACLFilterResult, error) {
			if err := a.cluster.RefreshMetadata(ctx); err != nil {
				return nil, err
			}
			controller, err := a.cluster.Controller()
			if err != nil {
				return nil, err
			}

			req := kmsg.NewPtrDeleteACLsRequest()
			for _, f := range filters {
				rf := kmsg.NewDeleteACLsRequestFilter()
				rf.ResourceType = f.ResourceType
				rf.ResourceName = f.ResourceName
				rf.ResourcePatternType = f.ResourcePatternType
				rf.Principal = f.Principal
				rf.Host = f.Host
				rf.Operation = f.Operation
				rf.PermissionType = f.PermissionType
				req.Filters = append(req.Filters, rf)
			}

			resp, err := controller.Request(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("delete acls: %w", err)
			}
			dresp := resp.(*kmsg.DeleteACLsResponse)

			out := make([]DeletedACLFilterResult, 0, len(dresp.Results))
			for _, r := range dresp.Results {
				if err := kerr.ErrorForCode(r.ErrorCode); err != nil {
					return nil, fmt.Errorf("delete acls: %w", err)
				}
				result := DeletedACLFilterResult{
					ErrorCode:    r.ErrorCode,
					ErrorMessage: r.ErrorMessage,
				}
				for _, m := range r.MatchingACLs {
					result.Matched = append(result.Matched, DeletedACL{
						ErrorCode:           m.ErrorCode,
						ErrorMessage:        m.ErrorMessage,
						ResourceType:        m.ResourceType,
						ResourceName:        m.ResourceName,
						ResourcePatternType: m.ResourcePatternType,
						Principal:           m.Principal,
						Host:                m.Host,
						Operation:           m.Operation,
						PermissionType:      m.PermissionType,
					})
				}
				out = append(out, result)
			}
			return out, nil
		})
}
