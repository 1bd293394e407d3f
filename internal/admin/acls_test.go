package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
)

func validACL() ACL {
	return ACL{
		ResourceType:        kmsg.ACLResourceTypeTopic,
		ResourceName:        "orders",
		ResourcePatternType: kmsg.ACLResourcePatternTypeLiteral,
		Principal:           "User:alice",
		Host:                "*",
		Operation:           kmsg.ACLOperationRead,
		PermissionType:      kmsg.ACLPermissionTypeAllow,
	}
}

func TestCreateACLsValidationPrecedence(t *testing.T) {
	mutate := func(f func(*ACL)) []ACL {
		a := validACL()
		f(&a)
		return []ACL{a}
	}

	// One entry violating everything at once must report principal first,
	// then each later rule as the earlier ones are satisfied.
	cases := []struct {
		name  string
		acls  []ACL
		field string
	}{
		{name: "empty-batch", acls: nil, field: "acl"},
		{name: "all-invalid", acls: []ACL{{}}, field: "principal"},
		{name: "host-next", acls: mutate(func(a *ACL) {
			a.Host = ""
			a.ResourceName = ""
			a.Operation = kmsg.ACLOperation(99)
		}), field: "host"},
		{name: "resource-name-next", acls: mutate(func(a *ACL) {
			a.ResourceName = ""
			a.Operation = kmsg.ACLOperation(99)
		}), field: "resourceName"},
		{name: "operation-next", acls: mutate(func(a *ACL) {
			a.Operation = kmsg.ACLOperation(99)
			a.ResourcePatternType = kmsg.ACLResourcePatternType(99)
		}), field: "operation"},
		{name: "pattern-type-next", acls: mutate(func(a *ACL) {
			a.ResourcePatternType = kmsg.ACLResourcePatternType(99)
			a.PermissionType = kmsg.ACLPermissionType(99)
		}), field: "resourcePatternType"},
		{name: "permission-type-next", acls: mutate(func(a *ACL) {
			a.PermissionType = kmsg.ACLPermissionType(99)
			a.ResourceType = kmsg.ACLResourceType(99)
		}), field: "permissionType"},
		{name: "resource-type-last", acls: mutate(func(a *ACL) {
			a.ResourceType = kmsg.ACLResourceType(99)
		}), field: "resourceType"},
		{name: "second-entry-invalid", acls: []ACL{validACL(), {}}, field: "principal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := newFakeCluster()
			controller := &fakeBroker{id: 1}
			fc.controller = controller
			a := New(fc, fastOptions())

			_, err := a.CreateACLs(context.Background(), tc.acls)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("violated field = %q, want %q", verr.Field, tc.field)
			}
			if controller.requestCount() != 0 {
				t.Fatalf("an invalid batch must never reach the network, saw %d requests", controller.requestCount())
			}
		})
	}
}

func TestCreateACLsSuccess(t *testing.T) {
	fc := newFakeCluster()
	controller := &fakeBroker{id: 1}
	controller.handler = func(req kmsg.Request) (kmsg.Response, error) {
		creq := req.(*kmsg.CreateACLsRequest)
		resp := kmsg.NewPtrCreateACLsResponse()
		for range creq.Creations {
			resp.Results = append(resp.Results, kmsg.NewCreateACLsResponseResult())
		}
		return resp, nil
	}
	fc.controller = controller
	a := New(fc, fastOptions())

	ok, err := a.CreateACLs(context.Background(), []ACL{validACL()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("ok = false, want true")
	}
}

func TestCreateACLsSurfacesPerEntryError(t *testing.T) {
	fc := newFakeCluster()
	controller := &fakeBroker{id: 1}
	controller.handler = func(req kmsg.Request) (kmsg.Response, error) {
		resp := kmsg.NewPtrCreateACLsResponse()
		r := kmsg.NewCreateACLsResponseResult()
		r.ErrorCode = kerr.ClusterAuthorizationFailed.Code
		resp.Results = append(resp.Results, r)
		return resp, nil
	}
	fc.controller = controller
	a := New(fc, fastOptions())

	_, err := a.CreateACLs(context.Background(), []ACL{validACL()})
	if !errors.Is(err, kerr.ClusterAuthorizationFailed) {
		t.Fatalf("error = %v, want ClusterAuthorizationFailed", err)
	}
}

func TestDescribeACLsGroupsByResource(t *testing.T) {
	fc := newFakeCluster()
	controller := &fakeBroker{id: 1}
	controller.handler = func(req kmsg.Request) (kmsg.Response, error) {
		resp := kmsg.NewPtrDescribeACLsResponse()
		r := kmsg.NewDescribeACLsResponseResource()
		r.ResourceType = kmsg.ACLResourceTypeTopic
		r.ResourceName = "orders"
		r.ResourcePatternType = kmsg.ACLResourcePatternTypeLiteral
		for _, principal := range []string{"User:alice", "User:bob"} {
			e := kmsg.NewDescribeACLsResponseResourceACL()
			e.Principal = principal
			e.Host = "*"
			e.Operation = kmsg.ACLOperationRead
			e.PermissionType = kmsg.ACLPermissionTypeAllow
			r.ACLs = append(r.ACLs, e)
		}
		resp.Resources = append(resp.Resources, r)
		return resp, nil
	}
	fc.controller = controller
	a := New(fc, fastOptions())

	name := "orders"
	resources, err := a.DescribeACLs(context.Background(), ACLFilter{
		ResourceType:        kmsg.ACLResourceTypeTopic,
		ResourceName:        &name,
		ResourcePatternType: kmsg.ACLResourcePatternTypeLiteral,
		Operation:           kmsg.ACLOperationAny,
		PermissionType:      kmsg.ACLPermissionTypeAny,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resources) != 1 || len(resources[0].ACLs) != 2 {
		t.Fatalf("resources = %+v, want one resource with two entries", resources)
	}
	if resources[0].ACLs[0].Principal != "User:alice" {
		t.Fatalf("entry order must follow the response, got %+v", resources[0].ACLs)
	}
}

func TestDescribeACLsRejectsEmptyFilterString(t *testing.T) {
	a := New(newFakeCluster(), fastOptions())

	empty := ""
	_, err := a.DescribeACLs(context.Background(), ACLFilter{
		ResourceType:        kmsg.ACLResourceTypeAny,
		Principal:           &empty,
		ResourcePatternType: kmsg.ACLResourcePatternTypeAny,
		Operation:           kmsg.ACLOperationAny,
		PermissionType:      kmsg.ACLPermissionTypeAny,
	})

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "principal" {
		t.Fatalf("error = %v, want principal ValidationError", err)
	}
}

func TestDeleteACLsReturnsMatchesPerFilter(t *testing.T) {
	fc := newFakeCluster()
	controller := &fakeBroker{id: 1}
	controller.handler = func(req kmsg.Request) (kmsg.Response, error) {
		dreq := req.(*kmsg.DeleteACLsRequest)
		resp := kmsg.NewPtrDeleteACLsResponse()
		for range dreq.Filters {
			r := kmsg.NewDeleteACLsResponseResult()
			m := kmsg.NewDeleteACLsResponseResultMatchingACL()
			m.ResourceType = kmsg.ACLResourceTypeTopic
			m.ResourceName = "orders"
			m.ResourcePatternType = kmsg.ACLResourcePatternTypeLiteral
			m.Principal = "User:alice"
			m.Host = "*"
			m.Operation = kmsg.ACLOperationRead
			m.PermissionType = kmsg.ACLPermissionTypeAllow
			r.MatchingACLs = append(r.MatchingACLs, m)
			resp.Results = append(resp.Results, r)
		}
		return resp, nil
	}
	fc.controller = controller
	a := New(fc, fastOptions())

	name := "orders"
	results, err := a.DeleteACLs(context.Background(), []ACLFilter{{
		ResourceType:        kmsg.ACLResourceTypeTopic,
		ResourceName:        &name,
		ResourcePatternType: kmsg.ACLResourcePatternTypeLiteral,
		Operation:           kmsg.ACLOperationAny,
		PermissionType:      kmsg.ACLPermissionTypeAny,
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || len(results[0].Matched) != 1 {
		t.Fatalf("results = %+v, want one filter with one match", results)
	}
	if results[0].Matched[0].Principal != "User:alice" {
		t.Fatalf("match = %+v", results[0].Matched[0])
	}
}

func TestDeleteACLsRequiresFilters(t *testing.T) {
	a := New(newFakeCluster(), fastOptions())
	_, err := a.DeleteACLs(context.Background(), nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}
