package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/ppiankov/kafkadmin/internal/admin"
	"github.com/ppiankov/kafkadmin/internal/render"
)

func newACLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acls",
		Short: "Create, describe, and delete access-control entries",
	}

	cmd.AddCommand(newACLsCreateCmd())
	cmd.AddCommand(newACLsDescribeCmd())
	cmd.AddCommand(newACLsDeleteCmd())

	return cmd
}

// aclFlags are the shared entry/filter flags of the acls subcommands.
type aclFlags struct {
	resourceType   string
	resourceName   string
	patternType    string
	principal      string
	host           string
	operation      string
	permissionType string
}

func addACLFlags(cmd *cobra.Command, f *aclFlags, filter bool) {
	flags := cmd.Flags()
	flags.StringVar(&f.resourceType, "resource-type", "", "Resource type (any|topic|group|cluster|transactional-id|delegation-token|user)")
	flags.StringVar(&f.resourceName, "resource-name", "", "Resource name")
	flags.StringVar(&f.patternType, "pattern-type", "literal", "Resource pattern type (any|match|literal|prefixed)")
	flags.StringVar(&f.principal, "principal", "", "Principal (for example User:alice)")
	flags.StringVar(&f.host, "host", "*", "Host the entry applies to")
	flags.StringVar(&f.operation, "operation", "", "Operation (any|all|read|write|create|delete|alter|describe|cluster-action|describe-configs|alter-configs|idempotent-write)")
	flags.StringVar(&f.permissionType, "permission-type", "allow", "Permission type (any|allow|deny)")
	if filter {
		// Filters treat an omitted string as "match everything".
		flags.Lookup("host").DefValue = ""
		f.host = ""
		flags.Lookup("pattern-type").DefValue = "any"
		f.patternType = "any"
		flags.Lookup("permission-type").DefValue = "any"
		f.permissionType = "any"
	}
}

func parseACLResourceType(s string) (kmsg.ACLResourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any":
		return kmsg.ACLResourceTypeAny, nil
	case "topic":
		return kmsg.ACLResourceTypeTopic, nil
	case "group":
		return kmsg.ACLResourceTypeGroup, nil
	case "cluster":
		return kmsg.ACLResourceTypeCluster, nil
	case "transactional-id":
		return kmsg.ACLResourceTypeTransactionalId, nil
	case "delegation-token":
		return kmsg.ACLResourceTypeDelegationToken, nil
	case "user":
		return kmsg.ACLResourceTypeUser, nil
	default:
		return 0, fmt.Errorf("invalid resource type %q", s)
	}
}

func parseACLPatternType(s string) (kmsg.ACLResourcePatternType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any":
		return kmsg.ACLResourcePatternTypeAny, nil
	case "match":
		return kmsg.ACLResourcePatternTypeMatch, nil
	case "literal":
		return kmsg.ACLResourcePatternTypeLiteral, nil
	case "prefixed":
		return kmsg.ACLResourcePatternTypePrefixed, nil
	default:
		return 0, fmt.Errorf("invalid pattern type %q", s)
	}
}

func parseACLOperation(s string) (kmsg.ACLOperation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any":
		return kmsg.ACLOperationAny, nil
	case "all":
		return kmsg.ACLOperationAll, nil
	case "read":
		return kmsg.ACLOperationRead, nil
	case "write":
		return kmsg.ACLOperationWrite, nil
	case "create":
		return kmsg.ACLOperationCreate, nil
	case "delete":
		return kmsg.ACLOperationDelete, nil
	case "alter":
		return kmsg.ACLOperationAlter, nil
	case "describe":
		return kmsg.ACLOperationDescribe, nil
	case "cluster-action":
		return kmsg.ACLOperationClusterAction, nil
	case "describe-configs":
		return kmsg.ACLOperationDescribeConfigs, nil
	case "alter-configs":
		return kmsg.ACLOperationAlterConfigs, nil
	case "idempotent-write":
		return kmsg.ACLOperationIdempotentWrite, nil
	default:
		return 0, fmt.Errorf("invalid ACL operation %q", s)
	}
}

func parseACLPermissionType(s string) (kmsg.ACLPermissionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any":
		return kmsg.ACLPermissionTypeAny, nil
	case "allow":
		return kmsg.ACLPermissionTypeAllow, nil
	case "deny":
		return kmsg.ACLPermissionTypeDeny, nil
	default:
		return 0, fmt.Errorf("invalid permission type %q", s)
	}
}

func buildACL(f aclFlags) (admin.ACL, error) {
	rt, err := parseACLResourceType(f.resourceType)
	if err != nil {
		return admin.ACL{}, err
	}
	pt, err := parseACLPatternType(f.patternType)
	if err != nil {
		return admin.ACL{}, err
	}
	op, err := parseACLOperation(f.operation)
	if err != nil {
		return admin.ACL{}, err
	}
	perm, err := parseACLPermissionType(f.permissionType)
	if err != nil {
		return admin.ACL{}, err
	}
	return admin.ACL{
		ResourceType:        rt,
		ResourceName:        f.resourceName,
		ResourcePatternType: pt,
		Principal:           f.principal,
		Host:                f.host,
		Operation:           op,
		PermissionType:      perm,
	}, nil
}

func buildACLFilter(f aclFlags) (admin.ACLFilter, error) {
	rt, err := parseACLResourceType(f.resourceType)
	if err != nil {
		return admin.ACLFilter{}, err
	}
	pt, err := parseACLPatternType(f.patternType)
	if err != nil {
		return admin.ACLFilter{}, err
	}
	op, err := parseACLOperation(f.operation)
	if err != nil {
		return admin.ACLFilter{}, err
	}
	perm, err := parseACLPermissionType(f.permissionType)
	if err != nil {
		return admin.ACLFilter{}, err
	}

	filter := admin.ACLFilter{
		ResourceType:        rt,
		ResourcePatternType: pt,
		Operation:           op,
		PermissionType:      perm,
	}
	if f.resourceName != "" {
		filter.ResourceName = &f.resourceName
	}
	if f.principal != "" {
		filter.Principal = &f.principal
	}
	if f.host != "" {
		filter.Host = &f.host
	}
	return filter, nil
}

func newACLsCreateCmd() *cobra.Command {
	var opts connectionOptions
	var f aclFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an access-control entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acl, err := buildACL(f)
			if err != nil {
				return err
			}
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				if _, err := a.CreateACLs(ctx, []admin.ACL{acl}); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "acl created")
				return err
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	addACLFlags(cmd, &f, false)
	for _, name := range []string{"resource-type", "resource-name", "principal", "operation"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	return cmd
}

func newACLsDescribeCmd() *cobra.Command {
	var opts connectionOptions
	var f aclFlags

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "List access-control entries matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.resourceType == "" {
				f.resourceType = "any"
			}
			if f.operation == "" {
				f.operation = "any"
			}
			filter, err := buildACLFilter(f)
			if err != nil {
				return err
			}
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				resources, err := a.DescribeACLs(ctx, filter)
				if err != nil {
					return err
				}
				format, err := render.ParseFormat(opts.output)
				if err != nil {
					return err
				}
				if format == render.FormatJSON {
					return render.NewJSONRenderer(cmd.OutOrStdout(), true).Render(resources)
				}
				return render.NewTextRenderer(cmd.OutOrStdout()).ACLResources(resources)
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	addACLFlags(cmd, &f, true)
	return cmd
}

func newACLsDeleteCmd() *cobra.Command {
	var opts connectionOptions
	var f aclFlags

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete access-control entries matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.resourceType == "" {
				f.resourceType = "any"
			}
			if f.operation == "" {
				f.operation = "any"
			}
			filter, err := buildACLFilter(f)
			if err != nil {
				return err
			}
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				results, err := a.DeleteACLs(ctx, []admin.ACLFilter{filter})
				if err != nil {
					return err
				}
				format, err := render.ParseFormat(opts.output)
				if err != nil {
					return err
				}
				if format == render.FormatJSON {
					return render.NewJSONRenderer(cmd.OutOrStdout(), true).Render(results)
				}
				return render.NewTextRenderer(cmd.OutOrStdout()).DeletedACLs(results)
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	addACLFlags(cmd, &f, true)
	return cmd
}
