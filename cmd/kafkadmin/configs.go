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

func newConfigsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "Describe and alter resource configuration",
	}

	cmd.AddCommand(newConfigsDescribeCmd())
	cmd.AddCommand(newConfigsAlterCmd())

	return cmd
}

func parseConfigResourceType(s string) (kmsg.ConfigResourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "topic":
		return kmsg.ConfigResourceTypeTopic, nil
	case "broker":
		return kmsg.ConfigResourceTypeBroker, nil
	case "broker-logger":
		return kmsg.ConfigResourceTypeBrokerLogger, nil
	default:
		return 0, fmt.Errorf("invalid resource type %q (expected topic, broker, or broker-logger)", s)
	}
}

func newConfigsDescribeCmd() *cobra.Command {
	var opts connectionOptions
	var resourceType string
	var configNames []string
	var includeSynonyms bool

	cmd := &cobra.Command{
		Use:   "describe <resource>...",
		Short: "Describe configuration of resources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := parseConfigResourceType(resourceType)
			if err != nil {
				return err
			}
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				resources := make([]admin.ConfigResource, 0, len(args))
				for _, name := range args {
					resources = append(resources, admin.ConfigResource{
						Type:        rt,
						Name:        name,
						ConfigNames: configNames,
					})
				}
				described, err := a.DescribeConfigs(ctx, resources, includeSynonyms)
				if err != nil {
					return err
				}
				format, err := render.ParseFormat(opts.output)
				if err != nil {
					return err
				}
				if format == render.FormatJSON {
					return render.NewJSONRenderer(cmd.OutOrStdout(), true).Render(described)
				}
				return render.NewTextRenderer(cmd.OutOrStdout()).Configs(described)
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	flags := cmd.Flags()
	flags.StringVar(&resourceType, "resource-type", "topic", "Resource type (topic|broker|broker-logger)")
	flags.StringSliceVar(&configNames, "name", nil, "Config key to describe (repeatable; all keys when omitted)")
	flags.BoolVar(&includeSynonyms, "include-synonyms", false, "Include config synonyms in the response")

	return cmd
}

func newConfigsAlterCmd() *cobra.Command {
	var opts connectionOptions
	var resourceType string
	var entries map[string]string
	var validateOnly bool

	cmd := &cobra.Command{
		Use:   "alter <resource>...",
		Short: "Apply configuration to resources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := parseConfigResourceType(resourceType)
			if err != nil {
				return err
			}
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				configEntries := make([]admin.ConfigEntry, 0, len(entries))
				for k, v := range entries {
					configEntries = append(configEntries, admin.ConfigEntry{Name: k, Value: v})
				}

				resources := make([]admin.AlterConfigResource, 0, len(args))
				for _, name := range args {
					resources = append(resources, admin.AlterConfigResource{
						Type:    rt,
						Name:    name,
						Entries: configEntries,
					})
				}

				altered, err := a.AlterConfigs(ctx, resources, validateOnly)
				if err != nil {
					return err
				}
				for _, res := range altered {
					if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s altered\n", res.Name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	flags := cmd.Flags()
	flags.StringVar(&resourceType, "resource-type", "topic", "Resource type (topic|broker|broker-logger)")
	flags.StringToStringVar(&entries, "set", nil, "Config entry to apply (repeatable, key=value)")
	flags.BoolVar(&validateOnly, "validate-only", false, "Validate the request without applying it")
	if err := cmd.MarkFlagRequired("set"); err != nil {
		panic(err)
	}

	return cmd
}
