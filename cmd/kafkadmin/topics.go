package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/kafkadmin/internal/admin"
	"github.com/ppiankov/kafkadmin/internal/render"
)

func newTopicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Create, delete, grow, and inspect topics",
	}

	cmd.AddCommand(newTopicsListCmd())
	cmd.AddCommand(newTopicsDescribeCmd())
	cmd.AddCommand(newTopicsCreateCmd())
	cmd.AddCommand(newTopicsDeleteCmd())
	cmd.AddCommand(newTopicsPartitionsCmd())

	return cmd
}

func newTopicsListCmd() *cobra.Command {
	var opts connectionOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every topic in the cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				names, err := a.ListTopics(ctx)
				if err != nil {
					return err
				}
				format, err := render.ParseFormat(opts.output)
				if err != nil {
					return err
				}
				if format == render.FormatJSON {
					return render.NewJSONRenderer(cmd.OutOrStdout(), true).Render(names)
				}
				return render.NewTextRenderer(cmd.OutOrStdout()).TopicNames(names)
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	return cmd
}

func newTopicsDescribeCmd() *cobra.Command {
	var opts connectionOptions

	cmd := &cobra.Command{
		Use:   "describe [topic...]",
		Short: "Show partition layout for topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				topics, err := a.FetchTopicMetadata(ctx, args)
				if err != nil {
					return err
				}
				format, err := render.ParseFormat(opts.output)
				if err != nil {
					return err
				}
				if format == render.FormatJSON {
					return render.NewJSONRenderer(cmd.OutOrStdout(), true).Render(topics)
				}
				return render.NewTextRenderer(cmd.OutOrStdout()).TopicMetadata(topics)
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	return cmd
}

func newTopicsCreateCmd() *cobra.Command {
	var opts connectionOptions
	var partitions int32
	var replicationFactor int16
	var configs map[string]string
	var validateOnly bool
	var noWaitForLeaders bool

	cmd := &cobra.Command{
		Use:   "create <topic>...",
		Short: "Create topics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				specs := make([]admin.TopicSpec, 0, len(args))
				for _, name := range args {
					spec := admin.TopicSpec{
						Topic:             name,
						NumPartitions:     partitions,
						ReplicationFactor: replicationFactor,
					}
					if len(configs) > 0 {
						spec.Configs = make(map[string]*string, len(configs))
						for k, v := range configs {
							value := v
							spec.Configs[k] = &value
						}
					}
					specs = append(specs, spec)
				}

				createOpts := admin.CreateTopicsOptions{
					ValidateOnly: validateOnly,
					Timeout:      opts.timeout,
				}
				if noWaitForLeaders {
					wait := false
					createOpts.WaitForLeaders = &wait
				}

				created, err := a.CreateTopics(ctx, specs, createOpts)
				if err != nil {
					return err
				}
				if !created {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "topics already exist")
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "topics created")
				return err
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	flags := cmd.Flags()
	flags.Int32Var(&partitions, "partitions", 0, "Partition count (0 uses the broker default)")
	flags.Int16Var(&replicationFactor, "replication-factor", 0, "Replication factor (0 uses the broker default)")
	flags.StringToStringVar(&configs, "config", nil, "Topic config entry (repeatable, key=value)")
	flags.BoolVar(&validateOnly, "validate-only", false, "Validate the request without creating anything")
	flags.BoolVar(&noWaitForLeaders, "no-wait-for-leaders", false, "Return without waiting for partition leaders")

	return cmd
}

func newTopicsDeleteCmd() *cobra.Command {
	var opts connectionOptions

	cmd := &cobra.Command{
		Use:   "delete <topic>...",
		Short: "Delete topics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				if err := a.DeleteTopics(ctx, args, opts.timeout); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "topics deleted")
				return err
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	return cmd
}

func newTopicsPartitionsCmd() *cobra.Command {
	var opts connectionOptions
	var count int32
	var validateOnly bool

	cmd := &cobra.Command{
		Use:   "partitions <topic>...",
		Short: "Grow topics to a partition count",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				updates := make([]admin.PartitionUpdate, 0, len(args))
				for _, name := range args {
					updates = append(updates, admin.PartitionUpdate{Topic: name, Count: count})
				}
				if err := a.CreatePartitions(ctx, updates, validateOnly, opts.timeout); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "partitions updated")
				return err
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	flags := cmd.Flags()
	flags.Int32Var(&count, "count", 0, "Target partition count")
	flags.BoolVar(&validateOnly, "validate-only", false, "Validate the request without applying it")
	if err := cmd.MarkFlagRequired("count"); err != nil {
		panic(err)
	}

	return cmd
}
