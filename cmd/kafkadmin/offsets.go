package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/kafkadmin/internal/admin"
	"github.com/ppiankov/kafkadmin/internal/render"
)

func newOffsetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offsets",
		Short: "Inspect and reposition consumer group offsets",
	}

	cmd.AddCommand(newOffsetsTopicCmd())
	cmd.AddCommand(newOffsetsFetchCmd())
	cmd.AddCommand(newOffsetsSetCmd())
	cmd.AddCommand(newOffsetsResetCmd())

	return cmd
}

func newOffsetsTopicCmd() *cobra.Command {
	var opts connectionOptions

	cmd := &cobra.Command{
		Use:   "topic <topic>",
		Short: "Show low and high watermarks per partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				offsets, err := a.FetchTopicOffsets(ctx, args[0])
				if err != nil {
					return err
				}
				format, err := render.ParseFormat(opts.output)
				if err != nil {
					return err
				}
				if format == render.FormatJSON {
					return render.NewJSONRenderer(cmd.OutOrStdout(), true).Render(offsets)
				}
				return render.NewTextRenderer(cmd.OutOrStdout()).PartitionOffsets(args[0], offsets)
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	return cmd
}

func newOffsetsFetchCmd() *cobra.Command {
	var opts connectionOptions
	var group string

	cmd := &cobra.Command{
		Use:   "fetch <topic>",
		Short: "Show a group's committed offsets for a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				offsets, err := a.FetchOffsets(ctx, group, args[0])
				if err != nil {
					return err
				}
				format, err := render.ParseFormat(opts.output)
				if err != nil {
					return err
				}
				if format == render.FormatJSON {
					return render.NewJSONRenderer(cmd.OutOrStdout(), true).Render(offsets)
				}
				return render.NewTextRenderer(cmd.OutOrStdout()).CommittedOffsets(group, args[0], offsets)
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	cmd.Flags().StringVar(&group, "group", "", "Consumer group id")
	if err := cmd.MarkFlagRequired("group"); err != nil {
		panic(err)
	}

	return cmd
}

// parseSeekTargets parses "partition=offset" pairs.
func parseSeekTargets(pairs []string) ([]admin.SeekTarget, error) {
	seeks := make([]admin.SeekTarget, 0, len(pairs))
	for _, pair := range pairs {
		partStr, offStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid seek %q (expected partition=offset)", pair)
		}
		partition, err := strconv.ParseInt(strings.TrimSpace(partStr), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid partition in seek %q: %w", pair, err)
		}
		offset, err := strconv.ParseInt(strings.TrimSpace(offStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid offset in seek %q: %w", pair, err)
		}
		seeks = append(seeks, admin.SeekTarget{Partition: int32(partition), Offset: offset})
	}
	return seeks, nil
}

func newOffsetsSetCmd() *cobra.Command {
	var opts connectionOptions
	var group string
	var seekPairs []string

	cmd := &cobra.Command{
		Use:   "set <topic>",
		Short: "Commit explicit offsets for a group",
		Long: `Commit explicit offsets for a group without consuming records.
The group must be Empty or Dead; live groups are refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seeks, err := parseSeekTargets(seekPairs)
			if err != nil {
				return err
			}
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				if err := a.SetOffsets(ctx, group, args[0], seeks); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "offsets committed")
				return err
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	flags := cmd.Flags()
	flags.StringVar(&group, "group", "", "Consumer group id")
	flags.StringSliceVar(&seekPairs, "seek", nil, "Partition offset to commit (repeatable, partition=offset)")
	for _, name := range []string{"group", "seek"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	return cmd
}

func newOffsetsResetCmd() *cobra.Command {
	var opts connectionOptions
	var group string
	var toEarliest bool

	cmd := &cobra.Command{
		Use:   "reset <topic>",
		Short: "Reset a group's offsets to the topic's earliest or latest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				if err := a.ResetOffsets(ctx, group, args[0], toEarliest); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "offsets reset")
				return err
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	flags := cmd.Flags()
	flags.StringVar(&group, "group", "", "Consumer group id")
	flags.BoolVar(&toEarliest, "to-earliest", false, "Reset to the earliest offsets instead of the latest")
	if err := cmd.MarkFlagRequired("group"); err != nil {
		panic(err)
	}

	return cmd
}
