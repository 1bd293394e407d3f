package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ppiankov/kafkadmin/internal/admin"
	"github.com/ppiankov/kafkadmin/internal/render"
)

func newGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List and delete consumer groups",
	}

	cmd.AddCommand(newGroupsListCmd())
	cmd.AddCommand(newGroupsDeleteCmd())

	return cmd
}

func newGroupsListCmd() *cobra.Command {
	var opts connectionOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every consumer group in the cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				groups, err := a.ListGroups(ctx)
				if err != nil {
					return err
				}
				format, err := render.ParseFormat(opts.output)
				if err != nil {
					return err
				}
				if format == render.FormatJSON {
					return render.NewJSONRenderer(cmd.OutOrStdout(), true).Render(groups)
				}
				return render.NewTextRenderer(cmd.OutOrStdout()).Groups(groups)
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	return cmd
}

func newGroupsDeleteCmd() *cobra.Command {
	var opts connectionOptions

	cmd := &cobra.Command{
		Use:   "delete <group>...",
		Short: "Delete consumer groups",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				results, err := a.DeleteGroups(ctx, args)

				// Exhausted retries still report every group's outcome.
				var dge *admin.DeleteGroupsError
				if errors.As(err, &dge) {
					partial := append(append([]admin.DeleteGroupResult(nil), dge.Completed...), dge.Failed...)
					renderErr := render.NewTextRenderer(cmd.OutOrStdout()).DeleteGroupResults(partial)
					if renderErr != nil {
						return renderErr
					}
					return err
				}
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
				return render.NewTextRenderer(cmd.OutOrStdout()).DeleteGroupResults(results)
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	return cmd
}
