package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ppiankov/kafkadmin/internal/admin"
	"github.com/ppiankov/kafkadmin/internal/render"
)

func newClusterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Inspect the cluster",
	}

	cmd.AddCommand(newClusterDescribeCmd())

	return cmd
}

func newClusterDescribeCmd() *cobra.Command {
	var opts connectionOptions

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show brokers, controller, and cluster id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, a *admin.Admin) error {
				desc, err := a.DescribeCluster(ctx)
				if err != nil {
					return err
				}
				format, err := render.ParseFormat(opts.output)
				if err != nil {
					return err
				}
				if format == render.FormatJSON {
					return render.NewJSONRenderer(cmd.OutOrStdout(), true).Render(desc)
				}
				return render.NewTextRenderer(cmd.OutOrStdout()).Cluster(desc)
			})
		},
	}

	addConnectionFlags(cmd, &opts)
	return cmd
}
