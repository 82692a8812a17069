package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Run one publishing pass over pending records",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := ctx.buildServices()
			if err != nil {
				return err
			}
			defer svcs.store.Close()

			summary, err := svcs.publisher.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d record(s), %d failed\n",
				summary.Published, summary.Failed)
			return nil
		},
	}
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Run one fulfillment pass over archived records",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := ctx.buildServices()
			if err != nil {
				return err
			}
			defer svcs.store.Close()

			summary, err := svcs.pipeline.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Fulfilled %d record(s), %d processed remotely, %d failed, %d deferred\n",
				summary.Downloaded, summary.Processed, summary.Failed, summary.Skipped)
			return nil
		},
	}
}
