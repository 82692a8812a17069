package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"collectord/internal/daemon"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the background processing daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := ctx.buildServices()
			if err != nil {
				return err
			}

			d, err := daemon.New(svcs.cfg, svcs.store, svcs.manager, svcs.logger)
			if err != nil {
				svcs.store.Close()
				return err
			}
			defer d.Close()

			runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(runCtx); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}

			<-runCtx.Done()
			d.Stop()
			return nil
		},
	}
}
