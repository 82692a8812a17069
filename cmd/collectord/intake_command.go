package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"collectord/internal/bot"
	"collectord/internal/intake"
)

// stdoutTransport prints bot replies to the command's output. It lets the
// intake conversation be exercised without a chat platform attached.
type stdoutTransport struct {
	cmd *cobra.Command
}

func (t stdoutTransport) Send(_ context.Context, _ int64, text string) error {
	_, err := fmt.Fprintln(t.cmd.OutOrStdout(), text)
	return err
}

func newIntakeCommand(ctx *commandContext) *cobra.Command {
	var submitterID int64
	var submitterName string

	cmd := &cobra.Command{
		Use:   "intake [message]",
		Short: "Feed intake messages interactively or from arguments",
		Long: `Feed messages to the intake collector as the given submitter.
With a message argument, handles that single message. Without one, reads
messages from stdin until EOF.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := ctx.buildServices()
			if err != nil {
				return err
			}
			defer svcs.store.Close()

			resolver, err := ctx.dateResolver()
			if err != nil {
				return err
			}
			collector := intake.NewCollector(svcs.store, resolver, svcs.logger)
			router := bot.NewRouter(collector, stdoutTransport{cmd: cmd}, svcs.logger)

			handle := func(text string) error {
				return router.Handle(cmd.Context(), bot.Message{
					SubmitterID:   submitterID,
					SubmitterName: submitterName,
					Text:          text,
				})
			}

			if len(args) > 0 {
				return handle(strings.Join(args, " "))
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := handle(line); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().Int64Var(&submitterID, "submitter", 1, "Submitter id to act as")
	cmd.Flags().StringVar(&submitterName, "name", "operator", "Submitter name to record")

	return cmd
}
