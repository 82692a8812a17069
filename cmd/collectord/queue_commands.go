package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"collectord/internal/store"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage stored records",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatsCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var stageFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records by stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			stage := store.Stage(strings.ToLower(strings.TrimSpace(stageFlag)))
			if stage != store.StagePending && stage != store.StageArchived {
				return fmt.Errorf("unknown stage %q (use pending or archived)", stageFlag)
			}

			records, err := st.List(cmd.Context(), stage)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records in stage", string(stage))
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					strconv.FormatInt(record.ID, 10),
					record.SubmitterName,
					record.Category,
					record.Reference,
					record.RecordedAt.Format(store.RecordedAtLayout),
					string(record.UploadStatus),
					string(record.DownloadStatus),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Submitter", "Category", "Reference", "Date", "Upload", "Download"},
				rows, 0))
			return nil
		},
	}

	cmd.Flags().StringVarP(&stageFlag, "stage", "s", "pending", "Stage to list (pending or archived)")
	return cmd
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate record counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.Stats(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Total", strconv.Itoa(stats.Total)},
				{"Pending", strconv.Itoa(stats.Pending)},
				{"Archived", strconv.Itoa(stats.Archived)},
				{"Archived / not_downloaded", strconv.Itoa(stats.NotDownloaded)},
				{"Archived / downloaded", strconv.Itoa(stats.Downloaded)},
				{"Archived / processed", strconv.Itoa(stats.Processed)},
				{"Archived / failed", strconv.Itoa(stats.Failed)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Bucket", "Count"}, rows, 1))
			return nil
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Return failed or processed records to the fulfillment pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid record id %q", arg)
				}
				ids = append(ids, id)
			}

			reset, err := st.ResetDownloadStatus(cmd.Context(), ids...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d record(s) to not_downloaded\n", reset)
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to clear without --yes")
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			removed, err := st.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm removal of every record")
	return cmd
}
