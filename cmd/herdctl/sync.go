package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-herd-keeper/models"
)

func newStatsCmd(api func() *apiClient) *cobra.Command {
	var (
		asJSON bool
		reset  bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show sync engine statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/api/sync/stats"
			var stats models.SyncStats

			var err error
			if reset {
				err = api().post(cmd.Context(), path+"/reset", nil, &stats)
			} else {
				err = api().get(cmd.Context(), path, &stats)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	cmd.Flags().BoolVar(&reset, "reset", false, "reset the counters first")
	return cmd
}

func newSyncCmd(api func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Start a sync cycle now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp models.ActionResponse
			if err := api().post(cmd.Context(), "/api/sync/now", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successText(resp.Status))
			return nil
		},
	}
}

func newResumeCmd(api func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume syncing after a local storage failure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp models.ActionResponse
			if err := api().post(cmd.Context(), "/api/sync/resume", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successText(resp.Status))
			return nil
		},
	}
}

func newQueueCmd(api func() *apiClient) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List items waiting to be synced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var items []models.SyncItem
			if err := api().get(cmd.Context(), "/api/sync/queue", &items); err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), dimText("queue is empty"))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, headerText("OUTBOX ID\tENTITY\tTYPE\tPRIORITY\tRETRIES"))
			for _, item := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", item.OutboxID, item.EntityID, item.Type, item.Priority, item.RetryCount)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	return cmd
}

func newDeadLettersCmd(api func() *apiClient) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dead-letters",
		Short: "List items that will not be retried",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var deadLetters []models.DeadLetter
			if err := api().get(cmd.Context(), "/api/sync/dead-letters", &deadLetters); err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), deadLetters)
			}
			if len(deadLetters) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), successText("no dead letters"))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, headerText("OUTBOX ID\tENTITY\tTYPE\tKIND\tERROR"))
			for _, dl := range deadLetters {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", dl.OutboxID, dl.EntityID, dl.Type, dl.ErrorKind, errorText(dl.Error))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	return cmd
}
