package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"immerseforge-site/pkg/config"
	"immerseforge-site/pkg/models"
	"immerseforge-site/pkg/storage"
)

func newSubmissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "Inspect the submissions ledger",
	}
	cmd.AddCommand(newSubmissionsListCmd())
	return cmd
}

func newSubmissionsListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded submissions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.SubmissionsDBPath == "" {
				return fmt.Errorf("SUBMISSIONS_DB_PATH is not set")
			}

			store, err := storage.Open(cfg.SubmissionsDBPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			subs, err := store.List(cmd.Context(), models.SubmissionStatus(status), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tKIND\tSTATUS\tPOSITION\tNOTION PAGE\tERROR\tID")
			for _, s := range subs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					s.CreatedAt.Format(time.RFC3339), s.Kind, s.Status, s.Position, s.NotionPageID, s.LastError, s.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only show rows with this status (relayed, relay_failed, not_configured)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to print")
	return cmd
}
