package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newJournalCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the local run journal",
	}
	cmd.AddCommand(newJournalListCmd(opts))
	return cmd
}

func newJournalListCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent outcome records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.journal == "" {
				return errors.New("no journal configured: use --journal, DUOCTL_JOURNAL, or a profile")
			}
			j, err := opts.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()

			entries, err := j.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), entries)
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.CreatedAt.Format("2006-01-02 15:04:05"),
					string(e.Kind),
					e.Tenant,
					string(e.State),
					e.Mode,
					e.Verdict.String(),
					string(e.Operation),
					e.Error,
				})
			}
			if err := printTable(cmd.OutOrStdout(), []string{"TIME", "KIND", "TENANT", "STATE", "MODE", "VERDICT", "OPERATION", "ERROR"}, rows); err != nil {
				return err
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No journal entries.")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries to show")

	return cmd
}
