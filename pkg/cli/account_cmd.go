package cli

import (
	"github.com/spf13/cobra"

	"duoctl/internal/domain"
	"duoctl/internal/reconcile"
)

func newAccountCmd(opts *globalOptions) *cobra.Command {
	var (
		name  string
		state string
	)

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Ensure a child account exists, is removed, or list child accounts",
		Example: `  duoctl account --name Acme
  duoctl account --name Acme --state absent
  duoctl account --state query -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := parseStateFlag(domain.KindAccount, state)
			if err != nil {
				return err
			}
			return runReconcile(cmd, opts, reconcile.Request{
				State:   st,
				Mode:    opts.mode(),
				Desired: domain.Account{Name: name},
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Child account name (exact, case-sensitive match)")
	cmd.Flags().StringVar(&state, "state", string(domain.StatePresent), "Desired state (present, absent, query)")

	return cmd
}
