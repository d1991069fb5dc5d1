package cli

import (
	"github.com/spf13/cobra"

	"duoctl/internal/domain"
	"duoctl/internal/reconcile"
)

func newEditionCmd(opts *globalOptions) *cobra.Command {
	var (
		tenant    string
		state     string
		accountID string
		edition   *string
	)

	cmd := &cobra.Command{
		Use:   "edition",
		Short: "Converge the billing edition of a child account",
		Example: `  duoctl edition --tenant Acme --edition PLATFORM
  duoctl edition --account-id DA1234567890ABCDEFGH --state query`,
		Args: cobra.NoArgs,
	}

	optional := newOptionalFlags(cmd.Flags())
	optional.String(&edition, "edition", "Billing edition (ENTERPRISE, PLATFORM, BEYOND)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		st, err := parseStateFlag(domain.KindEdition, state)
		if err != nil {
			return err
		}
		optional.Apply()
		ed := domain.Edition{AccountID: accountID}
		if edition != nil {
			ed.Edition = domain.Ptr(domain.EditionName(*edition))
		}
		return runReconcile(cmd, opts, reconcile.Request{
			Tenant:  tenant,
			State:   st,
			Mode:    opts.mode(),
			Desired: ed,
		})
	}

	cmd.Flags().StringVar(&accountID, "account-id", "", "Child account id")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Child account name, resolved to its id")
	cmd.Flags().StringVar(&state, "state", string(domain.StatePresent), "Desired state (present, query)")
	cmd.MarkFlagsOneRequired("account-id", "tenant")

	return cmd
}
