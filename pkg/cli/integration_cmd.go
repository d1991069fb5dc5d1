package cli

import (
	"github.com/spf13/cobra"

	"duoctl/internal/domain"
	"duoctl/internal/reconcile"
)

func newIntegrationCmd(opts *globalOptions) *cobra.Command {
	var (
		tenant string
		state  string
		in     domain.Integration
	)

	cmd := &cobra.Command{
		Use:   "integration",
		Short: "Manage an integration in the parent or a child account",
		Example: `  duoctl integration --tenant Acme --app-name "Web SSO" --app-type websdk
  duoctl integration --tenant Acme --app-ikey DIXXXXXXXXXXXXXXXXXX --self-service-allowed
  duoctl integration --app-ikey DIXXXXXXXXXXXXXXXXXX --state absent`,
		Args: cobra.NoArgs,
	}

	optional := newOptionalFlags(cmd.Flags())
	optional.String(&in.Name, "app-name", "Integration name")
	optional.String(&in.Type, "app-type", "Integration type, e.g. websdk or adminapi")
	optional.Bool(&in.SelfServiceAllowed, "self-service-allowed", "Allow users to manage their own devices")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		st, err := parseStateFlag(domain.KindIntegration, state)
		if err != nil {
			return err
		}
		optional.Apply()
		return runReconcile(cmd, opts, reconcile.Request{
			Tenant:  tenant,
			State:   st,
			Mode:    opts.mode(),
			Desired: in,
		})
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Child account name to operate in")
	cmd.Flags().StringVar(&in.IKey, "app-ikey", "", "Integration key of an existing integration")
	cmd.Flags().StringVar(&state, "state", string(domain.StatePresent), "Desired state (present, absent, query)")

	return cmd
}
