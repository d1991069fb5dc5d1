package cli

import (
	"github.com/spf13/cobra"

	"duoctl/internal/domain"
	"duoctl/internal/reconcile"
)

func newSettingsCmd(opts *globalOptions) *cobra.Command {
	var (
		tenant string
		state  string
		s      domain.Settings
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Converge account settings in the parent or a child account",
		Long: "Sends only the settings whose flags were given and whose values differ from the remote account. " +
			"Zero values such as 0, false, or an empty string are treated as not declared.",
		Example: `  duoctl settings --tenant Acme --timezone Europe/Berlin
  duoctl settings --tenant Acme --state query -o json`,
		Args: cobra.NoArgs,
	}

	o := newOptionalFlags(cmd.Flags())
	o.Int(&s.LockoutThreshold, "lockout-threshold", "Failed attempts before lockout")
	o.Int(&s.LockoutExpireDuration, "lockout-expire-duration", "Minutes until a lockout expires")
	o.Int(&s.InactiveUserExpiration, "inactive-user-expiration", "Days before inactive users are removed")
	o.Int(&s.SMSBatch, "sms-batch", "Passcodes sent per SMS")
	o.Int(&s.SMSExpiration, "sms-expiration", "Minutes until SMS passcodes expire")
	o.Bool(&s.SMSRefresh, "sms-refresh", "Send new passcodes after one is used")
	o.String(&s.SMSMessage, "sms-message", "SMS passcode message text")
	o.String(&s.FraudEmail, "fraud-email", "Address notified of fraudulent logins")
	o.Bool(&s.FraudEmailEnabled, "fraud-email-enabled", "Notify fraud_email of fraudulent logins")
	o.String(&s.KeypressConfirm, "keypress-confirm", "Key to confirm a phone callback")
	o.String(&s.KeypressFraud, "keypress-fraud", "Key to report fraud on a phone callback")
	o.String(&s.Timezone, "timezone", "Account timezone, e.g. Europe/Berlin")
	o.Int(&s.TelephonyWarningMin, "telephony-warning-min", "Telephony credit warning threshold")
	o.String(&s.CallerID, "caller-id", "Caller ID for phone callbacks")
	o.Bool(&s.PushEnabled, "push-enabled", "Allow push authentication")
	o.Bool(&s.SMSEnabled, "sms-enabled", "Allow SMS passcodes")
	o.Bool(&s.VoiceEnabled, "voice-enabled", "Allow phone callbacks")
	o.Bool(&s.MobileOTPEnabled, "mobile-otp-enabled", "Allow mobile passcodes")
	o.Bool(&s.U2FEnabled, "u2f-enabled", "Allow U2F security keys")
	o.Int(&s.UserTelephonyCostMax, "user-telephony-cost-max", "Maximum telephony credits per user")
	o.Int(&s.MinimumPasswordLength, "minimum-password-length", "Minimum password length")
	o.Bool(&s.PasswordRequiresUpperAlpha, "password-requires-upper-alpha", "Require an uppercase letter")
	o.Bool(&s.PasswordRequiresLowerAlpha, "password-requires-lower-alpha", "Require a lowercase letter")
	o.Bool(&s.PasswordRequiresNumeric, "password-requires-numeric", "Require a digit")
	o.Bool(&s.PasswordRequiresSpecial, "password-requires-special", "Require a special character")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		st, err := parseStateFlag(domain.KindSettings, state)
		if err != nil {
			return err
		}
		o.Apply()
		return runReconcile(cmd, opts, reconcile.Request{
			Tenant:  tenant,
			State:   st,
			Mode:    opts.mode(),
			Desired: s,
		})
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Child account name to operate in")
	cmd.Flags().StringVar(&state, "state", string(domain.StatePresent), "Desired state (present, query)")

	return cmd
}
