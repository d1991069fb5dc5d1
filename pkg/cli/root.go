// Package cli implements the duoctl command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"duoctl/internal/adminapi"
	"duoctl/internal/config"
	"duoctl/internal/domain"
	"duoctl/internal/journal"
	"duoctl/internal/reconcile"
)

var (
	version = "dev"
	commit  = "none"
)

// exitError carries a non-default exit code. A nil err prints nothing.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	code := 1
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		if ee.err == nil {
			return code
		}
		err = ee.err
	}

	output, _ := rootCmd.PersistentFlags().GetString("output")
	if output == "json" {
		_ = printJSON(os.Stdout, errorObject(err))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return code
}

func errorObject(err error) map[string]any {
	obj := map[string]any{"error": err.Error()}
	var re *domain.ReconcileError
	if errors.As(err, &re) {
		obj["step"] = re.Step
		obj["outcome"] = re.Outcome
	}
	var apiErr *adminapi.APIError
	if errors.As(err, &apiErr) {
		obj["http_status"] = apiErr.HTTPStatus
		obj["code"] = apiErr.Code
	}
	return obj
}

// globalOptions are the resolved persistent flags.
type globalOptions struct {
	host     string
	ikey     string
	skey     string
	output   string
	profile  string
	logLevel string
	journal  string
	check    bool

	logger *slog.Logger
}

func (o *globalOptions) mode() domain.Mode {
	if o.check {
		return domain.ModeDryRun
	}
	return domain.ModeEnforce
}

// client builds an admin API client from the resolved credentials.
func (o *globalOptions) client() (*adminapi.Client, error) {
	if o.host == "" {
		return nil, errors.New("no API host configured: use --host, DUOCTL_HOST, or a profile")
	}
	if err := validateHost(o.host); err != nil {
		return nil, err
	}
	if o.ikey == "" || o.skey == "" {
		return nil, errors.New("integration and secret keys are required: use --ikey/--skey, DUOCTL_IKEY/DUOCTL_SKEY, or a profile")
	}
	return adminapi.NewClient(o.host, o.ikey, o.skey, adminapi.WithLogger(o.logger)), nil
}

func (o *globalOptions) engine() (*reconcile.Engine, error) {
	c, err := o.client()
	if err != nil {
		return nil, err
	}
	return reconcile.New(c, o.logger), nil
}

// openJournal returns nil when no journal path is configured.
func (o *globalOptions) openJournal(ctx context.Context) (*journal.Journal, error) {
	if o.journal == "" {
		return nil, nil
	}
	j, err := journal.Open(ctx, o.journal)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

// resolve applies precedence flag > env > profile > default.
func (o *globalOptions) resolve(cmd *cobra.Command) error {
	cfg, err := LoadUserConfig()
	if err != nil {
		// Config file is optional.
		cfg = defaultUserConfig()
	}
	p, err := cfg.ActiveProfile(o.profile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	for _, s := range []struct {
		flag    string
		env     string
		profile string
		target  *string
	}{
		{"host", "DUOCTL_HOST", p.Host, &o.host},
		{"ikey", "DUOCTL_IKEY", p.IKey, &o.ikey},
		{"skey", "DUOCTL_SKEY", p.SKey, &o.skey},
		{"output", "DUOCTL_OUTPUT", p.Output, &o.output},
		{"log-level", "DUOCTL_LOG_LEVEL", p.LogLevel, &o.logLevel},
		{"journal", "DUOCTL_JOURNAL", p.Journal, &o.journal},
	} {
		if flags.Changed(s.flag) {
			continue
		}
		if v := os.Getenv(s.env); v != "" {
			*s.target = v
		} else if s.profile != "" {
			*s.target = s.profile
		}
	}

	if err := validateOutputFormat(o.output); err != nil {
		return err
	}
	// Keep the flag in sync so getOutputFormat and Execute see the
	// resolved value.
	_ = cmd.Root().PersistentFlags().Set("output", o.output)

	o.logger = newLogger(cmd.ErrOrStderr(), o.logLevel)
	return nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: config.ParseLevel(level)}))
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "duoctl",
		Short:         "Reconcile MSP auth-service accounts, integrations, settings, and editions",
		Long:          "Declarative management of child accounts, integrations, account settings, and billing editions through the admin API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.host, "host", "", "Admin API hostname")
	pf.StringVar(&opts.ikey, "ikey", "", "Admin API integration key")
	pf.StringVar(&opts.skey, "skey", "", "Admin API secret key")
	pf.StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	pf.StringVarP(&opts.profile, "profile", "p", "", "Config profile to use")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.journal, "journal", "", "Record every outcome in this SQLite journal")
	pf.BoolVar(&opts.check, "check", false, "Dry run: report what would change without mutating")

	// Resource commands
	rootCmd.AddCommand(newAccountCmd(opts))
	rootCmd.AddCommand(newIntegrationCmd(opts))
	rootCmd.AddCommand(newSettingsCmd(opts))
	rootCmd.AddCommand(newEditionCmd(opts))

	// Declarative configuration commands
	rootCmd.AddCommand(newPlanCmd(opts))
	rootCmd.AddCommand(newApplyCmd(opts))
	rootCmd.AddCommand(newValidateCmd())

	rootCmd.AddCommand(newJournalCmd(opts))
	rootCmd.AddCommand(newTwinCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
