package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"duoctl/internal/declarative"
	"duoctl/internal/domain"
	"duoctl/internal/reconcile"
	"duoctl/internal/schedule"
)

func newApplyCmd(opts *globalOptions) *cobra.Command {
	var (
		configDir   string
		autoApprove bool
		noColor     bool
		cronSpec    string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply declarative configuration to the admin API",
		Long: "Reads YAML and TOML documents, previews the changes, and reconciles each document. " +
			"With --schedule the apply repeats on a cron schedule until interrupted.",
		Example: `  duoctl apply --config-dir ./duo-config
  duoctl apply --config-dir ./duo-config --auto-approve --schedule "@every 15m"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cronSpec != "" {
				if !autoApprove {
					return errors.New("--schedule requires --auto-approve")
				}
				if err := schedule.Parse(cronSpec); err != nil {
					return err
				}
			}

			docs, err := loadAndValidate(cmd, configDir)
			if err != nil {
				return err
			}
			eng, err := opts.engine()
			if err != nil {
				return err
			}

			if cronSpec != "" {
				return runScheduled(cmd, opts, eng, docs, cronSpec, noColor)
			}
			return applyOnce(cmd, opts, eng, docs, autoApprove, noColor)
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "./duo-config", "Path to configuration directory")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Skip interactive confirmation prompt")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&cronSpec, "schedule", "", "Re-apply on this cron schedule, e.g. \"*/15 * * * *\" or \"@every 1h\"")

	return cmd
}

// applyOnce previews the plan, asks for confirmation, and enforces it.
func applyOnce(cmd *cobra.Command, opts *globalOptions, eng *reconcile.Engine, docs []declarative.Document, autoApprove, noColor bool) error {
	ctx := cmd.Context()

	preview := declarative.Run(ctx, eng, docs, domain.ModeDryRun)
	if opts.mode() == domain.ModeDryRun {
		recordPlan(ctx, opts, preview)
		return writePlan(cmd, preview, noColor)
	}
	if !preview.HasChanges() {
		return writePlan(cmd, preview, noColor)
	}

	if !autoApprove {
		if err := writePlan(cmd, preview, noColor); err != nil {
			return err
		}
		ok, err := confirm(cmd, "\nApply these changes? [y/N] ")
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Apply cancelled.")
			return nil
		}
	}

	plan := declarative.Run(ctx, eng, docs, domain.ModeEnforce)
	recordPlan(ctx, opts, plan)
	if err := writePlan(cmd, plan, noColor); err != nil {
		return err
	}
	if n := len(plan.Errors); n > 0 {
		return &exitError{code: 1, err: fmt.Errorf("%d document(s) failed to apply", n)}
	}
	return nil
}

// confirm prompts on stdout and reads a yes/no answer. A stdin file that is
// not a terminal is refused.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !isTerminal(f) {
		return false, errors.New("confirmation required but stdin is not a terminal; use --auto-approve")
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}

// runScheduled enforces the documents on every tick until SIGINT/SIGTERM.
// Each tick is an independent reconciliation.
func runScheduled(cmd *cobra.Command, opts *globalOptions, eng *reconcile.Engine, docs []declarative.Document, spec string, noColor bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := schedule.New(opts.logger)
	err := s.Add(spec, "apply", func(ctx context.Context) error {
		plan := declarative.Run(ctx, eng, docs, domain.ModeEnforce)
		recordPlan(ctx, opts, plan)
		if err := writePlan(cmd, plan, noColor); err != nil {
			return err
		}
		if n := len(plan.Errors); n > 0 {
			return fmt.Errorf("%d document(s) failed to apply", n)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Applying on schedule %q; press Ctrl+C to stop.\n", spec)
	s.Start()
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Stop(stopCtx)
}
