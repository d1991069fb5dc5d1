package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"duoctl/internal/declarative"
	"duoctl/internal/domain"
)

func newPlanCmd(opts *globalOptions) *cobra.Command {
	var (
		configDir string
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show changes required to match the declarative configuration",
		Long: "Reads YAML and TOML documents, reconciles each one in dry-run mode, and shows the resulting plan. " +
			"Exits with status 2 when changes are pending.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := loadAndValidate(cmd, configDir)
			if err != nil {
				return err
			}
			eng, err := opts.engine()
			if err != nil {
				return err
			}

			plan := declarative.Run(cmd.Context(), eng, docs, domain.ModeDryRun)
			recordPlan(cmd.Context(), opts, plan)
			if err := writePlan(cmd, plan, noColor); err != nil {
				return err
			}

			// Exit code 2 if there are changes (useful for CI).
			if plan.HasChanges() {
				return &exitError{code: 2}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "./duo-config", "Path to configuration directory")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

// loadAndValidate loads documents from dir and reports validation problems
// on stderr.
func loadAndValidate(cmd *cobra.Command, dir string) ([]declarative.Document, error) {
	docs, err := declarative.LoadDirectory(dir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if errs := declarative.Validate(docs); len(errs) > 0 {
		w := cmd.ErrOrStderr()
		_, _ = fmt.Fprintf(w, "Configuration has %d validation error(s):\n", len(errs))
		for _, ve := range errs {
			_, _ = fmt.Fprintf(w, "  - %s\n", ve.Error())
		}
		return nil, fmt.Errorf("configuration has %d validation error(s)", len(errs))
	}
	return docs, nil
}

func writePlan(cmd *cobra.Command, plan *declarative.Plan, noColor bool) error {
	w := cmd.OutOrStdout()
	if getOutputFormat(cmd) == "json" {
		if err := declarative.FormatJSON(w, plan); err != nil {
			return fmt.Errorf("format plan: %w", err)
		}
		return nil
	}
	declarative.FormatText(w, plan, noColor || !isTerminal(w))
	return nil
}

// recordPlan journals every outcome of a run. Journal failures are logged
// and do not fail the run.
func recordPlan(ctx context.Context, opts *globalOptions, plan *declarative.Plan) {
	j, err := opts.openJournal(ctx)
	if err != nil {
		opts.logger.Warn("journal unavailable", "error", err)
		return
	}
	if j == nil {
		return
	}
	defer func() { _ = j.Close() }()
	for _, out := range plan.Outcomes {
		if _, err := j.Record(ctx, out); err != nil {
			opts.logger.Warn("journal record failed", "kind", out.Kind, "error", err)
		}
	}
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
