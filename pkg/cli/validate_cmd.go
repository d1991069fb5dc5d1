package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"duoctl/internal/declarative"
)

func newValidateCmd() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate declarative configuration files offline",
		Long:  "Reads configuration documents and checks them for errors without contacting the admin API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := declarative.LoadDirectory(configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			validationErrs := declarative.Validate(docs)
			if getOutputFormat(cmd) == "json" {
				errMsgs := make([]string, len(validationErrs))
				for i, ve := range validationErrs {
					errMsgs[i] = ve.Error()
				}
				if err := printJSON(cmd.OutOrStdout(), map[string]any{
					"valid":     len(validationErrs) == 0,
					"documents": len(docs),
					"errors":    errMsgs,
				}); err != nil {
					return err
				}
				if len(validationErrs) > 0 {
					return &exitError{code: 1}
				}
				return nil
			}

			if len(validationErrs) > 0 {
				w := cmd.ErrOrStderr()
				_, _ = fmt.Fprintf(w, "Configuration has %d validation error(s):\n", len(validationErrs))
				for _, ve := range validationErrs {
					_, _ = fmt.Fprintf(w, "  - %s\n", ve.Error())
				}
				return &exitError{code: 1}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%d document(s)).\n", len(docs))
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "./duo-config", "Path to configuration directory")

	return cmd
}
