package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"duoctl/internal/admintwin"
	"duoctl/internal/config"
)

func newTwinCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "twin",
		Short: "Run a local in-memory admin API for testing",
	}
	cmd.AddCommand(newTwinServeCmd(opts))
	return cmd
}

func newTwinServeCmd(opts *globalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin API twin until interrupted",
		Long: "Serves an in-memory admin API that verifies request signatures. Credentials come from " +
			"--ikey/--skey when both are given, otherwise from TWIN_IKEY/TWIN_SKEY.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadTwinFromEnv()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cmd.Flags().Changed("listen") || os.Getenv("LISTEN_ADDR") == "" {
				cfg.ListenAddr = listen
			}
			if opts.ikey != "" && opts.skey != "" {
				cfg.IKey, cfg.SKey = opts.ikey, opts.skey
				cfg.Warnings = nil
			}
			for _, w := range cfg.Warnings {
				opts.logger.Warn(w)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var lc net.ListenConfig
			ln, err := lc.Listen(ctx, "tcp", cfg.ListenAddr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Admin twin listening on http://%s (ikey %s)\n", ln.Addr(), cfg.IKey)

			srv := admintwin.New(admintwin.Config{
				IKey:           cfg.IKey,
				SKey:           cfg.SKey,
				Host:           cfg.Host,
				RateLimitRPS:   cfg.RateLimitRPS,
				RateLimitBurst: cfg.RateLimitBurst,
			}, opts.logger)
			return srv.Serve(ctx, ln)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8087", "Address to listen on")

	return cmd
}
