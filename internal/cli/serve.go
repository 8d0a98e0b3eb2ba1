package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hnrobert/ftpmgr/internal/auth"
	"github.com/hnrobert/ftpmgr/internal/discovery"
	"github.com/hnrobert/ftpmgr/internal/logger"
	"github.com/hnrobert/ftpmgr/internal/server"
)

func newServeCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.LogDir != "" {
				if err := logger.Init(e.cfg.LogDir); err != nil {
					return err
				}
				defer logger.Close()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			hasher, err := e.hasher()
			if err != nil {
				return err
			}
			ops, err := auth.NewOperators(e.cfg.AdminGroups)
			if err != nil {
				return err
			}
			secret, err := server.ParseSecret(e.cfg.JWTSecret)
			if err != nil {
				return err
			}

			app := server.NewApp(server.Options{
				Store:     st,
				Deployer:  e.controller(st),
				Targets:   (&targetFlags{}).targets(e.cfg),
				Discovery: discovery.New(e.cfg.Discovery.MaxDepth, e.cfg.Discovery.IdentityFile),
				Hasher:    hasher,
				Operators: ops,
				Secret:    secret,
			})
			logger.Info("ftpmgr %s listening on %s (host root %s)", version, e.cfg.Listen, e.cfg.HostRoot)
			return server.New(server.Config{ListenAddr: e.cfg.Listen}, app).ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("listen", "", "listen address (default :8080)")
	cmd.Flags().String("log-dir", "", "write daily log files below this directory")
	return cmd
}
