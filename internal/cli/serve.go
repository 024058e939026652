package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/lachlan2k/rta-portal/internal/webserver"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the portal over HTTP",
		Long: `Serve the portal over HTTP, using the session stored on disk.

Investor screens live under /investor, back-office screens under /admin and
AMC screens under /amc. Each is guarded by the logged-in role, and a visitor
without access is redirected to the matching login page.

Example:
  rta-portal serve --config config.toml
  rta-portal serve --port 9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				p.conf.ListenPort = port
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			server := webserver.New()
			err = server.Setup(p.conf, webserver.Deps{
				Store:    p.store,
				Registry: registry,
				Logger:   p.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p.logger.Info("serving portal", "addr", p.conf.ListenAddr(), "api", p.conf.APIBaseURL, "session", p.store.Path())
			return server.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on, overriding the config file")
	return cmd
}

// cmd.Context() is nil when a command is run without ExecuteContext
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
