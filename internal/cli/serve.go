package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/matzehuels/flowlens/pkg/api"
)

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, static string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the UI bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			if static == "" {
				static = c.cfg.Server.Static
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			sessions, closeSessions, err := c.cfg.Session.Open(ctx)
			if err != nil {
				return err
			}
			defer closeSessions()

			srv := api.New(api.Config{
				Runner:     runner,
				Dial:       c.dialer(),
				Sessions:   sessions,
				Logger:     c.Logger,
				Static:     static,
				SessionTTL: c.cfg.Session.TTL.Duration,
				Strategy:   c.cfg.Layout.Strategy,
				Direction:  c.cfg.Layout.Direction,
				Layout:     c.cfg.Layout.Options(),

				ConnectRate:  rate.Limit(c.cfg.Server.ConnectRate),
				ConnectBurst: c.cfg.Server.ConnectBurst,
			})
			defer srv.Close()

			printInfo("Listening on %s", StyleHighlight.Render(addr))
			printDetail("sessions: %s  cache: %s", c.cfg.Session.Backend, c.cfg.Cache.Backend)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :4000)")
	cmd.Flags().StringVar(&static, "static", "", "directory of the UI bundle")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")
	return cmd
}
