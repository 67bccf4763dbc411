package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kllc.dev/kllc/internal/channel"
	"kllc.dev/kllc/internal/engine"
	"kllc.dev/kllc/internal/runtime"
	"kllc.dev/kllc/internal/server"
)

// newServeCmd creates the serve command
func newServeCmd(dir *string) *cobra.Command {
	var (
		stdio bool
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lifecycle channel to a UI",
		Long: `Serve the lifecycle channel to a UI.

With --stdio, messages are newline-delimited JSON on stdin and stdout. Otherwise
an HTTP server accepts POST /messages and streams replies on GET /events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			if stdio {
				// stdout carries the protocol; console logging would corrupt it.
				cmd.SetOut(os.Stderr)
			}

			return withContext(cmd, dir, func(ctx context.Context, rt *runtime.Context, _ *engine.State) error {
				if stdio {
					rt.Splog.SetQuiet(true)
					err := channel.ServeStdio(ctx, rt.Channel, cmd.InOrStdin(), os.Stdout)
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}

				if addr == "" {
					addr = rt.Config.Server.Addr
				}
				srv := server.New(rt.Channel,
					server.WithLogger(rt.Splog.Logger().With("component", "server")),
					server.WithMetrics(rt.Metrics.Handler()),
				)
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false, "Speak newline-delimited JSON on stdin/stdout")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (defaults to server.addr)")

	return cmd
}
