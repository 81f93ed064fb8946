package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskmate/adapter/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API and the live change stream.

Routes:
  GET    /health
  GET    /api/v1/tasks?person=&search=&status=
  POST   /api/v1/tasks
  GET    /api/v1/tasks/{id}
  PATCH  /api/v1/tasks/{id}
  DELETE /api/v1/tasks/{id}
  POST   /api/v1/tasks/{id}/toggle
  GET    /api/v1/points
  GET    /api/v1/events     (server-sent events)
  GET    /api/v1/metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		cfg := api.DefaultServerConfig()
		switch {
		case serveAddr != "":
			cfg.Addr = serveAddr
		case app.Config != nil && app.Config.HTTPAddr != "":
			cfg.Addr = app.Config.HTTPAddr
		}

		deps := api.Dependencies{
			Tasks:  app.Tasks,
			Health: app.Health,
			Logger: Logger(),
		}
		if app.Bus != nil {
			deps.Events = app.Bus
		}
		if app.Metrics != nil {
			deps.Metrics = app.Metrics
		}
		server := api.NewServer(cfg, deps)

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-cmd.Context().Done():
		}

		timeout := 10 * time.Second
		if app.Config != nil && app.Config.ShutdownTimeout > 0 {
			timeout = app.Config.ShutdownTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default HTTP_ADDR or :8099)")
	rootCmd.AddCommand(serveCmd)
}
