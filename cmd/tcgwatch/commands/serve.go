package commands

import (
	"errors"
	"log/slog"
	"tcgwatch/internal/components/chrono"
	"tcgwatch/internal/server"
	"tcgwatch/internal/tracker"
	"tcgwatch/lib/serviceutil"
	libtelemetry "tcgwatch/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	servePort     int
	serveSchedule bool
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "The port to listen on, overrides server.port.")
	serveCmd.Flags().BoolVar(&serveSchedule, "schedule", true, "Triggers a run every check_interval.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--port <port>]",
	Short: "Serves the results over http and runs the tracker on a schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := mustApp(cmd)
		defer a.Close()
		libtelemetry.InstrumentPerfStats(ctx, 0)

		a.restore()

		if serveSchedule {
			cron := chrono.NewStandardCron(a.time.Location(), a.tel)
			defer cron.Stop()
			err := cron.Cron(chrono.Every(a.config.Interval()), func() {
				err := a.tracker.Trigger(ctx, a.request)
				if errors.Is(err, tracker.ErrRunActive) {
					slog.Info("skipping scheduled run, a run is already active")
					return
				}
				if err != nil {
					slog.Error("failed to trigger scheduled run", "err", err)
				}
			})
			if err != nil {
				serviceutil.Fatal("failed to schedule runs", err)
			}
			slog.Info("scheduled runs", "interval", a.config.Interval())
		}

		opts := server.Options{
			APIKey:   a.env.APIKey,
			Defaults: a.request,
		}
		if a.history != nil {
			opts.History = a.history
		}
		srv := server.NewServer(a.tracker, opts, a.tel)

		port := a.config.Server.Port
		if servePort > 0 {
			port = servePort
		}
		err := serviceutil.StartHttpServer(
			ctx,
			serviceutil.NewHttpServer(a.config.Server.Host, port, srv.Handler()),
		)
		if err != nil {
			serviceutil.Fatal("http server stopped", err)
		}
	},
}
