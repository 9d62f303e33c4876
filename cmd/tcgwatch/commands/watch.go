package commands

import (
	"context"
	"errors"
	"log/slog"
	"tcgwatch/internal/tracker"
	"tcgwatch/lib/serviceutil"
	libtelemetry "tcgwatch/lib/telemetry"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Checks every configured retailer forever, waiting check_interval between runs.",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp(cmd)
		defer a.Close()
		libtelemetry.InstrumentPerfStats(cmd.Context(), 0)

		slog.Info("starting tracker", "interval", a.config.Interval(), "retailers", len(a.request.Retailers))
		err := a.tracker.Watch(cmd.Context(), a.request, tracker.WatchOptions{
			Interval: a.config.Interval(),
			Notify:   true,
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			serviceutil.Fatal("tracker stopped", err)
		}
		slog.Info("tracker stopped")
	},
}
