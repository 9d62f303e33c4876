package commands

import (
	"context"
	"fmt"
	"os"
	"tcgwatch/lib/serviceutil"
	libtelemetry "tcgwatch/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "tcgwatch",
	Short: "tcgwatch tracks Pokemon TCG products that are in stock at retail price.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		libtelemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enables debug logs.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file, .json5 or .yaml.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// mustApp loads the config and wires the tracker, any failure exits.
func mustApp(cmd *cobra.Command) *app {
	config, env, err := LoadConfig(configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	a, err := newApp(cmd.Context(), config, env)
	if err != nil {
		serviceutil.Fatal("failed to initialize", err)
	}
	return a
}
