package commands

import (
	"fmt"
	"os"
	"strings"
	"tcgwatch/internal/components/telemetry"
	"tcgwatch/lib/serviceutil"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyPrune time.Duration
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "The number of runs to print.")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "Deletes runs older than this before printing, ex. 720h.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>] [--prune <age>]",
	Short: "Prints the most recent runs recorded in the history database.",
	Run: func(cmd *cobra.Command, args []string) {
		config, _, err := LoadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		db, store, err := openHistory(config, telemetry.NewSlogAPI(nil))
		if err != nil {
			serviceutil.Fatal("failed to open history", err)
		}
		if store == nil {
			fmt.Fprintln(os.Stderr, "history is disabled, set history.database in the config.")
			os.Exit(1)
		}
		defer db.Close()

		if historyPrune > 0 {
			deleted, err := store.Prune(cmd.Context(), time.Now().Add(-historyPrune))
			if err != nil {
				serviceutil.Fatal("failed to prune history", err)
			}
			fmt.Fprintf(os.Stderr, "deleted %d runs\n", deleted)
		}

		runs, err := store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to read history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Run", "Started", "Took", "Retailers", "Extracted", "Dropped", "Items"})
		for _, run := range runs {
			retailers := make([]string, len(run.Retailers))
			for i, r := range run.Retailers {
				retailers[i] = r.StoreName()
			}
			t.AppendRow(table.Row{
				run.ID,
				run.StartedAt.Local().Format(time.DateTime),
				run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String(),
				strings.Join(retailers, ", "),
				run.Extracted,
				run.Dropped,
				len(run.Items),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
