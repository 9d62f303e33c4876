package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/pipeline"
	"tcgwatch/lib/serviceutil"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	runJSON     bool
	runNoNotify bool
)

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Prints the results as JSON to stdout.")
	runCmd.Flags().BoolVar(&runNoNotify, "no-notify", false, "Does not send a notification for the results.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--json] [--no-notify]",
	Short: "Checks every configured retailer once and prints what was found.",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp(cmd)
		defer a.Close()

		state, err := a.tracker.Run(cmd.Context(), a.request, !runNoNotify)
		if err != nil {
			serviceutil.Fatal("run failed", err)
		}

		if runJSON {
			err = writeItemsJSON(os.Stdout, state.Items)
			if err != nil {
				serviceutil.Fatal("failed to write results", err)
			}
			return
		}
		renderReports(os.Stderr, state.Reports)
		renderItems(os.Stdout, state.Items)
	},
}

func writeItemsJSON(w io.Writer, items []catalog.ValidatedItem) error {
	if items == nil {
		items = []catalog.ValidatedItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func renderItems(w io.Writer, items []catalog.ValidatedItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items found in stock at retail prices.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Store", "Type", "Price", "Name", "URL"})
	for _, item := range items {
		t.AppendRow(table.Row{
			item.Retailer.StoreName(),
			item.Category.Text(),
			"$" + item.Price.StringFixed(2),
			item.Name,
			item.URL,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderReports(w io.Writer, reports []pipeline.RetailerReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{
		"Retailer", "Fetched", "Extracted", "Accepted",
		"Filtered", "Invalid", "Not authentic", "Errors", "Time",
	})
	for _, report := range reports {
		t.AppendRow(table.Row{
			report.Retailer.StoreName(),
			report.Fetched,
			report.Extracted,
			report.Accepted,
			len(report.DroppedAt(pipeline.StageFilter)),
			len(report.DroppedAt(pipeline.StageValidate)),
			len(report.DroppedAt(pipeline.StageAuthenticity)),
			len(report.DroppedAt(pipeline.StageExtract)) +
				len(report.DroppedAt(pipeline.StageNormalize)) +
				len(report.DroppedAt(pipeline.StagePanic)),
			report.Duration.Round(time.Millisecond).String(),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
