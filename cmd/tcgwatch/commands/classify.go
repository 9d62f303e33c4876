package commands

import (
	"fmt"
	"strings"
	"tcgwatch/internal/classify"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(classifyCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify <name>",
	Short: "Prints the category a product name is classified into and why.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// an unquoted name arrives split on spaces
		name := strings.Join(args, " ")
		category, reason := classify.Explain(name)
		fmt.Fprintf(cmd.OutOrStdout(), "category: %s\nreason:   %s\n", category.Text(), reason)
	},
}
