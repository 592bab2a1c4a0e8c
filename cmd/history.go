package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

// historyCmd lists recorded scans.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scans",
	Long:  `Lists the most recent scans from the history database, newest first.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&documentPath, "document", "", "Only show scans of this document")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of scans")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")

	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	scans, err := a.service.History(ctx, documentPath, historyLimit)
	if err != nil {
		return err
	}

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scans)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tCHANGES\tACCEPTED\tDOCUMENT\tID")
	for _, s := range scans {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			s.StartedAt.Local().Format(time.DateTime), s.Status, s.Changes, s.Accepted, s.Document, s.ID)
	}
	return tw.Flush()
}
