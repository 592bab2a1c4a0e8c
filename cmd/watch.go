package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"bibsync/feature/changes"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd rescans a document every time it is written.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rescan a local .bib file whenever it changes",
	Long: `Watch a local .bib file and print a change report after every write.
Writes that arrive within changes.debounce_ms of each other trigger one scan.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&documentPath, "document", "", "Local document to watch")
	watchCmd.Flags().StringVar(&baselinePath, "baseline", "", "Baseline recorded at the last synchronization")
	watchCmd.Flags().StringVar(&memoryPath, "memory", "", "Working copy (defaults to the baseline)")
	watchCmd.Flags().StringVar(&formatName, "format", "text", "Report format: text, json or yaml")
	_ = watchCmd.MarkFlagRequired("document")
	_ = watchCmd.MarkFlagRequired("baseline")

	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := changes.ParseFormat(formatName)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	req := changes.ScanRequest{Document: documentPath, Baseline: baselinePath, Memory: memoryPath}
	w := changes.NewWatcher(a.service, req, a.cfg.Changes.Debounce(), func(r *changes.Report) {
		if err := changes.Render(os.Stdout, r, format); err != nil {
			a.log.Error("Failed to render report", zap.Error(err))
		}
	}, a.log)

	return w.Run(ctx)
}
