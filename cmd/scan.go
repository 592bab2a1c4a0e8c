package cmd

import (
	"fmt"
	"os"

	"bibsync/feature/changes"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags shared by scan and watch
	documentPath string
	baselinePath string
	memoryPath   string
	formatName   string

	// Flags for scan
	acceptChanges bool
	yesConfirm    bool
	dryRunAccept  bool
	outputPath    string
	acceptIDs     []int
	initBaseline  bool
)

// scanCmd scans a document and optionally accepts the detected changes.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Detect external changes to a .bib file",
	Long: `Compare a .bib file against its last synchronized baseline and list the
changes, resolved against your working copy.

Examples:
  # Report only
  bibsync scan --document refs.bib --baseline .bibsync/refs.bib

  # Accept every change into the working copy (with interactive confirmation)
  bibsync scan --document refs.bib --baseline .bibsync/refs.bib --memory work.bib --accept

  # Accept changes 1 and 3 without prompting
  bibsync scan --document refs.bib --baseline .bibsync/refs.bib --memory work.bib --accept --only 1,3 --yes

  # Create the baseline from the current document when it does not exist yet
  bibsync scan --document s3:refs.bib --baseline s3:baselines/refs.bib --init`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&documentPath, "document", "", "Document to scan (path, s3://bucket/object or s3:object)")
	scanCmd.Flags().StringVar(&baselinePath, "baseline", "", "Baseline recorded at the last synchronization")
	scanCmd.Flags().StringVar(&memoryPath, "memory", "", "Working copy (defaults to the baseline)")
	scanCmd.Flags().StringVar(&formatName, "format", "text", "Report format: text, json or yaml")
	scanCmd.Flags().BoolVar(&acceptChanges, "accept", false, "Apply the detected changes to the working copy")
	scanCmd.Flags().IntSliceVar(&acceptIDs, "only", nil, "Change ids to accept (default all)")
	scanCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm accepting changes (non-interactive)")
	scanCmd.Flags().BoolVar(&dryRunAccept, "dry-run", false, "Show what would be applied without writing")
	scanCmd.Flags().StringVar(&outputPath, "output", "", "Where to write the updated working copy (defaults to --memory)")
	scanCmd.Flags().BoolVar(&initBaseline, "init", false, "Seed a missing baseline from the document before scanning")
	_ = scanCmd.MarkFlagRequired("document")
	_ = scanCmd.MarkFlagRequired("baseline")

	RootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := changes.ParseFormat(formatName)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if initBaseline {
		created, err := a.service.Init(ctx, documentPath, baselinePath)
		if err != nil {
			return fmt.Errorf("failed to initialize baseline: %w", err)
		}
		if created {
			a.log.Info("Baseline created from document", zap.String("baseline", baselinePath))
		}
	}

	req := changes.ScanRequest{Document: documentPath, Baseline: baselinePath, Memory: memoryPath}
	report, err := a.service.Scan(ctx, req)
	if err != nil {
		if report != nil {
			_ = changes.Render(os.Stdout, report, format)
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	if !acceptChanges {
		return changes.Render(os.Stdout, report, format)
	}

	// A dry run writes nothing, so it needs no confirmation
	presenter := changes.NewTerminalPresenter(os.Stdin, os.Stdout, format, yesConfirm || dryRunAccept)
	confirmed, err := presenter.Show(ctx, report)
	if err != nil {
		return err
	}
	if report.Changeset().Empty() {
		return nil
	}
	if !confirmed {
		a.log.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	result, err := a.service.Apply(ctx, report, changes.AcceptOptions{
		Output:    outputPath,
		Accept:    acceptIDs,
		Confirmed: confirmed,
		DryRun:    dryRunAccept,
	})
	if err != nil {
		return fmt.Errorf("failed to apply changes: %w", err)
	}

	if dryRunAccept {
		a.log.Info("Dry-run mode: No changes were made.", zap.Ints("planned", result.Planned), zap.Ints("skipped", result.Skipped))
		return nil
	}
	a.log.Info("Successfully applied changes",
		zap.Ints("applied", result.Applied),
		zap.Ints("skipped", result.Skipped),
		zap.String("output", result.Output),
	)
	return nil
}
