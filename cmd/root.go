package cmd

import (
	"os"

	"bibsync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "bibsync",
	Short: "External change scanner for bibliography files",
	Long: `BibSync detects changes made to a .bib file outside the editor,
classifies them against the last synchronized baseline and lets you accept
them one by one into your working copy. Files can live on disk or in S3/MinIO.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console encoding and the development config give readable CLI errors
		l := logger.NewConsole()
		l.Error("command failed", zap.Error(err))
		_ = l.Sync()
		os.Exit(1)
	}
}
