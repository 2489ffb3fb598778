package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jamesr66a/translate/internal/logger"
)

var (
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "morphseg",
	Short: "Unsupervised morphological segmentation",
	Long: "morphseg learns to split words into prefix/stem/suffix morphemes from a raw,\n" +
		"unlabeled corpus via EM over a segmentation HMM, then segments new text with\n" +
		"the trained model.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logFile, logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error|none)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")
}

func Execute() error {
	return rootCmd.Execute()
}
