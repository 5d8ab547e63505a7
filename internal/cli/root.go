package cli

import (
	"github.com/spf13/cobra"

	"github.com/logpatrol/logpatrol/internal/logging"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var (
	cfgPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "patrol",
	Short: "patrol — log-driven error triage for GitHub repositories",
	Long: `patrol tails an application log, classifies error lines against
configurable patterns, and files GitHub issues with generated fix proposals.
Each distinct error is reported exactly once across restarts and log
rotations; duplicates are detected by fingerprint.

State lives in ~/.patrol/ (JSON per target repository, SQLite for the
event journal). Configuration is read from patrol.yaml.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.ParseLevel(logLevel))
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file (default: ./patrol.yaml, then ~/.patrol/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(dbCmd)
}
