package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Continuously scan the log at the configured interval",
	Long: `Runs scan cycles in a loop until interrupted. SIGINT and SIGTERM stop
the loop between cycles; an in-flight publish always completes first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		tc := newTracker(false, cfg.Monitor.Repo())
		orch, cleanup, err := newOrchestrator(cfg, tc, false)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return orch.Run(ctx)
	},
}
