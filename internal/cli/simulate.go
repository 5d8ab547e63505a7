package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// simulatedErrors are appended to the configured log to exercise the
// pipeline end to end. One line per builtin category.
var simulatedErrors = []string{
	"ERROR %s django.db.backends: IntegrityError: UNIQUE constraint failed: users_user.email",
	"ERROR %s django.security: AuthenticationFailed: Invalid token header. No credentials provided.",
	"ERROR %s django.request: Internal Server Error: /api/orders/ AttributeError: 'NoneType' object has no attribute 'id'",
	"ERROR %s django.request: ValidationError: {'email': ['Enter a valid email address.']}",
	"WARNING %s django.db.backends: Slow query detected: SELECT * FROM orders WHERE status = 'pending' took 4.20s",
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Append synthetic error lines to the configured log",
	Long: `Appends one representative error line per builtin category to the
configured log file, for exercising the pipeline without a real
application. Pair with 'scan --dry-run' to see what would be filed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		path := cfg.Monitor.LogPath
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create log directory: %w", err)
			}
		}

		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log %s: %w", path, err)
		}
		defer f.Close()

		now := time.Now()
		ts := fmt.Sprintf("%s,%03d", now.Format("2006-01-02 15:04:05"), now.Nanosecond()/1e6)
		for _, line := range simulatedErrors {
			if _, err := fmt.Fprintf(f, line+"\n", ts); err != nil {
				return fmt.Errorf("append to log: %w", err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "appended %d synthetic error lines to %s\n", len(simulatedErrors), path)
		return nil
	},
}
