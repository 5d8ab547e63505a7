package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/logpatrol/logpatrol/internal/monitor"
	"github.com/logpatrol/logpatrol/internal/tracker"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan cycle over the configured log",
	Long: `Reads newly appended log lines, classifies them, and files issues for
errors not yet reported. With --dry-run the tracker is replaced by an
in-memory binding: the full pipeline runs but nothing reaches GitHub, and
the issues that would have been created are printed instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		tc := newTracker(dryRun, cfg.Monitor.Repo())

		orch, cleanup, err := newOrchestrator(cfg, tc, dryRun)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := orch.RunCycle(ctx)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			if err := writeJSON(cmd, res); err != nil {
				return err
			}
		} else {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "status:     %s\n", res.Status)
			fmt.Fprintf(w, "lines read: %d\n", res.LinesRead)
			fmt.Fprintf(w, "classified: %d\n", res.Classified)
			fmt.Fprintf(w, "published:  %d\n", res.Published)
			fmt.Fprintf(w, "existing:   %d\n", res.Existing)
			fmt.Fprintf(w, "deferred:   %d\n", res.Deferred)
			fmt.Fprintf(w, "rejected:   %d\n", res.Rejected)
			if res.Message != "" {
				fmt.Fprintf(w, "message:    %s\n", res.Message)
			}

			if mem, ok := tc.(*tracker.Memory); ok && len(mem.Issues) > 0 {
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Would create:")
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ISSUE\tBRANCH\tTITLE")
				for _, issue := range mem.Issues {
					branch := ""
					for _, ch := range mem.Changes {
						if ch.IssueID == issue.ID {
							branch = ch.Branch
						}
					}
					fmt.Fprintf(tw, "#%s\t%s\t%s\n", issue.ID, branch, issue.Title)
				}
				tw.Flush()
			}
		}

		if res.Status != monitor.StatusOK {
			return fmt.Errorf("scan finished with status %s", res.Status)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().Bool("dry-run", false, "Run the pipeline without contacting GitHub")
	scanCmd.Flags().String("format", "text", "Output format: text or json")
}
