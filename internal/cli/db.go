package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/logpatrol/logpatrol/internal/db"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Event journal management",
}

var dbPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the journal database path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := db.DefaultDBPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply journal schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openJournal()
		if err != nil {
			return err
		}
		defer journal.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "schema up to date at %s\n", journal.Path())
		return nil
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the journal (destructive!)",
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openJournal()
		if err != nil {
			return err
		}
		defer journal.Close()
		if err := journal.Reset(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "journal reset at %s\n", journal.Path())
		return nil
	},
}

var dbEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent publish events for the configured repo",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		journal, err := openJournal()
		if err != nil {
			return err
		}
		defer journal.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		events, err := journal.RecentPublishes(cfg.Monitor.Repo(), limit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No publish events recorded.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTION\tCATEGORY\tISSUE\tFINGERPRINT")
		for _, e := range events {
			issue := e.IssueID
			if issue == "" {
				issue = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp, e.Action, e.Category, issue, e.Fingerprint)
		}
		return tw.Flush()
	},
}

func init() {
	dbEventsCmd.Flags().Int("limit", 20, "Maximum number of events to show")
	dbCmd.AddCommand(dbPathCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbResetCmd)
	dbCmd.AddCommand(dbEventsCmd)
}
