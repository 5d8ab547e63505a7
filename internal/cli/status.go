package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/logpatrol/logpatrol/internal/state"
)

type statusInfo struct {
	Repo         string `json:"repo"`
	LogPath      string `json:"log_path"`
	StatePath    string `json:"state_path"`
	Offset       int64  `json:"offset"`
	Fingerprints int    `json:"fingerprints"`
	StateCorrupt bool   `json:"state_corrupt,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show processing state and recent cycle history",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store := state.NewStore(state.StatePath(cfg.Monitor.StateDir, cfg.Monitor.RepoOwner, cfg.Monitor.RepoName))
		info := statusInfo{
			Repo:      cfg.Monitor.Repo(),
			LogPath:   cfg.Monitor.LogPath,
			StatePath: store.Path(),
		}

		ps, err := store.Load()
		if err != nil {
			if !errors.Is(err, state.ErrStateCorrupt) {
				return err
			}
			info.StateCorrupt = true
		} else {
			info.Offset = ps.Offset
			info.Fingerprints = len(ps.Fingerprints)
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			return writeJSON(cmd, info)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "repo:         %s\n", info.Repo)
		fmt.Fprintf(w, "log:          %s\n", info.LogPath)
		fmt.Fprintf(w, "state:        %s\n", info.StatePath)
		if info.StateCorrupt {
			fmt.Fprintln(w, "state file is corrupt; the next scan will reset it")
		} else {
			fmt.Fprintf(w, "offset:       %d\n", info.Offset)
			fmt.Fprintf(w, "fingerprints: %d\n", info.Fingerprints)
		}

		journal, err := openJournal()
		if err != nil {
			fmt.Fprintf(w, "\njournal unavailable: %v\n", err)
			return nil
		}
		defer journal.Close()

		cycles, err := journal.RecentCycles(cfg.Monitor.Repo(), 10)
		if err != nil {
			return err
		}
		if len(cycles) == 0 {
			fmt.Fprintln(w, "\nNo cycles recorded yet.")
			return nil
		}

		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tSTATUS\tLINES\tCLASSIFIED\tPUBLISHED\tDEFERRED\tREJECTED")
		for _, c := range cycles {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
				c.Timestamp, c.Status, c.LinesRead, c.Classified, c.Published, c.Deferred, c.Rejected)
		}
		return tw.Flush()
	},
}

func init() {
	statusCmd.Flags().String("format", "text", "Output format: text or json")
}
