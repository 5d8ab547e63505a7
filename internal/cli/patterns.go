package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/logpatrol/logpatrol/internal/classify"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List the active classification patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cl, err := classify.New(cfg.Patterns)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PRIORITY\tCATEGORY\tSEVERITY\tLABELS")
		for _, p := range cl.Patterns() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.Priority, p.Category, p.Severity, strings.Join(p.Labels, ","))
		}
		return tw.Flush()
	},
}

var patternsTestCmd = &cobra.Command{
	Use:   "test <line>",
	Short: "Classify a single log line and show the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cl, err := classify.New(cfg.Patterns)
		if err != nil {
			return err
		}

		line := strings.Join(args, " ")
		src := classify.Source{Path: cfg.Monitor.LogPath}
		ev, ok := cl.Classify(line, src, time.Now())
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no pattern matched")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "category:   %s\n", ev.Category)
		fmt.Fprintf(w, "severity:   %s\n", ev.Severity)
		fmt.Fprintf(w, "confidence: %s\n", ev.Confidence)
		keys := make([]string, 0, len(ev.Fields))
		for k := range ev.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "field %s: %s\n", k, ev.Fields[k])
		}
		return nil
	},
}

func init() {
	patternsCmd.AddCommand(patternsTestCmd)
}
