package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/logpatrol/logpatrol/internal/classify"
	"github.com/logpatrol/logpatrol/internal/config"
	"github.com/logpatrol/logpatrol/internal/db"
	"github.com/logpatrol/logpatrol/internal/fix"
	"github.com/logpatrol/logpatrol/internal/monitor"
	"github.com/logpatrol/logpatrol/internal/state"
	"github.com/logpatrol/logpatrol/internal/tracker"
)

// loadConfig reads and validates configuration, honoring the --config flag.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}
	return cfg, nil
}

// newTracker picks the tracker binding: in-memory for dry runs, gh-backed
// otherwise.
func newTracker(dryRun bool, repo string) tracker.Client {
	if dryRun {
		return tracker.NewMemory()
	}
	return tracker.NewGHClient(&tracker.ExecRunner{}, repo)
}

// newOrchestrator wires the full pipeline from config. A dry run gets a
// scratch copy of the persisted state so it sees real dedup history but
// never writes back: fingerprints recorded against the in-memory tracker
// must not suppress later real filings. The returned cleanup closes the
// journal and removes the scratch state; callers must defer it.
func newOrchestrator(cfg *config.Config, tc tracker.Client, dryRun bool) (*monitor.Orchestrator, func(), error) {
	cl, err := classify.New(cfg.Patterns)
	if err != nil {
		return nil, nil, fmt.Errorf("compile patterns: %w", err)
	}

	if err := os.MkdirAll(cfg.Monitor.StateDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create state dir: %w", err)
	}
	statePath := state.StatePath(cfg.Monitor.StateDir, cfg.Monitor.RepoOwner, cfg.Monitor.RepoName)

	var scratchDir string
	if dryRun {
		scratchDir, statePath, err = scratchStateCopy(statePath)
		if err != nil {
			return nil, nil, err
		}
	}
	st := state.NewStore(statePath)

	// The journal is observability, not correctness: a broken journal never
	// blocks a scan.
	journal, err := openJournal()
	if err != nil {
		slog.Warn("event journal unavailable, continuing without it", "error", err)
		journal = nil
	}

	orch := monitor.New(cfg.Monitor, cl, st, fix.NewGenerator(cfg.Monitor.Environment), tc, journal)
	cleanup := func() {
		if journal != nil {
			journal.Close()
		}
		if scratchDir != "" {
			os.RemoveAll(scratchDir)
		}
	}
	return orch, cleanup, nil
}

// scratchStateCopy copies the persisted state file into a throwaway
// directory and returns that directory plus the copy's path. A missing
// state file yields a path to a not-yet-existing copy, matching a fresh run.
func scratchStateCopy(path string) (dir, scratch string, err error) {
	dir, err = os.MkdirTemp("", "patrol-dryrun-*")
	if err != nil {
		return "", "", fmt.Errorf("create scratch state dir: %w", err)
	}
	scratch = filepath.Join(dir, filepath.Base(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return dir, scratch, nil
		}
		os.RemoveAll(dir)
		return "", "", fmt.Errorf("copy state for dry run: %w", err)
	}
	if err := os.WriteFile(scratch, data, 0o644); err != nil {
		os.RemoveAll(dir)
		return "", "", fmt.Errorf("copy state for dry run: %w", err)
	}
	return dir, scratch, nil
}

func openJournal() (*db.DB, error) {
	path, err := db.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	d, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
