package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration structure parsed from patrol YAML.
type Config struct {
	Monitor  Monitor   `yaml:"monitor"`
	Patterns []Pattern `yaml:"patterns"`
}

// Monitor holds the runtime settings consumed by the cycle orchestrator.
// The struct is built once at startup and never reloaded or mutated.
type Monitor struct {
	RepoOwner         string `yaml:"repo_owner"`
	RepoName          string `yaml:"repo_name"`
	LogPath           string `yaml:"log_path"`
	Interval          string `yaml:"interval"`
	MaxErrorsPerBatch int    `yaml:"max_errors_per_batch"`
	Environment       string `yaml:"environment"`
	StateDir          string `yaml:"state_dir"`
	ContextLines      int    `yaml:"context_lines"`
}

// Repo returns the "owner/name" form of the target repository.
func (m Monitor) Repo() string {
	return m.RepoOwner + "/" + m.RepoName
}

// IntervalDuration parses the scan interval. Callers should validate first;
// an unparseable interval falls back to one minute.
func (m Monitor) IntervalDuration() time.Duration {
	d, err := time.ParseDuration(m.Interval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// Pattern defines one classification rule mapping log text shape to a
// category/severity/extracted-fields tuple. Lower priority rank wins when
// multiple patterns match; config order breaks ties between equal ranks.
type Pattern struct {
	Category string   `yaml:"category"`
	Severity string   `yaml:"severity"`
	Regex    string   `yaml:"regex"`
	Priority int      `yaml:"priority"`
	Required []string `yaml:"required"`
	Labels   []string `yaml:"labels"`
}

func (p Pattern) String() string {
	return fmt.Sprintf("%s (priority %d, severity %s)", p.Category, p.Priority, p.Severity)
}
