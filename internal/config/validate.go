package config

import (
	"fmt"
	"regexp"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// validSeverities is the set of recognized pattern severities.
var validSeverities = map[string]bool{
	"critical": true,
	"high":     true,
	"medium":   true,
	"low":      true,
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError
	m := cfg.Monitor

	if m.RepoOwner == "" {
		errs = append(errs, ValidationError{Field: "monitor.repo_owner", Message: "is required"})
	}
	if m.RepoName == "" {
		errs = append(errs, ValidationError{Field: "monitor.repo_name", Message: "is required"})
	}
	if m.LogPath == "" {
		errs = append(errs, ValidationError{Field: "monitor.log_path", Message: "is required"})
	}
	if m.Interval != "" {
		if d, err := time.ParseDuration(m.Interval); err != nil {
			errs = append(errs, ValidationError{
				Field:   "monitor.interval",
				Message: fmt.Sprintf("invalid duration %q", m.Interval),
			})
		} else if d <= 0 {
			errs = append(errs, ValidationError{Field: "monitor.interval", Message: "must be positive"})
		}
	}
	if m.ContextLines < 0 {
		errs = append(errs, ValidationError{Field: "monitor.context_lines", Message: "must not be negative"})
	}

	if len(cfg.Patterns) == 0 {
		errs = append(errs, ValidationError{Field: "patterns", Message: "at least one pattern is required"})
	}

	for i, p := range cfg.Patterns {
		prefix := fmt.Sprintf("patterns[%d]", i)

		if p.Category == "" {
			errs = append(errs, ValidationError{Field: prefix + ".category", Message: "is required"})
		}
		if p.Severity != "" && !validSeverities[p.Severity] {
			errs = append(errs, ValidationError{
				Field:   prefix + ".severity",
				Message: fmt.Sprintf("unrecognized severity %q", p.Severity),
			})
		}
		if p.Regex == "" {
			errs = append(errs, ValidationError{Field: prefix + ".regex", Message: "is required"})
			continue
		}

		re, err := regexp.Compile(p.Regex)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   prefix + ".regex",
				Message: fmt.Sprintf("does not compile: %v", err),
			})
			continue
		}

		// Required field names must exist as named capture groups.
		groups := make(map[string]bool)
		for _, name := range re.SubexpNames() {
			if name != "" {
				groups[name] = true
			}
		}
		for _, req := range p.Required {
			if !groups[req] {
				errs = append(errs, ValidationError{
					Field:   prefix + ".required",
					Message: fmt.Sprintf("references capture group %q not present in regex", req),
				})
			}
		}
	}

	return errs
}
