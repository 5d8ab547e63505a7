// Package classify matches raw log lines against an ordered set of category
// rules and produces structured error events.
package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/logpatrol/logpatrol/internal/config"
)

// Confidence levels for a classification. A pattern match with a missing
// required capture group degrades to ConfidenceLow rather than being dropped.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// Source identifies where in the monitored log an event came from.
type Source struct {
	Path  string
	Start int64
	End   int64
}

// ErrorEvent is an immutable record of one detected error occurrence.
type ErrorEvent struct {
	Raw        string
	Category   string
	Severity   string
	Confidence string
	Fields     map[string]string
	Labels     []string
	Source     Source
	DetectedAt time.Time
}

// rule pairs a compiled pattern with its position in the config, which is the
// tie-break for equal priority ranks.
type rule struct {
	pattern config.Pattern
	re      *regexp.Regexp
	order   int
}

// Classifier evaluates patterns in deterministic order: ascending priority
// rank, then config order for equal ranks.
type Classifier struct {
	rules []rule
}

// New compiles the given patterns into a Classifier. Patterns that fail to
// compile are a config error, caught here rather than at match time.
func New(patterns []config.Pattern) (*Classifier, error) {
	rules := make([]rule, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p.Category, err)
		}
		rules = append(rules, rule{pattern: p, re: re, order: i})
	}

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].pattern.Priority != rules[j].pattern.Priority {
			return rules[i].pattern.Priority < rules[j].pattern.Priority
		}
		return rules[i].order < rules[j].order
	})

	return &Classifier{rules: rules}, nil
}

// Patterns returns the classifier's rules in evaluation order.
func (c *Classifier) Patterns() []config.Pattern {
	out := make([]config.Pattern, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.pattern
	}
	return out
}

// sourceFileRe extracts a code file path mentioned in an error message, used
// as the event's logical source location for fingerprinting.
var sourceFileRe = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_/\\]*\.(?:py|go|js|ts|rb|java)`)

// Classify evaluates the rules against a raw line and returns the first
// match as an ErrorEvent. Returns ok=false when no pattern matches; such
// lines are dropped by the caller, never escalated.
func (c *Classifier) Classify(raw string, src Source, now time.Time) (*ErrorEvent, bool) {
	for _, r := range c.rules {
		m := r.re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}

		fields := make(map[string]string)
		for i, name := range r.re.SubexpNames() {
			if name == "" || i >= len(m) {
				continue
			}
			if v := strings.TrimSpace(m[i]); v != "" {
				fields[name] = v
			}
		}
		if _, ok := fields["file"]; !ok {
			if f := sourceFileRe.FindString(raw); f != "" {
				fields["file"] = f
			}
		}

		confidence := ConfidenceHigh
		for _, req := range r.pattern.Required {
			if fields[req] == "" {
				confidence = ConfidenceLow
				break
			}
		}

		return &ErrorEvent{
			Raw:        raw,
			Category:   r.pattern.Category,
			Severity:   r.pattern.Severity,
			Confidence: confidence,
			Fields:     fields,
			Labels:     r.pattern.Labels,
			Source:     src,
			DetectedAt: now,
		}, true
	}
	return nil, false
}

// IsContinuation reports whether a line looks like the continuation of a
// multi-line traceback rather than a standalone log record. The orchestrator
// folds such lines into the preceding event's raw text, bounded by the
// configured context window.
func IsContinuation(text string) bool {
	if text == "" {
		return false
	}
	if strings.HasPrefix(text, " ") || strings.HasPrefix(text, "\t") {
		return true
	}
	return strings.HasPrefix(text, "Traceback (")
}

// SourceLocation returns the event's logical source location: the code file
// extracted from the message when present, otherwise the monitored log path.
// Byte offsets are deliberately excluded so the location survives rotation.
func (e *ErrorEvent) SourceLocation() string {
	if f := e.Fields["file"]; f != "" {
		return f
	}
	return e.Source.Path
}

// PrimaryDetail returns the most informative extracted field for titles and
// summaries, preferring specific fields over the generic detail capture.
func (e *ErrorEvent) PrimaryDetail() string {
	for _, key := range []string{"constraint", "detail", "kind"} {
		if v := e.Fields[key]; v != "" {
			return v
		}
	}
	return ""
}
