// Package fix maps classified error events to remediation proposals filled
// from per-category templates. Templates are data, not code: generation is a
// deterministic pure function of the event, never inspects the target
// codebase, and carries no correctness guarantee on the proposed change.
package fix

import (
	"fmt"
	"regexp"

	"github.com/logpatrol/logpatrol/internal/classify"
)

// UnknownValue renders in place of any placeholder the event has no value
// for, instead of failing generation.
const UnknownValue = "UNKNOWN (manual review required)"

var varRe = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)

// Proposal is a generated remediation package for one classified error.
// Ephemeral: it lives only for the publish attempt.
type Proposal struct {
	Category string
	Title    string
	Body     string
	Patch    string
	Branch   string
}

// Template is one per-category remediation template with {{name}}
// placeholders filled from the event's extracted fields.
type Template struct {
	Title string
	Body  string
	Patch string
}

// Generator renders proposals from a fixed template set. The environment
// name tags every generated body so reviewers can tell production reports
// from staging ones.
type Generator struct {
	templates   map[string]Template
	environment string
}

// NewGenerator returns a Generator with the builtin template set.
func NewGenerator(environment string) *Generator {
	return &Generator{templates: builtinTemplates, environment: environment}
}

// Generate renders the proposal for an event. The same event always yields
// the same proposal; the fingerprint only names the branch.
func (g *Generator) Generate(e *classify.ErrorEvent, fingerprint string) Proposal {
	tmpl, ok := g.templates[e.Category]
	if !ok {
		tmpl = genericTemplate
	}

	vars := map[string]string{
		"category":    e.Category,
		"severity":    e.Severity,
		"confidence":  e.Confidence,
		"raw":         e.Raw,
		"source":      e.SourceLocation(),
		"environment": g.environment,
	}
	for k, v := range e.Fields {
		vars[k] = v
	}

	branch := fingerprint
	if len(branch) > 8 {
		branch = branch[:8]
	}

	return Proposal{
		Category: e.Category,
		Title:    render(tmpl.Title, vars),
		Body:     render(tmpl.Body, vars),
		Patch:    render(tmpl.Patch, vars),
		Branch:   fmt.Sprintf("fix/%s-%s", e.Category, branch),
	}
}

// render expands {{name}} placeholders. Missing values render as
// UnknownValue so a sparse event still produces a reviewable proposal.
func render(tmpl string, vars map[string]string) string {
	return varRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		m := varRe.FindStringSubmatch(match)
		if m == nil {
			return match
		}
		if val, ok := vars[m[1]]; ok && val != "" {
			return val
		}
		return UnknownValue
	})
}
