package fix

import (
	"strings"
	"testing"

	"github.com/logpatrol/logpatrol/internal/classify"
)

func dbEvent() *classify.ErrorEvent {
	return &classify.ErrorEvent{
		Raw:        "IntegrityError: UNIQUE constraint failed: users_user.email",
		Category:   "database_error",
		Severity:   "high",
		Confidence: classify.ConfidenceHigh,
		Fields: map[string]string{
			"kind":       "IntegrityError",
			"constraint": "users_user.email",
		},
		Source: classify.Source{Path: "logs/app.log"},
	}
}

func TestGenerate_DatabaseError(t *testing.T) {
	g := NewGenerator("production")
	p := g.Generate(dbEvent(), "aabbccdd11223344aabbccdd11223344")

	if p.Category != "database_error" {
		t.Errorf("expected category preserved, got %q", p.Category)
	}
	if p.Title != "database_error: constraint failure on users_user.email" {
		t.Errorf("unexpected title: %q", p.Title)
	}
	if !strings.Contains(p.Body, "users_user.email") {
		t.Errorf("body missing constraint:\n%s", p.Body)
	}
	if !strings.Contains(p.Body, "IntegrityError: UNIQUE constraint failed") {
		t.Errorf("body missing raw error:\n%s", p.Body)
	}
	if !strings.Contains(p.Body, "**Environment:** production") {
		t.Errorf("body missing environment tag:\n%s", p.Body)
	}
	if !strings.Contains(p.Patch, "IntegrityError") {
		t.Errorf("patch missing integrity handling:\n%s", p.Patch)
	}
	if p.Branch != "fix/database_error-aabbccdd" {
		t.Errorf("unexpected branch name: %q", p.Branch)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator("production")
	a := g.Generate(dbEvent(), "aabbccdd11223344aabbccdd11223344")
	b := g.Generate(dbEvent(), "aabbccdd11223344aabbccdd11223344")
	if a != b {
		t.Errorf("same event produced different proposals:\n%+v\n%+v", a, b)
	}
}

func TestGenerate_MissingFieldRendersUnknown(t *testing.T) {
	ev := dbEvent()
	delete(ev.Fields, "constraint")
	ev.Confidence = classify.ConfidenceLow

	g := NewGenerator("production")
	p := g.Generate(ev, "aabbccdd11223344aabbccdd11223344")

	if !strings.Contains(p.Title, UnknownValue) {
		t.Errorf("expected unknown marker in title, got %q", p.Title)
	}
	if !strings.Contains(p.Body, UnknownValue) {
		t.Errorf("expected unknown marker in body:\n%s", p.Body)
	}
}

func TestGenerate_UnknownCategoryUsesGenericTemplate(t *testing.T) {
	ev := dbEvent()
	ev.Category = "custom_error"

	g := NewGenerator("production")
	p := g.Generate(ev, "aabbccdd11223344aabbccdd11223344")

	if !strings.HasPrefix(p.Title, "custom_error: ") {
		t.Errorf("expected generic title, got %q", p.Title)
	}
	if !strings.Contains(p.Body, "custom_error") {
		t.Errorf("expected category in generic body:\n%s", p.Body)
	}
	if p.Branch != "fix/custom_error-aabbccdd" {
		t.Errorf("unexpected branch name: %q", p.Branch)
	}
}

func TestGenerate_AllBuiltinCategoriesHaveTemplates(t *testing.T) {
	for _, cat := range []string{"database_error", "authentication_error", "server_error", "validation_error", "performance_issue"} {
		if _, ok := builtinTemplates[cat]; !ok {
			t.Errorf("missing builtin template for %s", cat)
		}
	}
}

func TestRender_LeavesMalformedPlaceholdersAlone(t *testing.T) {
	got := render("{{valid}} and {{not closed", map[string]string{"valid": "x"})
	if got != "x and {{not closed" {
		t.Errorf("unexpected render result: %q", got)
	}
}
