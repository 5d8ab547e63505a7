package classify

import (
	"testing"
	"time"

	"github.com/logpatrol/logpatrol/internal/config"
)

var testNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func builtinClassifier(t *testing.T) *Classifier {
	t.Helper()
	cl, err := New(config.BuiltinPatterns())
	if err != nil {
		t.Fatalf("compile builtin patterns: %v", err)
	}
	return cl
}

func TestClassify_DatabaseErrorWithConstraint(t *testing.T) {
	cl := builtinClassifier(t)
	line := "ERROR 2026-08-24 django.db.backends: IntegrityError: UNIQUE constraint failed: users_user.email"

	ev, ok := cl.Classify(line, Source{Path: "app.log", Start: 0, End: int64(len(line))}, testNow)
	if !ok {
		t.Fatal("expected a match")
	}
	if ev.Category != "database_error" {
		t.Errorf("expected database_error, got %q", ev.Category)
	}
	if ev.Severity != "high" {
		t.Errorf("expected high severity, got %q", ev.Severity)
	}
	if ev.Confidence != ConfidenceHigh {
		t.Errorf("expected high confidence, got %q", ev.Confidence)
	}
	if ev.Fields["constraint"] != "users_user.email" {
		t.Errorf("expected constraint field, got %v", ev.Fields)
	}
	if ev.Fields["kind"] != "IntegrityError" {
		t.Errorf("expected kind field, got %v", ev.Fields)
	}
}

func TestClassify_MissingRequiredGroupDegradesConfidence(t *testing.T) {
	cl := builtinClassifier(t)
	line := "ERROR django.db: OperationalError: could not connect to server"

	ev, ok := cl.Classify(line, Source{}, testNow)
	if !ok {
		t.Fatal("expected a match")
	}
	if ev.Category != "database_error" {
		t.Errorf("expected database_error, got %q", ev.Category)
	}
	if ev.Confidence != ConfidenceLow {
		t.Errorf("expected low confidence without constraint, got %q", ev.Confidence)
	}
}

func TestClassify_NoMatchIsDropped(t *testing.T) {
	cl := builtinClassifier(t)
	_, ok := cl.Classify("INFO request handled in 12ms", Source{}, testNow)
	if ok {
		t.Error("expected no match for an info line")
	}
}

func TestClassify_PriorityOrderWins(t *testing.T) {
	// Both patterns match; the lower priority rank must win.
	patterns := []config.Pattern{
		{Category: "broad", Severity: "low", Regex: `Error`, Priority: 50},
		{Category: "specific", Severity: "high", Regex: `IntegrityError`, Priority: 10},
	}
	cl, err := New(patterns)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	ev, ok := cl.Classify("IntegrityError: boom", Source{}, testNow)
	if !ok {
		t.Fatal("expected a match")
	}
	if ev.Category != "specific" {
		t.Errorf("expected specific to win on priority, got %q", ev.Category)
	}
}

func TestClassify_ConfigOrderBreaksTies(t *testing.T) {
	patterns := []config.Pattern{
		{Category: "first", Severity: "low", Regex: `Error`, Priority: 10},
		{Category: "second", Severity: "low", Regex: `Error`, Priority: 10},
	}
	cl, err := New(patterns)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	for i := 0; i < 20; i++ {
		ev, ok := cl.Classify("Error: anything", Source{}, testNow)
		if !ok {
			t.Fatal("expected a match")
		}
		if ev.Category != "first" {
			t.Fatalf("tie-break not deterministic: got %q on run %d", ev.Category, i)
		}
	}
}

func TestClassify_ExtractsSourceFile(t *testing.T) {
	cl := builtinClassifier(t)
	line := `ERROR django.request: Internal Server Error: AttributeError in shop/views/checkout.py line 42`

	ev, ok := cl.Classify(line, Source{Path: "app.log"}, testNow)
	if !ok {
		t.Fatal("expected a match")
	}
	if ev.Fields["file"] != "shop/views/checkout.py" {
		t.Errorf("expected extracted file path, got %v", ev.Fields)
	}
	if ev.SourceLocation() != "shop/views/checkout.py" {
		t.Errorf("expected code file as source location, got %q", ev.SourceLocation())
	}
}

func TestSourceLocation_FallsBackToLogPath(t *testing.T) {
	ev := &ErrorEvent{Fields: map[string]string{}, Source: Source{Path: "logs/app.log"}}
	if got := ev.SourceLocation(); got != "logs/app.log" {
		t.Errorf("expected log path fallback, got %q", got)
	}
}

func TestNew_BadRegexFails(t *testing.T) {
	_, err := New([]config.Pattern{{Category: "bad", Regex: "([unclosed"}})
	if err == nil {
		t.Fatal("expected compile error, got nil")
	}
}

func TestIsContinuation(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"  File \"views.py\", line 10", true},
		{"\traise IntegrityError", true},
		{"Traceback (most recent call last):", true},
		{"ERROR new record", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsContinuation(c.text); got != c.want {
			t.Errorf("IsContinuation(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestPrimaryDetail_Preference(t *testing.T) {
	ev := &ErrorEvent{Fields: map[string]string{"kind": "IntegrityError", "constraint": "users_user.email"}}
	if got := ev.PrimaryDetail(); got != "users_user.email" {
		t.Errorf("expected constraint preferred, got %q", got)
	}

	ev = &ErrorEvent{Fields: map[string]string{"kind": "KeyError", "detail": "'user_id'"}}
	if got := ev.PrimaryDetail(); got != "'user_id'" {
		t.Errorf("expected detail preferred over kind, got %q", got)
	}
}
