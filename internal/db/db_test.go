package db

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "patrol.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

func TestMigrate_Idempotent(t *testing.T) {
	d := testDB(t)
	if err := d.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestLogCycle_Roundtrip(t *testing.T) {
	d := testDB(t)

	err := d.LogCycle(CycleEvent{
		Repo:       "acme/shop",
		Status:     "ok",
		LinesRead:  12,
		Classified: 3,
		Published:  2,
		Existing:   1,
		DurationMs: 450,
	})
	if err != nil {
		t.Fatalf("log cycle: %v", err)
	}

	events, err := d.RecentCycles("acme/shop", 10)
	if err != nil {
		t.Fatalf("recent cycles: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Status != "ok" || e.LinesRead != 12 || e.Classified != 3 || e.Published != 2 {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Timestamp == "" {
		t.Error("expected timestamp to be set")
	}
}

func TestRecentCycles_ScopedToRepo(t *testing.T) {
	d := testDB(t)
	if err := d.LogCycle(CycleEvent{Repo: "acme/shop", Status: "ok"}); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := d.LogCycle(CycleEvent{Repo: "acme/other", Status: "deferred"}); err != nil {
		t.Fatalf("log: %v", err)
	}

	events, err := d.RecentCycles("acme/shop", 10)
	if err != nil {
		t.Fatalf("recent cycles: %v", err)
	}
	if len(events) != 1 || events[0].Repo != "acme/shop" {
		t.Errorf("expected only acme/shop events, got %+v", events)
	}
}

func TestLogPublish_Roundtrip(t *testing.T) {
	d := testDB(t)

	err := d.LogPublish(PublishEvent{
		Repo:        "acme/shop",
		Fingerprint: "aabbccdd",
		Category:    "database_error",
		Action:      "created",
		IssueID:     "42",
	})
	if err != nil {
		t.Fatalf("log publish: %v", err)
	}

	events, err := d.RecentPublishes("acme/shop", 10)
	if err != nil {
		t.Fatalf("recent publishes: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Fingerprint != "aabbccdd" || e.Action != "created" || e.IssueID != "42" {
		t.Errorf("unexpected event: %+v", e)
	}
}

func TestLogPublish_RejectsUnknownAction(t *testing.T) {
	d := testDB(t)
	err := d.LogPublish(PublishEvent{Repo: "acme/shop", Fingerprint: "x", Category: "c", Action: "invented"})
	if err == nil {
		t.Fatal("expected CHECK constraint violation for unknown action")
	}
}

func TestReset_ClearsEvents(t *testing.T) {
	d := testDB(t)
	if err := d.LogCycle(CycleEvent{Repo: "acme/shop", Status: "ok"}); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := d.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	events, err := d.RecentCycles("acme/shop", 10)
	if err != nil {
		t.Fatalf("recent cycles after reset: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events after reset, got %d", len(events))
	}
}
