package tracker

import (
	"context"
	"testing"
)

func TestMemory_FindExistingByFingerprintLabel(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rec, err := m.CreateIssue(ctx, "t", "b", []string{"bug", FingerprintLabel("aabb")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := m.FindExisting(ctx, "aabb")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.ID != rec.ID {
		t.Errorf("expected to find issue %s, got %+v", rec.ID, found)
	}

	none, err := m.FindExisting(ctx, "other")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil for unknown fingerprint, got %+v", none)
	}
}

func TestMemory_UpdateUnknownIssueIsRejected(t *testing.T) {
	m := NewMemory()
	err := m.UpdateIssue(context.Background(), "999", "body")
	if !IsRejected(err) {
		t.Fatalf("expected rejected error, got %v", err)
	}
}
