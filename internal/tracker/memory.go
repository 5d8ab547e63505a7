package tracker

import (
	"context"
	"strconv"
	"sync"
)

// MemoryIssue is one issue held by the in-memory binding.
type MemoryIssue struct {
	ID     string
	Title  string
	Body   string
	Labels []string
	State  string
}

// MemoryChange is one proposed change held by the in-memory binding.
type MemoryChange struct {
	ID      string
	Branch  string
	Title   string
	Patch   string
	IssueID string
}

// Memory is an in-memory Client. It backs dry-run scans and lets the whole
// pipeline be exercised without any live network dependency.
type Memory struct {
	mu       sync.Mutex
	nextID   int
	Issues   []MemoryIssue
	Branches []string
	Changes  []MemoryChange

	// Call counters, inspected by tests and dry-run summaries.
	FindCalls   int
	CreateCalls int
}

// NewMemory creates an empty in-memory tracker.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) FindExisting(ctx context.Context, fingerprint string) (*IssueRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++

	label := FingerprintLabel(fingerprint)
	for _, issue := range m.Issues {
		if issue.State != "open" {
			continue
		}
		for _, l := range issue.Labels {
			if l == label {
				return &IssueRecord{ID: issue.ID}, nil
			}
		}
	}
	return nil, nil
}

func (m *Memory) CreateIssue(ctx context.Context, title, body string, labels []string) (*IssueRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++

	m.nextID++
	id := strconv.Itoa(m.nextID)
	m.Issues = append(m.Issues, MemoryIssue{
		ID:     id,
		Title:  title,
		Body:   body,
		Labels: append([]string(nil), labels...),
		State:  "open",
	})
	return &IssueRecord{ID: id}, nil
}

func (m *Memory) CreateBranch(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Branches = append(m.Branches, name)
	return nil
}

func (m *Memory) ProposeChange(ctx context.Context, branch, title, patch, issueID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := strconv.Itoa(m.nextID)
	m.Changes = append(m.Changes, MemoryChange{
		ID:      id,
		Branch:  branch,
		Title:   title,
		Patch:   patch,
		IssueID: issueID,
	})
	return id, nil
}

func (m *Memory) UpdateIssue(ctx context.Context, id, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.Issues {
		if m.Issues[i].ID == id {
			m.Issues[i].Body = body
			return nil
		}
	}
	return &RejectedError{Err: errNoSuchIssue(id)}
}

type errNoSuchIssue string

func (e errNoSuchIssue) Error() string { return "no such issue " + string(e) }
