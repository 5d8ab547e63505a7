package db

import "fmt"

// CycleEvent represents a row in the cycle_events table.
type CycleEvent struct {
	ID         int
	Repo       string
	Status     string
	LinesRead  int
	Classified int
	Published  int
	Existing   int
	Deferred   int
	Rejected   int
	DurationMs int
	Detail     string
	Timestamp  string
}

// PublishEvent represents a row in the publish_events table.
type PublishEvent struct {
	ID          int
	Repo        string
	Fingerprint string
	Category    string
	Action      string
	IssueID     string
	Detail      string
	Timestamp   string
}

// LogCycle records the outcome of one scan cycle.
func (d *DB) LogCycle(e CycleEvent) error {
	_, err := d.conn.Exec(
		`INSERT INTO cycle_events (repo, status, lines_read, classified, published, existing, deferred, rejected, duration_ms, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Repo, e.Status, e.LinesRead, e.Classified, e.Published, e.Existing, e.Deferred, e.Rejected, e.DurationMs, e.Detail,
	)
	if err != nil {
		return fmt.Errorf("log cycle event: %w", err)
	}
	return nil
}

// LogPublish records one publish attempt for a fingerprint.
func (d *DB) LogPublish(e PublishEvent) error {
	_, err := d.conn.Exec(
		`INSERT INTO publish_events (repo, fingerprint, category, action, issue_id, detail)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Repo, e.Fingerprint, e.Category, e.Action, e.IssueID, e.Detail,
	)
	if err != nil {
		return fmt.Errorf("log publish event: %w", err)
	}
	return nil
}

// RecentCycles returns the most recent cycle events for a repo, newest first.
func (d *DB) RecentCycles(repo string, limit int) ([]CycleEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, repo, status, lines_read, classified, published, existing, deferred, rejected,
		        COALESCE(duration_ms, 0), COALESCE(detail, ''), timestamp
		 FROM cycle_events WHERE repo = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		repo, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent cycles: %w", err)
	}
	defer rows.Close()

	var events []CycleEvent
	for rows.Next() {
		var e CycleEvent
		if err := rows.Scan(&e.ID, &e.Repo, &e.Status, &e.LinesRead, &e.Classified, &e.Published,
			&e.Existing, &e.Deferred, &e.Rejected, &e.DurationMs, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan cycle event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// RecentPublishes returns the most recent publish events for a repo, newest first.
func (d *DB) RecentPublishes(repo string, limit int) ([]PublishEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, repo, fingerprint, category, action, COALESCE(issue_id, ''), COALESCE(detail, ''), timestamp
		 FROM publish_events WHERE repo = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		repo, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent publishes: %w", err)
	}
	defer rows.Close()

	var events []PublishEvent
	for rows.Next() {
		var e PublishEvent
		if err := rows.Scan(&e.ID, &e.Repo, &e.Fingerprint, &e.Category, &e.Action, &e.IssueID, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan publish event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
