// Package tracker defines the capability surface for the external issue
// tracker. The core never touches the tracker except through Client; the
// production binding shells out to gh, and an in-memory binding backs tests
// and dry-run scans.
package tracker

import (
	"context"
	"errors"
	"fmt"
)

// IssueRecord is the tracker's representation of a published error.
type IssueRecord struct {
	ID       string `json:"id"`
	ChangeID string `json:"change_id,omitempty"`
}

// Client provides issue tracker operations. All calls are synchronous and
// bounded by the context's deadline.
type Client interface {
	// FindExisting searches for an open issue carrying the fingerprint
	// label. Returns nil when none exists. This is the authoritative
	// duplicate guard; local state is only an optimization.
	FindExisting(ctx context.Context, fingerprint string) (*IssueRecord, error)

	// CreateIssue files a new issue and returns its record.
	CreateIssue(ctx context.Context, title, body string, labels []string) (*IssueRecord, error)

	// CreateBranch creates a branch off the default branch.
	CreateBranch(ctx context.Context, name string) error

	// ProposeChange publishes a patch on the branch as a pull-request
	// equivalent linked to the issue, returning the change identifier.
	ProposeChange(ctx context.Context, branch, title, patch, issueID string) (string, error)

	// UpdateIssue replaces an issue's body.
	UpdateIssue(ctx context.Context, id, body string) error
}

// TransientError marks a failure worth retrying: rate limiting, timeouts,
// transient network trouble.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("tracker transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// RejectedError marks a failure retrying cannot fix: authentication,
// permissions, malformed payloads. Surfaced to the operator instead of
// retried.
type RejectedError struct {
	Err error
}

func (e *RejectedError) Error() string { return fmt.Sprintf("tracker rejected: %v", e.Err) }
func (e *RejectedError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsRejected reports whether err is (or wraps) a RejectedError.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// FingerprintLabel returns the issue label that carries a fingerprint.
func FingerprintLabel(fingerprint string) string {
	return "patrol:fp:" + fingerprint
}
