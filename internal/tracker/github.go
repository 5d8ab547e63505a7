package tracker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// CmdRunner provides gh command execution. Interface for testing.
type CmdRunner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs gh commands via exec.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("gh %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// GHClient implements Client against GitHub through the gh CLI.
// Calls are rate limited and bounded by a per-call timeout; timeouts count
// as transient failures.
type GHClient struct {
	cmd     CmdRunner
	repo    string // owner/name
	base    string // default branch for new branches and PRs
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGHClient creates a GitHub tracker binding for the given repository.
func NewGHClient(cmd CmdRunner, repo string) *GHClient {
	return &GHClient{
		cmd:     cmd,
		repo:    repo,
		base:    "main",
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		timeout: 30 * time.Second,
	}
}

// run acquires the rate limiter, applies the call timeout, executes gh, and
// classifies any failure into the tracker error taxonomy.
func (c *GHClient) run(ctx context.Context, args ...string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &TransientError{Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.cmd.Run(callCtx, args...)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return out, &TransientError{Err: fmt.Errorf("timeout after %s: %w", c.timeout, err)}
		}
		return out, classifyGHError(out, err)
	}
	return out, nil
}

// rejectedMarkers identify gh failures no retry can fix.
var rejectedMarkers = []string{
	"HTTP 401",
	"HTTP 403",
	"HTTP 404",
	"HTTP 422",
	"Bad credentials",
	"Validation Failed",
	"not authorized",
	"permission",
	"authentication",
}

// classifyGHError maps a gh failure to the tracker error taxonomy. Unknown
// failures default to transient so a flaky network never poisons state.
func classifyGHError(out string, err error) error {
	combined := strings.ToLower(out + " " + err.Error())
	for _, marker := range rejectedMarkers {
		if strings.Contains(combined, strings.ToLower(marker)) {
			return &RejectedError{Err: err}
		}
	}
	return &TransientError{Err: err}
}

// FindExisting searches open issues for the fingerprint label.
func (c *GHClient) FindExisting(ctx context.Context, fingerprint string) (*IssueRecord, error) {
	out, err := c.run(ctx, "issue", "list",
		"--repo", c.repo,
		"--label", FingerprintLabel(fingerprint),
		"--state", "open",
		"--json", "number",
		"--limit", "1")
	if err != nil {
		return nil, fmt.Errorf("find existing issue: %w", err)
	}

	var issues []struct {
		Number int `json:"number"`
	}
	if err := json.Unmarshal([]byte(out), &issues); err != nil {
		return nil, &RejectedError{Err: fmt.Errorf("parse issue list JSON: %w", err)}
	}
	if len(issues) == 0 {
		return nil, nil
	}
	return &IssueRecord{ID: strconv.Itoa(issues[0].Number)}, nil
}

// CreateIssue files a new issue. Labels are created best-effort first so a
// missing label never rejects the issue itself.
func (c *GHClient) CreateIssue(ctx context.Context, title, body string, labels []string) (*IssueRecord, error) {
	for _, label := range labels {
		_, _ = c.run(ctx, "label", "create", label, "--repo", c.repo, "--force")
	}

	args := []string{"issue", "create", "--repo", c.repo, "--title", title, "--body", body}
	for _, label := range labels {
		args = append(args, "--label", label)
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	id, err := issueNumberFromURL(out)
	if err != nil {
		return nil, &RejectedError{Err: err}
	}
	return &IssueRecord{ID: id}, nil
}

// issueNumberFromURL extracts the trailing number from the issue URL that
// gh issue create prints.
func issueNumberFromURL(out string) (string, error) {
	lines := strings.Fields(out)
	if len(lines) == 0 {
		return "", errors.New("empty gh issue create output")
	}
	url := lines[len(lines)-1]
	idx := strings.LastIndexByte(url, '/')
	if idx < 0 || idx == len(url)-1 {
		return "", fmt.Errorf("no issue number in output %q", out)
	}
	num := url[idx+1:]
	if _, err := strconv.Atoi(num); err != nil {
		return "", fmt.Errorf("no issue number in output %q", out)
	}
	return num, nil
}

// CreateBranch creates a branch off the default branch via the git data API.
func (c *GHClient) CreateBranch(ctx context.Context, name string) error {
	sha, err := c.run(ctx, "api",
		fmt.Sprintf("repos/%s/git/ref/heads/%s", c.repo, c.base),
		"--jq", ".object.sha")
	if err != nil {
		return fmt.Errorf("resolve %s head: %w", c.base, err)
	}

	_, err = c.run(ctx, "api",
		fmt.Sprintf("repos/%s/git/refs", c.repo),
		"-f", "ref=refs/heads/"+name,
		"-f", "sha="+sha)
	if err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

// ProposeChange commits the patch onto the branch as a file via the contents
// API, then opens a PR linked to the issue. The patch travels as repository
// content; no local checkout is involved.
func (c *GHClient) ProposeChange(ctx context.Context, branch, title, patch, issueID string) (string, error) {
	path := fmt.Sprintf("patches/%s.patch", strings.ReplaceAll(branch, "/", "-"))
	encoded := base64.StdEncoding.EncodeToString([]byte(patch))

	_, err := c.run(ctx, "api", "--method", "PUT",
		fmt.Sprintf("repos/%s/contents/%s", c.repo, path),
		"-f", "message=add automated fix proposal",
		"-f", "content="+encoded,
		"-f", "branch="+branch)
	if err != nil {
		return "", fmt.Errorf("commit patch to %s: %w", branch, err)
	}

	body := fmt.Sprintf("Fixes #%s\n\nAutomated fix proposal. Review the patch under `%s` before merging.", issueID, path)
	out, err := c.run(ctx, "pr", "create",
		"--repo", c.repo,
		"--head", branch,
		"--base", c.base,
		"--title", title,
		"--body", body)
	if err != nil {
		return "", fmt.Errorf("create PR for %s: %w", branch, err)
	}
	return out, nil
}

// UpdateIssue replaces an issue's body.
func (c *GHClient) UpdateIssue(ctx context.Context, id, body string) error {
	_, err := c.run(ctx, "issue", "edit", id, "--repo", c.repo, "--body", body)
	if err != nil {
		return fmt.Errorf("update issue %s: %w", id, err)
	}
	return nil
}
