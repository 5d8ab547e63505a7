// Package monitor drives scan cycles: tail, classify, dedupe, propose,
// publish. One cycle runs to completion before the next starts; cycles never
// overlap.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/logpatrol/logpatrol/internal/classify"
	"github.com/logpatrol/logpatrol/internal/config"
	"github.com/logpatrol/logpatrol/internal/db"
	"github.com/logpatrol/logpatrol/internal/fix"
	"github.com/logpatrol/logpatrol/internal/state"
	"github.com/logpatrol/logpatrol/internal/tailer"
	"github.com/logpatrol/logpatrol/internal/tracker"
)

// Cycle terminal statuses.
const (
	StatusOK                = "ok"
	StatusPartial           = "partial"
	StatusDeferred          = "deferred"
	StatusSourceUnavailable = "source_unavailable"
)

// CycleResult summarizes one Scanning→Publishing pass.
type CycleResult struct {
	Status     string `json:"status"`
	LinesRead  int    `json:"lines_read"`
	Classified int    `json:"classified"`
	Published  int    `json:"published"`
	Existing   int    `json:"existing"`
	Deferred   int    `json:"deferred"`
	Rejected   int    `json:"rejected"`
	Message    string `json:"message,omitempty"`
}

// Orchestrator composes the pipeline components and runs cycles over them.
type Orchestrator struct {
	cfg        config.Monitor
	classifier *classify.Classifier
	store      *state.Store
	gen        *fix.Generator
	tracker    tracker.Client
	journal    *db.DB // optional; nil disables journaling
	log        *slog.Logger

	// Retry tuning for transient tracker failures; tests shrink these.
	backoffBase time.Duration
	maxAttempts int
	now         func() time.Time
}

// New creates an Orchestrator with production retry tuning.
func New(cfg config.Monitor, cl *classify.Classifier, st *state.Store, gen *fix.Generator, tc tracker.Client, journal *db.DB) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		classifier:  cl,
		store:       st,
		gen:         gen,
		tracker:     tc,
		journal:     journal,
		log:         slog.Default(),
		backoffBase: 500 * time.Millisecond,
		maxAttempts: 4,
		now:         time.Now,
	}
}

// RunCycle executes exactly one Scanning→Publishing cycle. It returns an
// error only for shared-infrastructure failures (state file unwritable);
// per-event failures and a missing log source are reported in the result.
func (o *Orchestrator) RunCycle(ctx context.Context) (*CycleResult, error) {
	started := o.now()
	res := &CycleResult{Status: StatusOK}

	ps, err := o.store.Load()
	if err != nil {
		// Corrupt state: recover by rescanning from zero. Loud by design;
		// the one-time duplicate risk is accepted.
		o.log.Warn("processing state corrupt, resetting to empty state; already-reported issues may be re-filed once",
			"path", o.store.Path(), "error", err)
		ps = state.NewProcessingState()
	}

	lines, readOffset, newMarker, err := tailer.Read(o.cfg.LogPath, ps.Offset, ps.RotationMarker)
	if err != nil {
		res.Status = StatusSourceUnavailable
		res.Message = err.Error()
		o.log.Warn("log source unavailable, will retry next cycle", "path", o.cfg.LogPath, "error", err)
		o.logCycle(res, started)
		return res, nil
	}
	res.LinesRead = len(lines)

	batch, consumed := o.scan(lines, readOffset)
	res.Classified = len(batch)

	newOffset := o.publish(ctx, ps, batch, consumed, res)

	ps.Offset = newOffset
	ps.RotationMarker = newMarker
	if err := o.store.Save(ps); err != nil {
		return nil, fmt.Errorf("persist processing state: %w", err)
	}

	o.logCycle(res, started)
	return res, nil
}

// scan classifies newly appended lines into the cycle's event batch, capped
// at MaxErrorsPerBatch. The returned offset covers only consumed lines, so
// capped-out lines re-enter the next cycle rather than being dropped.
func (o *Orchestrator) scan(lines []tailer.Line, readOffset int64) ([]*classify.ErrorEvent, int64) {
	consumed := readOffset
	if len(lines) > 0 {
		consumed = lines[0].Start
	}

	var batch []*classify.ErrorEvent
	for i := 0; i < len(lines); i++ {
		if len(batch) >= o.cfg.MaxErrorsPerBatch {
			o.log.Debug("batch cap reached, deferring remaining lines to next cycle",
				"cap", o.cfg.MaxErrorsPerBatch, "remaining", len(lines)-i)
			break
		}

		line := lines[i]
		src := classify.Source{Path: o.cfg.LogPath, Start: line.Start, End: line.End}
		ev, ok := o.classifier.Classify(line.Text, src, o.now())
		if !ok {
			o.log.Debug("no pattern matched, line dropped", "offset", line.Start)
			consumed = line.End
			continue
		}

		// Fold trailing traceback lines into the event, bounded by the
		// configured context window.
		raw := line.Text
		end := line.End
		for folded := 0; folded < o.cfg.ContextLines && i+1 < len(lines) && classify.IsContinuation(lines[i+1].Text); folded++ {
			i++
			raw += "\n" + lines[i].Text
			end = lines[i].End
		}
		ev.Raw = raw
		ev.Source.End = end

		batch = append(batch, ev)
		consumed = end
	}
	return batch, consumed
}

// publish files each new event with the tracker, sequentially and in log
// order. It returns the offset to persist: normally the scanned-through
// offset, rolled back to the failed event's line start when a transient
// failure or cancellation defers the tail of the batch.
func (o *Orchestrator) publish(ctx context.Context, ps *state.ProcessingState, batch []*classify.ErrorEvent, consumed int64, res *CycleResult) int64 {
	newOffset := consumed

	for idx, ev := range batch {
		// Cancellation is honored between publishes, never mid-publish.
		if ctx.Err() != nil {
			res.Deferred += len(batch) - idx
			res.Status = StatusDeferred
			res.Message = "cancelled, remaining events deferred"
			return ev.Source.Start
		}

		fp := state.Fingerprint(o.cfg.Repo(), ev.Category, ev.SourceLocation(), ev.Raw)
		if !ps.IsNew(fp) {
			res.Existing++
			o.log.Debug("fingerprint already published, skipping", "fingerprint", fp, "category", ev.Category)
			continue
		}

		action, rec, err := o.publishOne(ctx, ev, fp)
		if err != nil {
			if tracker.IsRejected(err) {
				res.Rejected++
				if res.Status == StatusOK {
					res.Status = StatusPartial
				}
				res.Message = err.Error()
				o.log.Error("tracker rejected publish, operator intervention required",
					"fingerprint", fp, "category", ev.Category, "error", err)
				o.logPublish(fp, ev.Category, "rejected", "", err.Error())
				continue
			}
			// Transient failure after retries: defer this event and the
			// rest of the batch to the next cycle via offset rollback.
			res.Deferred += len(batch) - idx
			res.Status = StatusDeferred
			res.Message = err.Error()
			o.log.Warn("transient tracker failure, deferring remaining events to next cycle",
				"fingerprint", fp, "error", err)
			o.logPublish(fp, ev.Category, "deferred", "", err.Error())
			return ev.Source.Start
		}

		ps.Record(fp, rec.ID)
		if action == "existing" {
			res.Existing++
		} else {
			res.Published++
		}
		o.logPublish(fp, ev.Category, action, rec.ID, "")
		o.log.Info("published", "action", action, "issue", rec.ID, "category", ev.Category, "fingerprint", fp)
	}
	return newOffset
}

// publishOne files one event: tracker-side duplicate search first (local
// state can be stale or rebuilt), then issue creation with a generated fix
// proposal attached as a branch and proposed change.
func (o *Orchestrator) publishOne(ctx context.Context, ev *classify.ErrorEvent, fp string) (string, *tracker.IssueRecord, error) {
	var rec *tracker.IssueRecord
	err := o.withRetry(ctx, func() error {
		r, err := o.tracker.FindExisting(ctx, fp)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("find existing: %w", err)
	}
	if rec != nil {
		return "existing", rec, nil
	}

	prop := o.gen.Generate(ev, fp)
	labels := append(append([]string(nil), ev.Labels...), "automated", tracker.FingerprintLabel(fp))

	err = o.withRetry(ctx, func() error {
		r, err := o.tracker.CreateIssue(ctx, prop.Title, prop.Body, labels)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("create issue: %w", err)
	}

	// The proposed change is best-effort: the issue record stands even if
	// branch or PR creation fails.
	if err := o.attachChange(ctx, prop, rec); err != nil {
		o.log.Warn("issue created but change proposal failed", "issue", rec.ID, "error", err)
	}

	return "created", rec, nil
}

// attachChange creates the proposal branch, publishes the patch as a
// proposed change, and links it back into the issue body.
func (o *Orchestrator) attachChange(ctx context.Context, prop fix.Proposal, rec *tracker.IssueRecord) error {
	err := o.withRetry(ctx, func() error {
		return o.tracker.CreateBranch(ctx, prop.Branch)
	})
	if err != nil {
		return fmt.Errorf("create branch: %w", err)
	}

	var changeID string
	err = o.withRetry(ctx, func() error {
		id, err := o.tracker.ProposeChange(ctx, prop.Branch, prop.Title, prop.Patch, rec.ID)
		if err != nil {
			return err
		}
		changeID = id
		return nil
	})
	if err != nil {
		return fmt.Errorf("propose change: %w", err)
	}
	rec.ChangeID = changeID

	body := prop.Body + "\n\n### Proposed Change\n" + changeID + "\n"
	err = o.withRetry(ctx, func() error {
		return o.tracker.UpdateIssue(ctx, rec.ID, body)
	})
	if err != nil {
		return fmt.Errorf("link change into issue: %w", err)
	}
	return nil
}

// withRetry runs op, retrying transient failures with exponential backoff up
// to maxAttempts. Rejected failures return immediately, and cancellation
// cuts a backoff window short.
func (o *Orchestrator) withRetry(ctx context.Context, op func() error) error {
	delay := o.backoffBase
	var err error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		err = op()
		if err == nil || !tracker.IsTransient(err) {
			return err
		}
		if attempt == o.maxAttempts {
			break
		}
		o.log.Debug("transient tracker failure, backing off", "attempt", attempt, "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}

// Run executes cycles at the configured interval until the context is
// cancelled. Cancellation takes effect between cycles.
func (o *Orchestrator) Run(ctx context.Context) error {
	interval := o.cfg.IntervalDuration()
	o.log.Info("monitor started", "repo", o.cfg.Repo(), "log", o.cfg.LogPath, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := o.RunCycle(ctx)
		if err != nil {
			return err
		}
		o.log.Info("cycle complete",
			"status", res.Status,
			"lines", res.LinesRead,
			"classified", res.Classified,
			"published", res.Published,
			"deferred", res.Deferred,
			"rejected", res.Rejected)

		select {
		case <-ctx.Done():
			o.log.Info("monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (o *Orchestrator) logCycle(res *CycleResult, started time.Time) {
	if o.journal == nil {
		return
	}
	_ = o.journal.LogCycle(db.CycleEvent{
		Repo:       o.cfg.Repo(),
		Status:     res.Status,
		LinesRead:  res.LinesRead,
		Classified: res.Classified,
		Published:  res.Published,
		Existing:   res.Existing,
		Deferred:   res.Deferred,
		Rejected:   res.Rejected,
		DurationMs: int(o.now().Sub(started).Milliseconds()),
		Detail:     res.Message,
	})
}

func (o *Orchestrator) logPublish(fp, category, action, issueID, detail string) {
	if o.journal == nil {
		return
	}
	_ = o.journal.LogPublish(db.PublishEvent{
		Repo:        o.cfg.Repo(),
		Fingerprint: fp,
		Category:    category,
		Action:      action,
		IssueID:     issueID,
		Detail:      detail,
	})
}
