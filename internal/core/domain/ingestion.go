package domain

import (
	"sync"
	"sync/atomic"
	"time"
)

// RunState is the ingestion state machine position.
type RunState string

// Run states. FAILED is reachable from any state on a non-recoverable
// error; per-record and per-batch failures do not change state.
const (
	RunResolvingDates RunState = "RESOLVING_DATES"
	RunFetching       RunState = "FETCHING"
	RunNormalizing    RunState = "NORMALIZING"
	RunEmbedding      RunState = "EMBEDDING"
	RunWriting        RunState = "WRITING"
	RunCompleted      RunState = "COMPLETED"
	RunFailed         RunState = "FAILED"
)

// IngestionRequest triggers one ingestion run for a source.
type IngestionRequest struct {
	// Source selects the upstream API.
	Source Source

	// From and To are date expressions, absolute or relative.
	From string
	To   string
}

// IngestionRun is the mutable record of a single ingestion run. The
// orchestrator owns it exclusively for the run's duration; concurrent
// chunk workers only touch the atomic counters and the mutex-guarded
// skip list.
type IngestionRun struct {
	ID        string
	Source    Source
	Range     DateRange
	StartedAt time.Time

	fetched    atomic.Int64
	normalized atomic.Int64
	embedded   atomic.Int64
	written    atomic.Int64
	failed     atomic.Int64

	mu       sync.Mutex
	state    RunState
	skipped  []SkippedRecord
	failures []string
	partial  bool
	resume   *Cursor
	finished time.Time
}

// NewIngestionRun creates a run record in the RESOLVING_DATES state.
func NewIngestionRun(id string, source Source) *IngestionRun {
	return &IngestionRun{
		ID:        id,
		Source:    source,
		StartedAt: time.Now(),
		state:     RunResolvingDates,
	}
}

// SetState advances the state machine.
func (r *IngestionRun) SetState(s RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
	if s == RunCompleted || s == RunFailed {
		r.finished = time.Now()
	}
}

// State returns the current state.
func (r *IngestionRun) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// AddFetched increments the fetched counter.
func (r *IngestionRun) AddFetched(n int) { r.fetched.Add(int64(n)) }

// AddNormalized increments the normalized counter.
func (r *IngestionRun) AddNormalized(n int) { r.normalized.Add(int64(n)) }

// AddEmbedded increments the embedded counter.
func (r *IngestionRun) AddEmbedded(n int) { r.embedded.Add(int64(n)) }

// AddWritten increments the written counter.
func (r *IngestionRun) AddWritten(n int) { r.written.Add(int64(n)) }

// AddFailed increments the failed counter and records the reason.
func (r *IngestionRun) AddFailed(n int, reason string) {
	r.failed.Add(int64(n))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, reason)
}

// AddSkipped records a record that could not be normalised.
func (r *IngestionRun) AddSkipped(s SkippedRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, s)
}

// MarkPartial flags the run as partially complete, recording the cursor
// reached so the caller can re-run the remaining range.
func (r *IngestionRun) MarkPartial(resume *Cursor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partial = true
	r.resume = resume
}

// Summary is the immutable aggregate result of one ingestion run.
type Summary struct {
	RunID      string          `json:"run_id"`
	Source     Source          `json:"source"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	State      RunState        `json:"state"`
	Fetched    int             `json:"fetched"`
	Normalized int             `json:"normalized"`
	Embedded   int             `json:"embedded"`
	Written    int             `json:"written"`
	Failed     int             `json:"failed"`
	Skipped    []SkippedRecord `json:"skipped,omitempty"`
	Failures   []string        `json:"failures,omitempty"`
	Partial    bool            `json:"partial"`
	Resume     *Cursor         `json:"resume,omitempty"`
	Duration   time.Duration   `json:"duration"`
}

// Summary snapshots the run into an immutable value. Safe to call while
// chunk workers are still updating counters, though normally called after
// the run finishes.
func (r *IngestionRun) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	skipped := make([]SkippedRecord, len(r.skipped))
	copy(skipped, r.skipped)
	failures := make([]string, len(r.failures))
	copy(failures, r.failures)

	end := r.finished
	if end.IsZero() {
		end = time.Now()
	}

	return Summary{
		RunID:      r.ID,
		Source:     r.Source,
		From:       r.Range.FromString(),
		To:         r.Range.ToString(),
		State:      r.state,
		Fetched:    int(r.fetched.Load()),
		Normalized: int(r.normalized.Load()),
		Embedded:   int(r.embedded.Load()),
		Written:    int(r.written.Load()),
		Failed:     int(r.failed.Load()),
		Skipped:    skipped,
		Failures:   failures,
		Partial:    r.partial,
		Resume:     r.resume,
		Duration:   end.Sub(r.StartedAt),
	}
}

// ProgressFunc receives incremental run snapshots as chunks complete.
// Optional injection point for streaming UIs.
type ProgressFunc func(Summary)
