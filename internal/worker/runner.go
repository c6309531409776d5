// Package worker executes render jobs off the request path. Requests get a
// job ID back immediately and poll for completion, so a long batch (many
// timestamps on a fine grid, or an animation with many steps) never blocks
// the accepting path.
//
// Submissions are serialized per session: submitting a new job for a
// session cancels the session's in-flight or queued job, and a cancelled
// job's result is never published.
package worker

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhirajmuduli/Heatmaps/internal/observability"
)

// Kind distinguishes the two job types.
type Kind string

const (
	KindGenerate Kind = "generate"
	KindAnimate  Kind = "animate"
)

// JobState is a job's lifecycle position.
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateDone      JobState = "done"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// ErrQueueFull rejects submissions when the job queue is saturated.
var ErrQueueFull = errors.New("job queue full")

// ErrUnknownJob reports a poll for a job ID the runner has never seen.
var ErrUnknownJob = errors.New("unknown job")

// Job is one unit of render work. Run must honor ctx cancellation and
// return the job's result; publication of that result (and its staleness
// check) happens inside Run so a cancelled job can never publish.
type Job struct {
	SessionID string
	Kind      Kind
	Run       func(ctx context.Context) (any, error)
}

// Status is a point-in-time snapshot of a job.
type Status struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Kind        Kind      `json:"kind"`
	State       JobState  `json:"state"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`

	// Result carries the job's output once State is done.
	Result any `json:"-"`
}

type trackedJob struct {
	id          string
	job         Job
	state       JobState
	cancel      context.CancelFunc // set once running
	result      any
	err         error
	submittedAt time.Time
	finishedAt  time.Time
}

// Runner owns the job queue and worker goroutines.
type Runner struct {
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	queue  chan *trackedJob
	jobs   map[string]*trackedJob
	active map[string]*trackedJob // latest unfinished job per session
}

// New creates a Runner with the given queue capacity.
func New(logger *slog.Logger, metrics *observability.Metrics, queueSize int) *Runner {
	if queueSize < 1 {
		queueSize = 16
	}
	return &Runner{
		logger:  logger,
		metrics: metrics,
		queue:   make(chan *trackedJob, queueSize),
		jobs:    make(map[string]*trackedJob),
		active:  make(map[string]*trackedJob),
	}
}

// Start launches workers goroutines that drain the queue until ctx is
// cancelled. It returns immediately.
func (r *Runner) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go r.worker(ctx)
	}
}

// Submit enqueues a job, cancelling any unfinished job already submitted
// for the same session so stale work is abandoned rather than raced.
func (r *Runner) Submit(job Job) (string, error) {
	tj := &trackedJob{
		id:          newJobID(),
		job:         job,
		state:       StatePending,
		submittedAt: time.Now(),
	}

	r.mu.Lock()
	if prev, ok := r.active[job.SessionID]; ok {
		r.supersedeLocked(prev)
	}

	select {
	case r.queue <- tj:
	default:
		r.mu.Unlock()
		return "", fmt.Errorf("%w: capacity %d", ErrQueueFull, cap(r.queue))
	}

	r.jobs[tj.id] = tj
	r.active[job.SessionID] = tj
	r.mu.Unlock()

	r.logger.Info("job submitted", "job_id", tj.id, "session_id", job.SessionID, "kind", job.Kind)
	return tj.id, nil
}

// supersedeLocked cancels a job that a newer submission replaces.
func (r *Runner) supersedeLocked(tj *trackedJob) {
	switch tj.state {
	case StatePending:
		tj.state = StateCancelled
		tj.finishedAt = time.Now()
		r.metrics.JobsCompleted.WithLabelValues("superseded").Inc()
	case StateRunning:
		// The execute path observes the cancelled context and records the
		// outcome there.
		if tj.cancel != nil {
			tj.cancel()
		}
	}
}

// Cancel cancels a job by ID, whether pending or running.
func (r *Runner) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tj, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownJob, id)
	}
	switch tj.state {
	case StatePending:
		tj.state = StateCancelled
		tj.finishedAt = time.Now()
	case StateRunning:
		if tj.cancel != nil {
			tj.cancel()
		}
	}
	return nil
}

// Status returns a snapshot of a job.
func (r *Runner) Status(id string) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tj, ok := r.jobs[id]
	if !ok {
		return Status{}, fmt.Errorf("%w: %q", ErrUnknownJob, id)
	}

	st := Status{
		ID:          tj.id,
		SessionID:   tj.job.SessionID,
		Kind:        tj.job.Kind,
		State:       tj.state,
		SubmittedAt: tj.submittedAt,
		FinishedAt:  tj.finishedAt,
		Result:      tj.result,
	}
	if tj.err != nil {
		st.Error = tj.err.Error()
	}
	return st, nil
}

func (r *Runner) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case tj := <-r.queue:
			r.execute(ctx, tj)
		}
	}
}

func (r *Runner) execute(ctx context.Context, tj *trackedJob) {
	r.mu.Lock()
	if tj.state != StatePending {
		// Cancelled while queued.
		r.releaseLocked(tj)
		r.mu.Unlock()
		return
	}
	jobCtx, cancel := context.WithCancel(ctx)
	tj.state = StateRunning
	tj.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	r.metrics.JobsRunning.Inc()
	start := time.Now()
	result, err := tj.job.Run(jobCtx)
	r.metrics.JobsRunning.Dec()

	r.mu.Lock()
	defer r.mu.Unlock()
	tj.finishedAt = time.Now()
	r.releaseLocked(tj)

	switch {
	case jobCtx.Err() != nil:
		tj.state = StateCancelled
		tj.err = jobCtx.Err()
		r.metrics.JobsCompleted.WithLabelValues("cancelled").Inc()
		r.logger.Info("job cancelled", "job_id", tj.id, "session_id", tj.job.SessionID)
	case err != nil:
		tj.state = StateFailed
		tj.err = err
		r.metrics.JobsCompleted.WithLabelValues("failed").Inc()
		r.logger.Error("job failed", "job_id", tj.id, "session_id", tj.job.SessionID, "error", err)
	default:
		tj.state = StateDone
		tj.result = result
		r.metrics.JobsCompleted.WithLabelValues("done").Inc()
		r.logger.Info("job done", "job_id", tj.id, "session_id", tj.job.SessionID,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// releaseLocked clears the session's active slot if this job still owns it.
func (r *Runner) releaseLocked(tj *trackedJob) {
	if r.active[tj.job.SessionID] == tj {
		delete(r.active, tj.job.SessionID)
	}
}

func newJobID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
