// Package worker runs generations asynchronously for tools whose providers
// take long enough that holding the HTTP request open is impractical
// (video renders in particular). Jobs live in memory; a restart loses
// pending work, which callers must treat as a failed job.
package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vnmchuo/media-gateway/internal/auth"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// ErrQueueFull is returned when the pending buffer is exhausted.
var ErrQueueFull = errors.New("job queue is full")

// Job is one queued generation.
type Job struct {
	ID        string         `json:"id"`
	User      *auth.User     `json:"-"`
	ToolID    string         `json:"tool_id"`
	Inputs    map[string]any `json:"-"`
	Status    JobStatus      `json:"status"`
	Result    any            `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// RunFunc executes one job and returns its result.
type RunFunc func(ctx context.Context, job *Job) (any, error)

// defaultRetained bounds how many finished jobs stay queryable. Older
// terminal jobs are evicted first; pending and running jobs never are.
const defaultRetained = 256

// Queue is an in-memory job queue with a fixed pending buffer and a single
// worker loop started by Process.
type Queue struct {
	run      RunFunc
	mu       sync.RWMutex
	jobs     map[string]*Job
	finished []string // terminal job ids, oldest first
	retain   int
	ch       chan string
}

func NewQueue(run RunFunc, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	return &Queue{
		run:    run,
		jobs:   make(map[string]*Job),
		retain: defaultRetained,
		ch:     make(chan string, buffer),
	}
}

// Enqueue registers a job and queues it for execution.
func (q *Queue) Enqueue(user *auth.User, toolID string, inputs map[string]any) (*Job, error) {
	job := &Job{
		ID:        uuid.New().String(),
		User:      user,
		ToolID:    toolID,
		Inputs:    inputs,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.mu.Unlock()

	select {
	case q.ch <- job.ID:
		return q.snapshot(job.ID), nil
	default:
		q.mu.Lock()
		delete(q.jobs, job.ID)
		q.mu.Unlock()
		return nil, ErrQueueFull
	}
}

// Get returns a snapshot of the job, and whether it belongs to the user.
func (q *Queue) Get(id, userKey string) (*Job, bool) {
	q.mu.RLock()
	job, ok := q.jobs[id]
	if ok && job.User != nil && job.User.Key != userKey {
		ok = false
	}
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return q.snapshot(id), true
}

// Process consumes jobs until the context is cancelled. Run it once from
// main in its own goroutine.
func (q *Queue) Process(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-q.ch:
			q.execute(ctx, id)
		}
	}
}

func (q *Queue) execute(ctx context.Context, id string) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	job.Status = JobStatusRunning
	job.UpdatedAt = time.Now()
	q.mu.Unlock()

	result, err := q.run(ctx, job)

	q.mu.Lock()
	defer q.mu.Unlock()
	job.UpdatedAt = time.Now()
	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
		log.Printf("worker: job %s failed: %v", job.ID, err)
	} else {
		job.Status = JobStatusDone
		job.Result = result
	}
	q.retire(job.ID)
}

// retire marks a job terminal and evicts the oldest finished jobs beyond the
// retention cap. Callers poll job status, so recent results stay queryable
// for a while without the map growing for the life of the process.
func (q *Queue) retire(id string) {
	q.finished = append(q.finished, id)
	for len(q.finished) > q.retain {
		delete(q.jobs, q.finished[0])
		q.finished = q.finished[1:]
	}
}

func (q *Queue) snapshot(id string) *Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil
	}
	copy := *job
	return &copy
}
