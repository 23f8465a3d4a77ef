// Package redbike is the public API surface of the scheduler: the
// contract a caller's work function and queue strategy must satisfy.
// The engine that drives them (dispatcher, worker, store gateway) lives
// under internal/ — this package is what an embedding program imports.
package redbike

import "context"

// ErrStopWork, raised (or returned) by a WorkFunc, schedules the job to
// STOP instead of re-applying its current schedule. It mirrors the
// source's StopWork exception.
type ErrStopWork struct{}

func (ErrStopWork) Error() string { return "redbike: stop work requested" }

// StopWork is the sentinel a WorkFunc returns to halt a job's schedule.
var StopWork error = ErrStopWork{}

// ErrUnsetJob, raised (or returned) by a WorkFunc, deletes the job
// entirely: its schedule, status, timeline entry, and queue membership.
type ErrUnsetJob struct{}

func (ErrUnsetJob) Error() string { return "redbike: unset job requested" }

// UnsetJob is the sentinel a WorkFunc returns to delete its own job.
var UnsetJob error = ErrUnsetJob{}

// WorkFunc is the user-supplied unit of work a worker invokes once it
// claims a job. A non-nil, non-sentinel error is treated as "unexpected"
// (status DIE, force-recycled, not rescheduled). A returned backoff
// requests the job be placed back on the timeline backoff seconds from
// now instead of being enqueued immediately on its next CONTINUE.
type WorkFunc func(ctx context.Context, jobid string) (backoff *int64, err error)

// Backoff is a small helper so callers can write `redbike.Backoff(30)`
// instead of taking the address of a local variable.
func Backoff(seconds int64) *int64 { return &seconds }

// Strategy maps jobids onto queues the worker round-robins over.
// Queues, QueueFor and Timeout must agree with each other for a given
// jobid/queue pair for the lifetime of the process.
type Strategy interface {
	// Queues returns the ordered, stable list of bare queue names (no
	// prefix) this strategy declares.
	Queues() []string
	// QueueFor returns which declared queue a jobid belongs to.
	QueueFor(jobid string) string
	// Timeout returns the working-marker TTL for a queue, or zero to
	// use the worker's configured default.
	Timeout(queue string) int64
}
