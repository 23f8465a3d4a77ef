// Package control implements the control plane: the HALT signal (store
// key + in-process flag), flush, and the tell/list queries.
package control

import (
	"context"
	"sync/atomic"

	"github.com/teranos/redbike/errors"
	"github.com/teranos/redbike/internal/store"
)

// Plane wraps a store.Gateway with the in-process stop flag both the
// dispatcher and worker loops check between iterations.
type Plane struct {
	store   *store.Gateway
	stopped atomic.Bool
}

// NewPlane builds a control plane over a store gateway.
func NewPlane(gw *store.Gateway) *Plane {
	return &Plane{store: gw}
}

// Halt requests a graceful stop by writing HALT to the control key.
func (p *Plane) Halt(ctx context.Context) error {
	return p.store.SetControl(ctx, "HALT")
}

// StopLocally sets the in-process stop flag without touching the store,
// used when a signal handler wants this process (and only this one) to
// exit without halting every other worker sharing the prefix.
func (p *Plane) StopLocally() {
	p.stopped.Store(true)
}

// IsHalted returns true if either the in-process flag is set or the
// store's control key reads HALT.
func (p *Plane) IsHalted(ctx context.Context) (bool, error) {
	if p.stopped.Load() {
		return true, nil
	}
	signal, err := p.store.GetControl(ctx)
	if err != nil {
		return false, err
	}
	return signal == "HALT", nil
}

// ClearControl deletes the control key; dispatcher and worker loops call
// this at startup so a stale HALT from a prior run doesn't immediately
// stop the new process.
func (p *Plane) ClearControl(ctx context.Context) error {
	return p.store.ClearControl(ctx)
}

// Flush deletes every key under the gateway's prefix.
func (p *Plane) Flush(ctx context.Context) error {
	return p.store.Flush(ctx)
}

// Snapshot is the point-in-time view `tell` returns: {status, schedule,
// next_run, working} for a single jobid.
type Snapshot struct {
	Status     string
	Since      int64
	Schedule   string
	NextRun    int64
	HasNextRun bool
	Working    bool
}

// Tell assembles a Snapshot for jobid. It is explicitly not atomic
// across its four reads: a concurrent writer can make the result a
// blend of two points in time, which is acceptable for an observational
// query like this one.
func (p *Plane) Tell(ctx context.Context, jobid string, queueFor func(string) string) (Snapshot, error) {
	var snap Snapshot

	status, ok, err := p.store.GetStatus(ctx, jobid)
	if err != nil {
		return Snapshot{}, err
	}
	if ok {
		snap.Status = status.Event
		snap.Since = status.Timestamp
	}

	schedule, ok, err := p.store.GetSchedule(ctx, jobid)
	if err != nil {
		return Snapshot{}, err
	}
	if ok {
		snap.Schedule = schedule
	}

	score, onTimeline, err := p.store.TimelineScore(ctx, jobid)
	if err != nil {
		return Snapshot{}, err
	}
	if onTimeline {
		snap.NextRun = score
		snap.HasNextRun = true
	}

	if queueFor != nil {
		working, err := p.store.IsWorking(ctx, queueFor(jobid), jobid)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Working = working
	}

	return snap, nil
}

// GetStatuses lists status entries with timestamp <= before.
func (p *Plane) GetStatuses(ctx context.Context, before int64) ([]store.Status, error) {
	statuses, err := p.store.GetStatuses(ctx, before)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list statuses")
	}
	return statuses, nil
}

// GetSchedules lists every (jobid, schedule) pair currently recorded.
func (p *Plane) GetSchedules(ctx context.Context) (map[string]string, error) {
	schedules, err := p.store.GetSchedules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list schedules")
	}
	return schedules, nil
}
