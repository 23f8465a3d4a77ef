package schedule

import (
	"context"
	"time"

	"github.com/teranos/redbike"
	"github.com/teranos/redbike/errors"
	"github.com/teranos/redbike/internal/store"
)

// Status event codes persisted into the statuses hash.
const (
	EventEnqueued  = "ENQ"
	EventTimelined = "TML"
	EventWorking   = "WRK"
	EventStopped   = "STP"
	EventBad       = "BAD"
	EventDied      = "DIE"
)

// Machine is the job state machine: it applies a classification against
// the store gateway, and exposes the higher-level operations (Set,
// Unset, Reschedule, StopWork, UnsetJob) the CLI and worker loop drive
// it through.
type Machine struct {
	store    *store.Gateway
	strategy redbike.Strategy
}

// NewMachine builds a Machine over a store gateway and the strategy used
// to compute which queue a jobid belongs to.
func NewMachine(gw *store.Gateway, strategy redbike.Strategy) *Machine {
	return &Machine{store: gw, strategy: strategy}
}

// Set records jobid's schedule and immediately applies it.
func (m *Machine) Set(ctx context.Context, jobid, schedule string, after *time.Time) error {
	if err := m.store.SetSchedule(ctx, jobid, schedule); err != nil {
		return err
	}
	return m.apply(ctx, jobid, schedule, after)
}

// Unset deletes all state for jobid: schedule, status, timeline entry,
// and its queue membership. It must never clear a live Working marker —
// that marker expires or is recycled by whichever worker still holds it.
func (m *Machine) Unset(ctx context.Context, jobid string) error {
	if err := m.store.DeleteSchedule(ctx, jobid); err != nil {
		return err
	}
	if err := m.store.DeleteStatus(ctx, jobid); err != nil {
		return err
	}
	if err := m.store.RemoveFromTimeline(ctx, jobid); err != nil {
		return err
	}
	queue := m.strategy.QueueFor(jobid)
	return m.store.RemoveFromQueue(ctx, queue, jobid)
}

// UnsetJob implements the UnsetJob signal a WorkFunc can raise: delete
// the job's state, then force-recycle the working marker the calling
// worker is holding (queue is the one it consumed from) and skip
// rescheduling entirely.
func (m *Machine) UnsetJob(ctx context.Context, jobid, queue string) error {
	if err := m.Unset(ctx, jobid); err != nil {
		return err
	}
	return m.store.ForceRecycle(ctx, queue, jobid)
}

// StopWork implements the StopWork signal: overwrite the schedule to
// STOP, then reschedule — which, for a STOP schedule, always yields a
// terminal STP status.
func (m *Machine) StopWork(ctx context.Context, jobid string) error {
	if err := m.store.SetSchedule(ctx, jobid, "STOP"); err != nil {
		return err
	}
	return m.Reschedule(ctx, jobid, nil)
}

// Reschedule re-reads jobid's currently stored schedule and
// re-classifies it, honoring an optional backoff (only meaningful when
// the stored schedule is the literal CONTINUE). Call this only after a
// successful recycle — the caller is responsible for verifying it still
// held the working marker's jobtag.
func (m *Machine) Reschedule(ctx context.Context, jobid string, backoff *int64) error {
	raw, ok, err := m.store.GetSchedule(ctx, jobid)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if raw == "CONTINUE" && backoff != nil && *backoff > 0 {
		c := ClassifyContinueWithBackoff(*backoff, time.Now())
		return m.applyClassification(ctx, jobid, c)
	}
	return m.apply(ctx, jobid, raw, nil)
}

// LoadCSV bulk-loads (jobid, schedule) pairs. Each batch's schedule
// writes go out in one redis pipeline; the schedules are then applied
// (classified and queued/timelined/stamped) one row at a time, with
// each row's apply step issuing its own store calls.
func (m *Machine) LoadCSV(ctx context.Context, rows [][2]string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 200
	}
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := m.loadBatch(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) loadBatch(ctx context.Context, rows [][2]string) error {
	pipe := m.store.Pipeline()
	for _, row := range rows {
		pipe.HSet(ctx, m.schedulesHashKey(), row[0], row[1])
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to pipeline CSV batch")
	}
	for _, row := range rows {
		if err := m.apply(ctx, row[0], row[1], nil); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) schedulesHashKey() string {
	return m.store.Prefix() + "-schedules"
}

func (m *Machine) apply(ctx context.Context, jobid, raw string, after *time.Time) error {
	c, err := Classify(raw, after)
	if err != nil {
		return err
	}
	return m.applyClassification(ctx, jobid, c)
}

func (m *Machine) applyClassification(ctx context.Context, jobid string, c Classification) error {
	nowTS := time.Now().Unix()

	if c.NormalizedValue != "" {
		if err := m.store.SetSchedule(ctx, jobid, c.NormalizedValue); err != nil {
			return err
		}
	}

	switch c.Action {
	case ActionUnset:
		return m.Unset(ctx, jobid)

	case ActionStop:
		if err := m.store.RemoveFromTimeline(ctx, jobid); err != nil {
			return err
		}
		return m.store.SetStatus(ctx, jobid, EventStopped, nowTS)

	case ActionEnqueue:
		queue := m.strategy.QueueFor(jobid)
		ok, err := m.store.Enqueue(ctx, queue, jobid, nowTS)
		if err != nil {
			return err
		}
		if !ok {
			// Already queued or working: schedule overwrite (if any) still
			// happened above, but no new ENQ status is emitted — the push
			// script only stamps ENQ when it actually pushes.
			return nil
		}
		return nil

	case ActionTimeline:
		if err := m.store.AddToTimeline(ctx, jobid, c.At); err != nil {
			return err
		}
		return m.store.SetStatus(ctx, jobid, EventTimelined, nowTS)

	case ActionBad:
		return m.store.SetStatus(ctx, jobid, EventBad, nowTS)

	default:
		return errors.Newf("unhandled classification action %d for %s", c.Action, jobid)
	}
}
