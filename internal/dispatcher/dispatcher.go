// Package dispatcher implements the promotion loop: draining due
// timeline entries into their queues and persisting the replay
// watermark to the time-file.
package dispatcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/redbike"
	"github.com/teranos/redbike/errors"
	"github.com/teranos/redbike/internal/control"
	"github.com/teranos/redbike/internal/rblog"
	"github.com/teranos/redbike/internal/store"
	"github.com/teranos/redbike/internal/timefile"
)

// TickInterval is the pause between promotion sweeps.
const TickInterval = 10 * time.Millisecond

// Dispatcher promotes due timeline entries into their queues and keeps
// the time-file watermark current.
type Dispatcher struct {
	store        *store.Gateway
	strategy     redbike.Strategy
	control      *control.Plane
	timefilePath string
	log          *zap.SugaredLogger
	tick         time.Duration
}

// New builds a Dispatcher. timefilePath may be empty, in which case the
// watermark is kept in memory only (useful for tests / --after-only
// runs) and never persisted across restarts.
func New(gw *store.Gateway, strategy redbike.Strategy, plane *control.Plane, timefilePath string, log *zap.SugaredLogger) *Dispatcher {
	if log == nil {
		log = rblog.Logger
	}
	return &Dispatcher{
		store:        gw,
		strategy:     strategy,
		control:      plane,
		timefilePath: timefilePath,
		log:          log,
		tick:         TickInterval,
	}
}

// Run executes the dispatcher loop until ctx is canceled or the control
// plane reports halted. after, if non-nil, overrides the time-file /
// now() fallback chain for the initial point-in-time.
func (d *Dispatcher) Run(ctx context.Context, after *int64) error {
	if err := d.control.ClearControl(ctx); err != nil {
		return err
	}

	pointInTime, err := d.initialPointInTime(after)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		if err := d.promote(ctx, pointInTime); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		pointInTime = time.Now().Unix()
		if d.timefilePath != "" {
			if err := timefile.Write(d.timefilePath, pointInTime); err != nil {
				return err
			}
		}

		halted, err := d.control.IsHalted(ctx)
		if err != nil {
			return err
		}
		if halted {
			d.log.Infow("dispatcher stopping on command")
			return nil
		}
	}
}

// initialPointInTime resolves after ?? read_timefile() ?? now().
func (d *Dispatcher) initialPointInTime(after *int64) (int64, error) {
	if after != nil {
		return *after, nil
	}
	if d.timefilePath == "" {
		return time.Now().Unix(), nil
	}
	ts, ok, err := timefile.Read(d.timefilePath)
	if err != nil {
		return 0, err
	}
	if !ok {
		return time.Now().Unix(), nil
	}
	return ts, nil
}

// promote drains every timeline entry due by pointInTime into its
// queue. This is NOT dispatcher-wide atomic: each job's
// remove-then-enqueue is two sequential store calls, not one script.
// That's deliberate — only enqueue and consume themselves need
// server-side atomicity; everything else can tolerate brief
// interleavings around it. The dedup check inside the enqueue script
// means a job promoted twice (e.g. by two dispatchers sharing a prefix,
// which is wasteful but not unsafe) never double-queues; the only
// failure window this leaves is a crash between the ZREM and the
// enqueue call, which orphans the job until an operator re-`set`s it —
// identical in spirit to the time-file's own documented "may skip jobs
// between crash and restart" limitation.
func (d *Dispatcher) promote(ctx context.Context, pointInTime int64) error {
	due, err := d.store.DueTimeline(ctx, pointInTime)
	if err != nil {
		return err
	}
	for _, jobid := range due {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := d.store.RemoveFromTimeline(ctx, jobid); err != nil {
			return errors.Wrapf(err, "failed to promote %s", jobid)
		}
		queue := d.strategy.QueueFor(jobid)
		if _, err := d.store.Enqueue(ctx, queue, jobid, time.Now().Unix()); err != nil {
			return errors.Wrapf(err, "failed to promote %s", jobid)
		}
	}
	return nil
}
