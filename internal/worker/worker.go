// Package worker implements the round-robin consume/execute/recycle
// loop: pulling jobs off a strategy's declared queues, invoking user
// work, and rescheduling based on the outcome.
package worker

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/redbike"
	"github.com/teranos/redbike/errors"
	"github.com/teranos/redbike/internal/control"
	"github.com/teranos/redbike/internal/rblog"
	"github.com/teranos/redbike/internal/schedule"
	"github.com/teranos/redbike/internal/store"
)

// DefaultIdleSleep is how long the worker pauses after a round where
// every declared queue came back empty, so an idle worker doesn't spin
// hot, chosen to keep idle CPU use low without adding perceptible
// consume latency.
const DefaultIdleSleep = 50 * time.Millisecond

// Worker round-robins across a Strategy's declared queues, consuming
// one job at a time and driving it through a user WorkFunc.
type Worker struct {
	store          *store.Gateway
	strategy       redbike.Strategy
	machine        *schedule.Machine
	control        *control.Plane
	work           redbike.WorkFunc
	defaultTimeout time.Duration
	log            *zap.SugaredLogger
	idleSleep      time.Duration

	// cursor is the single stateful round-robin iterator: it survives
	// halt/resume within the process because it lives on the Worker
	// value, not on a fresh generator per Run call.
	cursor int
}

// New builds a Worker. defaultTimeout is used for any queue whose
// strategy.Timeout returns 0.
func New(gw *store.Gateway, strategy redbike.Strategy, machine *schedule.Machine, plane *control.Plane, work redbike.WorkFunc, defaultTimeout time.Duration, log *zap.SugaredLogger) *Worker {
	if log == nil {
		log = rblog.Logger
	}
	return &Worker{
		store:          gw,
		strategy:       strategy,
		machine:        machine,
		control:        plane,
		work:           work,
		defaultTimeout: defaultTimeout,
		log:            log,
		idleSleep:      DefaultIdleSleep,
	}
}

// Run executes the worker loop until ctx is canceled or the control
// plane reports halted.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.control.ClearControl(ctx); err != nil {
		return err
	}

	queues := w.strategy.Queues()
	if len(queues) == 0 {
		return errors.New("worker strategy declares no queues")
	}

	empty := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		claimed, err := w.claimOne(ctx, queues)
		if err != nil {
			return err
		}
		if claimed {
			empty = 0
		} else if empty++; empty >= len(queues) {
			empty = 0
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.idleSleep):
			}
		}

		halted, err := w.control.IsHalted(ctx)
		if err != nil {
			return err
		}
		if halted {
			w.log.Infow("worker stopping on command")
			return nil
		}
	}
}

// claimOne attempts a single non-blocking consume on the next queue in
// round-robin order, processing the job if one was claimed. It reports
// whether a job was claimed so Run can decide whether to idle.
func (w *Worker) claimOne(ctx context.Context, queues []string) (bool, error) {
	queue := queues[w.cursor%len(queues)]
	w.cursor++

	tag, err := freshJobtag()
	if err != nil {
		return false, err
	}

	jobid, ok, err := w.store.Consume(ctx, queue, w.timeoutFor(queue), time.Now().Unix(), tag)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	w.process(ctx, queue, jobid, tag)
	return true, nil
}

func (w *Worker) timeoutFor(queue string) time.Duration {
	if secs := w.strategy.Timeout(queue); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return w.defaultTimeout
}

// process invokes user work for a claimed job, then reacts to its
// outcome.
func (w *Worker) process(ctx context.Context, queue, jobid, tag string) {
	log := rblog.WithJob(w.log, jobid)

	backoff, err := w.work(ctx, jobid)

	switch {
	case errors.Is(err, redbike.StopWork):
		if setErr := w.store.SetSchedule(ctx, jobid, "STOP"); setErr != nil {
			log.Errorw("failed to set STOP schedule", "error", setErr)
			return
		}
		w.recycleAndReschedule(ctx, queue, jobid, tag, nil)

	case errors.Is(err, redbike.UnsetJob):
		if unsetErr := w.machine.UnsetJob(ctx, jobid, queue); unsetErr != nil {
			log.Errorw("failed to unset job", "error", unsetErr)
		}

	case err != nil:
		log.Errorw("work failed", "error", err)
		if statusErr := w.store.SetStatus(ctx, jobid, schedule.EventDied, time.Now().Unix()); statusErr != nil {
			log.Errorw("failed to set DIE status", "error", statusErr)
		}
		if recErr := w.store.ForceRecycle(ctx, queue, jobid); recErr != nil {
			log.Errorw("failed to force-recycle", "error", recErr)
		}

	default:
		w.recycleAndReschedule(ctx, queue, jobid, tag, backoff)
	}
}

// recycleAndReschedule only reschedules if recycle succeeds: if the
// working marker no longer carries our tag (timed out, or claimed again
// by someone else), the reschedule is skipped silently — this is what
// keeps a job from running twice off the same claim.
func (w *Worker) recycleAndReschedule(ctx context.Context, queue, jobid, tag string, backoff *int64) {
	log := rblog.WithJob(w.log, jobid)

	ok, err := w.store.Recycle(ctx, queue, jobid, tag)
	if err != nil {
		log.Errorw("failed to recycle working marker", "error", err)
		return
	}
	if !ok {
		return
	}
	if err := w.machine.Reschedule(ctx, jobid, backoff); err != nil {
		log.Errorw("failed to reschedule", "error", err)
	}
}

// freshJobtag generates a random 120-bit, hex-encoded token identifying
// a single worker's claim on a job.
func freshJobtag() (string, error) {
	buf := make([]byte, 15)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate jobtag")
	}
	return hex.EncodeToString(buf), nil
}
