package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/redbike"
	"github.com/teranos/redbike/internal/control"
	"github.com/teranos/redbike/internal/schedule"
	"github.com/teranos/redbike/internal/store"
	"github.com/teranos/redbike/internal/strategy"
)

type testRig struct {
	gw      *store.Gateway
	machine *schedule.Machine
	plane   *control.Plane
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	gw := store.NewWithClient(client, "redbike-test", nil)
	rr, err := strategy.NewRoundRobin("A:B")
	require.NoError(t, err)
	return &testRig{
		gw:      gw,
		machine: schedule.NewMachine(gw, rr),
		plane:   control.NewPlane(gw),
	}
}

func newTestWorker(t *testing.T, rig *testRig, work redbike.WorkFunc) *Worker {
	t.Helper()
	rr, err := strategy.NewRoundRobin("A:B")
	require.NoError(t, err)
	w := New(rig.gw, rr, rig.machine, rig.plane, work, 10*time.Second, nil)
	w.idleSleep = time.Millisecond
	return w
}

func runUntilHalted(t *testing.T, w *Worker, rig *testRig) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after HALT")
	}
}

func TestWorkerSuccessReschedulesContinue(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	require.NoError(t, rig.machine.Set(ctx, "job:A", "CONTINUE", nil))

	var calls int32
	w := newTestWorker(t, rig, func(ctx context.Context, jobid string) (*int64, error) {
		atomic.AddInt32(&calls, 1)
		if atomic.LoadInt32(&calls) == 1 {
			return nil, nil
		}
		require.NoError(t, rig.plane.Halt(ctx))
		return nil, nil
	})

	runUntilHalted(t, w, rig)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
	n, err := rig.gw.QueueLen(ctx, "work-A")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "CONTINUE reschedule must re-enqueue the job")
}

func TestWorkerStopWorkYieldsStoppedSchedule(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	require.NoError(t, rig.machine.Set(ctx, "job:A", "CONTINUE", nil))

	w := newTestWorker(t, rig, func(ctx context.Context, jobid string) (*int64, error) {
		require.NoError(t, rig.plane.Halt(ctx))
		return nil, redbike.StopWork
	})

	runUntilHalted(t, w, rig)

	raw, ok, err := rig.gw.GetSchedule(ctx, "job:A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "STOP", raw)
}

func TestWorkerUnsetJobDeletesState(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	require.NoError(t, rig.machine.Set(ctx, "job:A", "CONTINUE", nil))

	w := newTestWorker(t, rig, func(ctx context.Context, jobid string) (*int64, error) {
		require.NoError(t, rig.plane.Halt(ctx))
		return nil, redbike.UnsetJob
	})

	runUntilHalted(t, w, rig)

	_, ok, err := rig.gw.GetSchedule(ctx, "job:A")
	require.NoError(t, err)
	assert.False(t, ok)

	working, err := rig.gw.IsWorking(ctx, "work-A", "job:A")
	require.NoError(t, err)
	assert.False(t, working)
}

func TestWorkerUnexpectedErrorSetsDieStatus(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	require.NoError(t, rig.machine.Set(ctx, "job:A", "CONTINUE", nil))

	w := newTestWorker(t, rig, func(ctx context.Context, jobid string) (*int64, error) {
		require.NoError(t, rig.plane.Halt(ctx))
		return nil, assertableErr{}
	})

	runUntilHalted(t, w, rig)

	status, ok, err := rig.gw.GetStatus(ctx, "job:A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, schedule.EventDied, status.Event)

	working, err := rig.gw.IsWorking(ctx, "work-A", "job:A")
	require.NoError(t, err)
	assert.False(t, working)

	n, err := rig.gw.QueueLen(ctx, "work-A")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "an unexpected error must not reschedule the job")
}

func TestWorkerSkipsRescheduleWhenMarkerExpired(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	require.NoError(t, rig.machine.Set(ctx, "job:A", "CONTINUE", nil))

	w := newTestWorker(t, rig, func(ctx context.Context, jobid string) (*int64, error) {
		require.NoError(t, rig.gw.ForceRecycle(ctx, "work-A", jobid))
		require.NoError(t, rig.plane.Halt(ctx))
		return nil, nil
	})

	runUntilHalted(t, w, rig)

	n, err := rig.gw.QueueLen(ctx, "work-A")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "reschedule must be skipped once the working marker is gone")
}

type assertableErr struct{}

func (assertableErr) Error() string { return "boom" }
