package control

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/redbike/internal/store"
)

func newTestPlane(t *testing.T) (*Plane, *store.Gateway) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	gw := store.NewWithClient(client, "redbike-test", nil)
	return NewPlane(gw), gw
}

func TestIsHaltedFalseByDefault(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPlane(t)

	halted, err := p.IsHalted(ctx)
	require.NoError(t, err)
	assert.False(t, halted)
}

func TestHaltSetsControlKey(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPlane(t)

	require.NoError(t, p.Halt(ctx))

	halted, err := p.IsHalted(ctx)
	require.NoError(t, err)
	assert.True(t, halted)
}

func TestStopLocallyHaltsWithoutTouchingStore(t *testing.T) {
	ctx := context.Background()
	p, gw := newTestPlane(t)

	p.StopLocally()

	halted, err := p.IsHalted(ctx)
	require.NoError(t, err)
	assert.True(t, halted)

	signal, err := gw.GetControl(ctx)
	require.NoError(t, err)
	assert.Empty(t, signal)
}

func TestClearControlUnhalts(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPlane(t)

	require.NoError(t, p.Halt(ctx))
	require.NoError(t, p.ClearControl(ctx))

	halted, err := p.IsHalted(ctx)
	require.NoError(t, err)
	assert.False(t, halted)
}

func TestTellAssemblesSnapshot(t *testing.T) {
	ctx := context.Background()
	p, gw := newTestPlane(t)

	require.NoError(t, gw.SetSchedule(ctx, "job:A", "CONTINUE"))
	require.NoError(t, gw.SetStatus(ctx, "job:A", "ENQ", 100))
	require.NoError(t, gw.AddToTimeline(ctx, "job:A", 200))

	snap, err := p.Tell(ctx, "job:A", func(jobid string) string { return "work-A" })
	require.NoError(t, err)
	assert.Equal(t, "ENQ", snap.Status)
	assert.Equal(t, "CONTINUE", snap.Schedule)
	assert.True(t, snap.HasNextRun)
	assert.EqualValues(t, 200, snap.NextRun)
	assert.False(t, snap.Working)
}

func TestGetStatusesFiltersByBefore(t *testing.T) {
	ctx := context.Background()
	p, gw := newTestPlane(t)

	require.NoError(t, gw.SetStatus(ctx, "job:A", "ENQ", 100))
	require.NoError(t, gw.SetStatus(ctx, "job:B", "ENQ", 200))

	statuses, err := p.GetStatuses(ctx, 150)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "job:A", statuses[0].JobID)
}
