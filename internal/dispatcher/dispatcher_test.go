package dispatcher

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/redbike/internal/control"
	"github.com/teranos/redbike/internal/store"
	"github.com/teranos/redbike/internal/strategy"
	"github.com/teranos/redbike/internal/timefile"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *store.Gateway, string) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	gw := store.NewWithClient(client, "redbike-test", nil)
	rr, err := strategy.NewRoundRobin("A:B")
	require.NoError(t, err)
	plane := control.NewPlane(gw)
	path := filepath.Join(t.TempDir(), ".redbike.timefile")
	d := New(gw, rr, plane, path, nil)
	d.tick = time.Millisecond
	return d, gw, path
}

func TestPromoteMovesDueJobsToQueue(t *testing.T) {
	ctx := context.Background()
	d, gw, _ := newTestDispatcher(t)

	past := time.Now().Add(-time.Hour).Unix()
	require.NoError(t, gw.AddToTimeline(ctx, "job:A", past))
	future := time.Now().Add(time.Hour).Unix()
	require.NoError(t, gw.AddToTimeline(ctx, "job:B", future))

	require.NoError(t, d.promote(ctx, time.Now().Unix()))

	n, err := gw.QueueLen(ctx, "work-A")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, onTimeline, err := gw.TimelineScore(ctx, "job:B")
	require.NoError(t, err)
	assert.True(t, onTimeline, "future job must remain on the timeline")
}

func TestRunStopsWhenHalted(t *testing.T) {
	ctx := context.Background()
	d, gw, _ := newTestDispatcher(t)

	past := time.Now().Add(-time.Minute).Unix()
	require.NoError(t, gw.AddToTimeline(ctx, "job:A", past))

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, nil) }()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, gw.SetControl(ctx, "HALT"))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop after HALT")
	}
}

func TestRunWritesTimefile(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d, _, path := newTestDispatcher(t)

	_ = d.Run(ctx, nil)

	_, ok, err := timefile.Read(path)
	require.NoError(t, err)
	assert.True(t, ok, "dispatcher should have written the timefile at least once")
}

func TestInitialPointInTimePrefersAfter(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	after := int64(12345)
	pit, err := d.initialPointInTime(&after)
	require.NoError(t, err)
	assert.EqualValues(t, 12345, pit)
}
