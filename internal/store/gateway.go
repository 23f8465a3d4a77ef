package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/teranos/redbike/errors"
)

// Config carries the connection parameters passed, verbatim, to the
// underlying Redis client. It mirrors the `[redbike-redis]` config
// section.
type Config struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Gateway is the typed wrapper over the store's key/value and sorted-set
// operations. It owns one *redis.Client per process, as the design
// assumes one long-lived connection per dispatcher/worker.
type Gateway struct {
	client *redis.Client
	prefix string
	log    *zap.SugaredLogger

	enqueueScript  *redis.Script
	consumeScript  *redis.Script
	recycleScript  *redis.Script
}

// Open connects to the store and verifies reachability with a Ping,
// following the same "build options, open, verify, wrap errors" shape
// the codebase uses for its other storage backends.
func Open(cfg Config, prefix string, log *zap.SugaredLogger) (*Gateway, error) {
	if log != nil {
		log.Debugw("opening store connection", "addr", cfg.Addr, "db", cfg.DB)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "failed to reach store at %s", cfg.Addr)
	}

	if log != nil {
		log.Infow("store connection established", "addr", cfg.Addr, "prefix", prefix)
	}

	return &Gateway{
		client:        client,
		prefix:        prefix,
		log:           log,
		enqueueScript: redis.NewScript(enqueueLua),
		consumeScript: redis.NewScript(consumeLua),
		recycleScript: redis.NewScript(recycleLua),
	}, nil
}

// NewWithClient wraps an existing *redis.Client, used by tests to point
// the gateway at an in-process miniredis server.
func NewWithClient(client *redis.Client, prefix string, log *zap.SugaredLogger) *Gateway {
	return &Gateway{
		client:        client,
		prefix:        prefix,
		log:           log,
		enqueueScript: redis.NewScript(enqueueLua),
		consumeScript: redis.NewScript(consumeLua),
		recycleScript: redis.NewScript(recycleLua),
	}
}

// Close releases the underlying connection.
func (g *Gateway) Close() error {
	return g.client.Close()
}

// Prefix returns the key prefix this gateway was opened with.
func (g *Gateway) Prefix() string { return g.prefix }

// --- Schedules -------------------------------------------------------

func (g *Gateway) SetSchedule(ctx context.Context, jobid, schedule string) error {
	if err := g.client.HSet(ctx, schedulesKey(g.prefix), jobid, schedule).Err(); err != nil {
		return errors.Wrapf(err, "failed to set schedule for %s", jobid)
	}
	return nil
}

// GetSchedule returns the raw schedule string, or "" with ok=false if the
// job has no schedule recorded.
func (g *Gateway) GetSchedule(ctx context.Context, jobid string) (schedule string, ok bool, err error) {
	v, err := g.client.HGet(ctx, schedulesKey(g.prefix), jobid).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to get schedule for %s", jobid)
	}
	return v, true, nil
}

func (g *Gateway) DeleteSchedule(ctx context.Context, jobid string) error {
	if err := g.client.HDel(ctx, schedulesKey(g.prefix), jobid).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete schedule for %s", jobid)
	}
	return nil
}

// GetSchedules returns every (jobid, schedule) pair currently recorded.
func (g *Gateway) GetSchedules(ctx context.Context) (map[string]string, error) {
	m, err := g.client.HGetAll(ctx, schedulesKey(g.prefix)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list schedules")
	}
	return m, nil
}

// --- Statuses ----------------------------------------------------------

func (g *Gateway) SetStatus(ctx context.Context, jobid, event string, ts int64) error {
	value := fmt.Sprintf("%s:%d", event, ts)
	if err := g.client.HSet(ctx, statusesKey(g.prefix), jobid, value).Err(); err != nil {
		return errors.Wrapf(err, "failed to set status for %s", jobid)
	}
	return nil
}

func (g *Gateway) DeleteStatus(ctx context.Context, jobid string) error {
	if err := g.client.HDel(ctx, statusesKey(g.prefix), jobid).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete status for %s", jobid)
	}
	return nil
}

// Status is a parsed entry from the statuses hash.
type Status struct {
	JobID     string
	Event     string
	Timestamp int64
}

func (g *Gateway) GetStatus(ctx context.Context, jobid string) (Status, bool, error) {
	v, err := g.client.HGet(ctx, statusesKey(g.prefix), jobid).Result()
	if err == redis.Nil {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, errors.Wrapf(err, "failed to get status for %s", jobid)
	}
	event, ts, err := parseStatusValue(v)
	if err != nil {
		return Status{}, false, err
	}
	return Status{JobID: jobid, Event: event, Timestamp: ts}, true, nil
}

// GetStatuses yields every status entry with timestamp <= before.
func (g *Gateway) GetStatuses(ctx context.Context, before int64) ([]Status, error) {
	all, err := g.client.HGetAll(ctx, statusesKey(g.prefix)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list statuses")
	}
	out := make([]Status, 0, len(all))
	for jobid, v := range all {
		event, ts, err := parseStatusValue(v)
		if err != nil {
			return nil, err
		}
		if ts <= before {
			out = append(out, Status{JobID: jobid, Event: event, Timestamp: ts})
		}
	}
	return out, nil
}

func parseStatusValue(v string) (event string, ts int64, err error) {
	idx := strings.LastIndex(v, ":")
	if idx < 0 {
		return "", 0, errors.Newf("malformed status value %q", v)
	}
	event = v[:idx]
	ts, parseErr := strconv.ParseInt(v[idx+1:], 10, 64)
	if parseErr != nil {
		return "", 0, errors.Wrapf(parseErr, "malformed status timestamp in %q", v)
	}
	return event, ts, nil
}

// --- Timeline ------------------------------------------------------------

func (g *Gateway) AddToTimeline(ctx context.Context, jobid string, ts int64) error {
	if err := g.client.ZAdd(ctx, timelineKey(g.prefix), redis.Z{
		Score:  float64(ts),
		Member: jobid,
	}).Err(); err != nil {
		return errors.Wrapf(err, "failed to add %s to timeline", jobid)
	}
	return nil
}

func (g *Gateway) RemoveFromTimeline(ctx context.Context, jobid string) error {
	if err := g.client.ZRem(ctx, timelineKey(g.prefix), jobid).Err(); err != nil {
		return errors.Wrapf(err, "failed to remove %s from timeline", jobid)
	}
	return nil
}

// DueTimeline returns every jobid whose score (next-fire time) is <= before.
func (g *Gateway) DueTimeline(ctx context.Context, before int64) ([]string, error) {
	jobs, err := g.client.ZRangeByScore(ctx, timelineKey(g.prefix), &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(before, 10),
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query timeline")
	}
	return jobs, nil
}

// TimelineScore returns the next-fire score for jobid, if present.
func (g *Gateway) TimelineScore(ctx context.Context, jobid string) (int64, bool, error) {
	score, err := g.client.ZScore(ctx, timelineKey(g.prefix), jobid).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "failed to get timeline score for %s", jobid)
	}
	return int64(score), true, nil
}

// --- Queues (non-atomic helpers; Enqueue/Consume below are the atomic ones) ---

// RemoveFromQueue removes jobid from a queue's list and membership set.
// Used by unset(), which must be able to pull a job out of a queue it
// was never claimed from.
func (g *Gateway) RemoveFromQueue(ctx context.Context, queue, jobid string) error {
	pipe := g.client.TxPipeline()
	pipe.LRem(ctx, queueKey(g.prefix, queue), 0, jobid)
	pipe.SRem(ctx, queueMembersKey(g.prefix, queue), jobid)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to remove %s from queue %s", jobid, queue)
	}
	return nil
}

// QueueLen returns how many jobids currently sit in a queue's list.
func (g *Gateway) QueueLen(ctx context.Context, queue string) (int64, error) {
	n, err := g.client.LLen(ctx, queueKey(g.prefix, queue)).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to measure queue %s", queue)
	}
	return n, nil
}

// --- Working marker ------------------------------------------------------

func (g *Gateway) IsWorking(ctx context.Context, queue, jobid string) (bool, error) {
	n, err := g.client.Exists(ctx, workingKey(g.prefix, queue, jobid)).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to check working marker for %s", jobid)
	}
	return n > 0, nil
}

// ForceRecycle deletes a working marker unconditionally, used when the
// caller has already decided the job is done with that claim (UnsetJob,
// unexpected error) regardless of who holds the tag.
func (g *Gateway) ForceRecycle(ctx context.Context, queue, jobid string) error {
	if err := g.client.Del(ctx, workingKey(g.prefix, queue, jobid)).Err(); err != nil {
		return errors.Wrapf(err, "failed to force-recycle %s", jobid)
	}
	return nil
}

// --- Control plane ---------------------------------------------------------

func (g *Gateway) SetControl(ctx context.Context, signal string) error {
	if err := g.client.Set(ctx, controlKey(g.prefix), signal, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to set control signal %s", signal)
	}
	return nil
}

func (g *Gateway) GetControl(ctx context.Context) (string, error) {
	v, err := g.client.Get(ctx, controlKey(g.prefix)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to read control key")
	}
	return v, nil
}

func (g *Gateway) ClearControl(ctx context.Context) error {
	if err := g.client.Del(ctx, controlKey(g.prefix)).Err(); err != nil {
		return errors.Wrap(err, "failed to clear control key")
	}
	return nil
}

// Flush deletes every key under this gateway's prefix. It scans rather
// than using KEYS so it doesn't block the store on a large keyspace.
func (g *Gateway) Flush(ctx context.Context) error {
	pattern := g.prefix + "-*"
	iter := g.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "failed to scan keys for flush")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := g.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "failed to delete keys during flush")
	}
	return nil
}

// Pipeline exposes a fresh pipeliner for callers (CSV bulk-load) that
// need to batch a run of independent writes into one round trip.
func (g *Gateway) Pipeline() redis.Pipeliner {
	return g.client.Pipeline()
}
