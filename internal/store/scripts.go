package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/teranos/redbike/errors"
)

// These two scripts are the only places invariant 1 (at most one of
// {queued, timelined, working} per jobid) is enforced. Both must stay
// atomic server-side operations; splitting either into separate round
// trips reopens the race the scripts exist to close.

// enqueueLua pushes the job onto its queue unless it is already queued
// or working, and stamps an ENQ status only when the push actually
// happened.
const enqueueLua = `
local queueKey = KEYS[1]
local membersKey = KEYS[2]
local workingKey = KEYS[3]
local statusesKey = KEYS[4]
local jobid = ARGV[1]
local ts = ARGV[2]

if redis.call('SISMEMBER', membersKey, jobid) == 1 then
  return 0
end
if redis.call('EXISTS', workingKey) == 1 then
  return 0
end

redis.call('LPUSH', queueKey, jobid)
redis.call('SADD', membersKey, jobid)
redis.call('HSET', statusesKey, jobid, 'ENQ:' .. ts)
return 1
`

// consumeLua implements consume(queue, timeout_s, ts, jobtag): pop the
// oldest job off the queue, drop it from the membership set, and claim
// a TTL'd working marker for it in one round trip so no other worker
// can observe the job as both dequeued and unclaimed.
const consumeLua = `
local queueKey = KEYS[1]
local membersKey = KEYS[2]
local statusesKey = KEYS[3]
local workingKeyPrefix = ARGV[1]
local timeoutSeconds = ARGV[2]
local ts = ARGV[3]
local jobtag = ARGV[4]

local jobid = redis.call('RPOP', queueKey)
if not jobid then
  return false
end

redis.call('SREM', membersKey, jobid)
redis.call('SET', workingKeyPrefix .. jobid, jobtag, 'EX', timeoutSeconds)
redis.call('HSET', statusesKey, jobid, 'WRK:' .. ts)
return jobid
`

// recycleLua implements the compare-and-delete that gives a working
// marker a single authoritative owner: only the caller whose jobtag
// still matches the stored value may clear it.
const recycleLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
else
  return 0
end
`

// Enqueue pushes jobid onto queue unless it is already queued or being
// worked. Returns true if the push happened.
func (g *Gateway) Enqueue(ctx context.Context, queue, jobid string, ts int64) (bool, error) {
	res, err := g.enqueueScript.Run(ctx, g.client, []string{
		queueKey(g.prefix, queue),
		queueMembersKey(g.prefix, queue),
		workingKey(g.prefix, queue, jobid),
		statusesKey(g.prefix),
	}, jobid, ts).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to enqueue %s onto %s", jobid, queue)
	}
	n, ok := res.(int64)
	return ok && n == 1, nil
}

// Consume pops the oldest job from queue and claims it with jobtag for
// timeout. Returns ("", false, nil) when the queue was empty.
func (g *Gateway) Consume(ctx context.Context, queue string, timeout time.Duration, ts int64, jobtag string) (string, bool, error) {
	res, err := g.consumeScript.Run(ctx, g.client, []string{
		queueKey(g.prefix, queue),
		queueMembersKey(g.prefix, queue),
		statusesKey(g.prefix),
	}, workingKeyPrefix(g.prefix, queue), int64(timeout/time.Second), ts, jobtag).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to consume from %s", queue)
	}
	jobid, ok := res.(string)
	if !ok || jobid == "" {
		return "", false, nil
	}
	return jobid, true, nil
}

// Recycle releases the working marker for (queue, jobid) iff jobtag
// matches the value currently stored there. Returns false if the
// marker had already expired or been claimed by someone else.
func (g *Gateway) Recycle(ctx context.Context, queue, jobid, jobtag string) (bool, error) {
	res, err := g.recycleScript.Run(ctx, g.client, []string{
		workingKey(g.prefix, queue, jobid),
	}, jobtag).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to recycle %s", jobid)
	}
	n, ok := res.(int64)
	return ok && n == 1, nil
}

func workingKeyPrefix(prefix, queue string) string {
	return prefix + "-" + queue + "-"
}
