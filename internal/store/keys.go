// Package store is the typed gateway over the Redis-compatible key/value +
// sorted-set backend that holds all redbike state: schedules, statuses,
// the timeline, per-worker queues, queue-membership sets, working markers,
// and the control key.
package store

import "fmt"

// Key builders. Every component that needs a key goes through one of
// these so a future namespacing change has a single call site per key
// family.

func schedulesKey(prefix string) string { return fmt.Sprintf("%s-schedules", prefix) }
func statusesKey(prefix string) string  { return fmt.Sprintf("%s-statuses", prefix) }
func timelineKey(prefix string) string  { return fmt.Sprintf("%s-timeline", prefix) }
func controlKey(prefix string) string   { return fmt.Sprintf("%s-control", prefix) }

func queueKey(prefix, queue string) string {
	return fmt.Sprintf("%s-%s", prefix, queue)
}

func queueMembersKey(prefix, queue string) string {
	return fmt.Sprintf("%s-%s-members", prefix, queue)
}

func workingKey(prefix, queue, jobid string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, queue, jobid)
}
