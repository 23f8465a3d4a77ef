// Package strategy provides the worker strategy implementations that map
// jobids onto queues.
package strategy

import (
	"strings"

	"github.com/teranos/redbike/errors"
)

// RoundRobin is the reference strategy: initstring is a colon-separated
// list of codes, each mapped to a queue named "work-<code>". A jobid's
// queue is derived from the last colon-delimited segment of its id, so
// jobid "foo:bar:A" targets queue "work-A".
type RoundRobin struct {
	codes []string
}

// NewRoundRobin builds a RoundRobin strategy from a colon-separated
// initstring, e.g. "A:B:C".
func NewRoundRobin(initstring string) (*RoundRobin, error) {
	codes := strings.Split(initstring, ":")
	if len(codes) == 0 || (len(codes) == 1 && codes[0] == "") {
		return nil, errors.Newf("round-robin strategy requires at least one code, got %q", initstring)
	}
	return &RoundRobin{codes: codes}, nil
}

func nameQueue(code string) string {
	return "work-" + code
}

// Queues returns the bare queue names declared by this strategy.
func (r *RoundRobin) Queues() []string {
	names := make([]string, len(r.codes))
	for i, c := range r.codes {
		names[i] = nameQueue(c)
	}
	return names
}

// QueueFor maps a jobid to a queue by its last colon-delimited segment.
func (r *RoundRobin) QueueFor(jobid string) string {
	parts := strings.Split(jobid, ":")
	return nameQueue(parts[len(parts)-1])
}

// Timeout returns 0 for every queue, telling the worker to fall back to
// its configured default-timeout.
func (r *RoundRobin) Timeout(queue string) int64 {
	return 0
}
