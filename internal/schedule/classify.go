// Package schedule implements the schedule parser and job state
// machine: classifying a schedule string into a queue/timeline/terminal
// action, and applying that action against the store gateway.
package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/teranos/redbike/errors"
)

// Action is the tagged outcome of classifying a schedule string.
type Action int

const (
	// ActionUnset means the job's state should be deleted entirely.
	ActionUnset Action = iota
	// ActionStop means the job is terminal; status STP, no queue/timeline.
	ActionStop
	// ActionEnqueue means the job should be pushed directly onto its queue.
	ActionEnqueue
	// ActionTimeline means the job should be placed on the timeline at At.
	ActionTimeline
	// ActionBad means the schedule string (an attempted RRULE) failed to
	// parse; status BAD, no queue/timeline change.
	ActionBad
)

// Classification is the result of Classify: what to do, plus the
// normalized schedule string to persist when it differs from the input
// (NOW and AT: both collapse to STOP once scheduled).
type Classification struct {
	Action          Action
	At              int64  // valid when Action == ActionTimeline
	NormalizedValue string // non-empty when the stored schedule must change
}

// Classify turns a raw schedule string into the action that should be
// taken against a job's state. after is the reference instant RRULEs
// are evaluated from; nil means "now".
func Classify(raw string, after *time.Time) (Classification, error) {
	switch {
	case raw == "":
		return Classification{Action: ActionUnset}, nil
	case raw == "STOP":
		return Classification{Action: ActionStop}, nil
	case raw == "CONTINUE":
		return Classification{Action: ActionEnqueue}, nil
	case raw == "NOW":
		return Classification{Action: ActionEnqueue, NormalizedValue: "STOP"}, nil
	case strings.HasPrefix(raw, "AT:"):
		ts, err := strconv.ParseInt(strings.TrimPrefix(raw, "AT:"), 10, 64)
		if err != nil {
			return Classification{}, errors.Wrapf(err, "malformed AT schedule %q", raw)
		}
		return Classification{Action: ActionTimeline, At: ts, NormalizedValue: "STOP"}, nil
	default:
		return classifyRRule(raw, after)
	}
}

// ClassifyContinueWithBackoff handles the one case Classify can't decide
// on its own: CONTINUE with a positive backoff goes to the timeline
// instead of straight to the queue.
func ClassifyContinueWithBackoff(backoffSeconds int64, now time.Time) Classification {
	return Classification{Action: ActionTimeline, At: now.Unix() + backoffSeconds}
}

func classifyRRule(raw string, after *time.Time) (Classification, error) {
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return Classification{Action: ActionBad}, nil
	}

	afterDT := time.Now().UTC()
	if after != nil {
		afterDT = after.UTC()
	}

	next := r.After(afterDT, false)
	if next.IsZero() {
		return Classification{Action: ActionStop}, nil
	}
	return Classification{Action: ActionTimeline, At: next.UTC().Unix()}, nil
}
