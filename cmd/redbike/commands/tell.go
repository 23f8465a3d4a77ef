package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/redbike/errors"
)

// tellView is the JSON shape printed by `redbike tell`: lowercase,
// underscore-separated keys rather than Go's exported-field casing, and
// all five keys always present — status/since/schedule/next_run are
// null rather than omitted when the job has no recorded value, so a
// caller parsing the output doesn't need to distinguish "key missing"
// from "value unknown".
type tellView struct {
	Status   *string `json:"status"`
	Since    *int64  `json:"since"`
	Schedule *string `json:"schedule"`
	NextRun  *int64  `json:"next_run"`
	Working  bool    `json:"working"`
}

// TellCmd implements `redbike tell <JOBID>`, printing a point-in-time
// snapshot as indented JSON.
var TellCmd = &cobra.Command{
	Use:   "tell <JOBID>",
	Short: "Print a point-in-time snapshot of a job's status, schedule, and queue state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp("")
		if err != nil {
			return err
		}
		defer a.gw.Close()

		snap, err := a.plane.Tell(cmd.Context(), args[0], a.strategy.QueueFor)
		if err != nil {
			return err
		}

		view := tellView{Working: snap.Working}
		if snap.Status != "" {
			view.Status = &snap.Status
			view.Since = &snap.Since
		}
		if snap.Schedule != "" {
			view.Schedule = &snap.Schedule
		}
		if snap.HasNextRun {
			view.NextRun = &snap.NextRun
		}

		out, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal tell output")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	addConfigFlag(TellCmd)
}
