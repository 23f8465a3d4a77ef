package commands

import (
	"encoding/csv"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/redbike/errors"
)

// SchedulesCmd implements `redbike schedules`, writing CSV rows of
// (jobid, schedule) to stdout.
var SchedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "List every recorded schedule as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp("")
		if err != nil {
			return err
		}
		defer a.gw.Close()

		schedules, err := a.plane.GetSchedules(cmd.Context())
		if err != nil {
			return err
		}

		w := csv.NewWriter(os.Stdout)
		defer w.Flush()
		for jobid, sched := range schedules {
			if err := w.Write([]string{jobid, sched}); err != nil {
				return errors.Wrap(err, "failed to write schedules csv")
			}
		}
		return nil
	},
}

func init() {
	addConfigFlag(SchedulesCmd)
}
