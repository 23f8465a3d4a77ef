package commands

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/teranos/redbike/errors"
)

// StatusesCmd implements `redbike statuses [--before=<TIMESTAMP>]`,
// writing CSV rows of (jobid, event, timestamp) to stdout.
var StatusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "List recorded job statuses as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp("")
		if err != nil {
			return err
		}
		defer a.gw.Close()

		before := int64(math.MaxInt64)
		if raw, _ := cmd.Flags().GetString("before"); raw != "" {
			before, err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return errors.Wrapf(err, "malformed --before timestamp %q", raw)
			}
		}

		statuses, err := a.plane.GetStatuses(cmd.Context(), before)
		if err != nil {
			return err
		}

		w := csv.NewWriter(os.Stdout)
		defer w.Flush()
		for _, s := range statuses {
			if err := w.Write([]string{s.JobID, s.Event, strconv.FormatInt(s.Timestamp, 10)}); err != nil {
				return errors.Wrap(err, "failed to write statuses csv")
			}
		}
		return nil
	},
}

func init() {
	StatusesCmd.Flags().StringP("before", "b", "", "unix timestamp; only statuses at or before this time are listed")
	addConfigFlag(StatusesCmd)
}
