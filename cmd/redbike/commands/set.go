package commands

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/redbike/errors"
)

// SetCmd implements `redbike set <JOBID> <SCHEDULE> [--after=<TIMESTAMP>]`.
var SetCmd = &cobra.Command{
	Use:   "set <JOBID> <SCHEDULE>",
	Short: "Record and immediately apply a job's schedule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp("")
		if err != nil {
			return err
		}
		defer a.gw.Close()

		after, err := parseOptionalTimestamp(cmd, "after")
		if err != nil {
			return err
		}

		return a.machine.Set(cmd.Context(), args[0], args[1], after)
	},
}

// UnsetCmd implements `redbike unset <JOBID>`.
var UnsetCmd = &cobra.Command{
	Use:   "unset <JOBID>",
	Short: "Delete a job's schedule, status, timeline entry, and queue membership",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp("")
		if err != nil {
			return err
		}
		defer a.gw.Close()

		return a.machine.Unset(cmd.Context(), args[0])
	},
}

func init() {
	SetCmd.Flags().StringP("after", "a", "", "unix timestamp an RRULE schedule's next fire time is computed after (default now)")
	addConfigFlag(SetCmd)
	addConfigFlag(UnsetCmd)
}

// parseOptionalTimestamp reads an integer-seconds flag, returning nil if
// it was never set.
func parseOptionalTimestamp(cmd *cobra.Command, name string) (*time.Time, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil || raw == "" {
		return nil, nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed --%s timestamp %q", name, raw)
	}
	t := time.Unix(secs, 0)
	return &t, nil
}
