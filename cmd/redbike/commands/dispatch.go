package commands

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/teranos/redbike/errors"
	"github.com/teranos/redbike/internal/dispatcher"
	"github.com/teranos/redbike/internal/shutdown"
)

// DispatchCmd implements `redbike dispatch [<WORKER>]
// [--schedules=<CSV> [--after=<TIMESTAMP>]]`: the promotion-loop daemon.
var DispatchCmd = &cobra.Command{
	Use:   "dispatch [WORKER]",
	Short: "Run the promotion loop, moving due jobs from the timeline onto their queues",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		worker := ""
		if len(args) == 1 {
			worker = args[0]
		}

		a, err := buildApp(worker)
		if err != nil {
			return err
		}
		defer a.gw.Close()

		if csvPath, _ := cmd.Flags().GetString("schedules"); csvPath != "" {
			if err := loadSchedulesCSV(cmd, a, csvPath); err != nil {
				return err
			}
		}

		after, err := parseOptionalAfterSeconds(cmd)
		if err != nil {
			return err
		}

		waiter := shutdown.New(cmd.Context())
		defer waiter.Stop()

		d := dispatcher.New(a.gw, a.strategy, a.plane, a.cfg.Redbike.Timefile, nil)

		errCh := make(chan error, 1)
		go func() { errCh <- d.Run(waiter.Context(), after) }()

		waiter.Wait()
		return <-errCh
	},
}

func init() {
	DispatchCmd.Flags().StringP("after", "a", "", "unix timestamp the initial promotion sweep starts from")
	DispatchCmd.Flags().StringP("schedules", "s", "", "CSV file of JOBID,SCHEDULE pairs to load at startup")
	addConfigFlag(DispatchCmd)
}

func parseOptionalAfterSeconds(cmd *cobra.Command) (*int64, error) {
	raw, err := cmd.Flags().GetString("after")
	if err != nil || raw == "" {
		return nil, nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed --after timestamp %q", raw)
	}
	return &secs, nil
}

// loadSchedulesCSV reads (jobid, schedule) pairs from csvPath and bulk
// loads them through the Machine before the dispatch loop starts.
func loadSchedulesCSV(cmd *cobra.Command, a *app, csvPath string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return errors.Wrapf(err, "failed to open schedules csv %s", csvPath)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return errors.Wrapf(err, "failed to parse schedules csv %s", csvPath)
	}

	rows := make([][2]string, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		rows = append(rows, [2]string{rec[0], rec[1]})
	}

	return a.machine.LoadCSV(cmd.Context(), rows, 0)
}
