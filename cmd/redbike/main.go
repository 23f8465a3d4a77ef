package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/redbike/cmd/redbike/commands"
)

var rootCmd = &cobra.Command{
	Use:   "redbike",
	Short: "redbike - a persistent, recurring job scheduler over a Redis-compatible store",
	Long: `redbike schedules and runs recurring jobs against a Redis-compatible
store: a dispatcher promotes due jobs from a timeline onto per-worker
queues, and workers consume them round-robin, invoking your job body and
rescheduling per each job's iCal RRULE (or CONTINUE/STOP/AT) schedule.

Commands:
  set        record and apply a job's schedule
  unset      delete a job's state entirely
  dispatch   run the promotion loop
  work       run the consume/execute/recycle loop
  statuses   list recorded job statuses (CSV)
  schedules  list recorded schedules (CSV)
  tell       print a point-in-time snapshot of one job (JSON)
  control    send a control signal (HALT) to every process sharing a prefix`,
	PersistentPreRunE: commands.InitLogger,
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.SetCmd)
	rootCmd.AddCommand(commands.UnsetCmd)
	rootCmd.AddCommand(commands.DispatchCmd)
	rootCmd.AddCommand(commands.WorkCmd)
	rootCmd.AddCommand(commands.StatusesCmd)
	rootCmd.AddCommand(commands.SchedulesCmd)
	rootCmd.AddCommand(commands.TellCmd)
	rootCmd.AddCommand(commands.ControlCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
