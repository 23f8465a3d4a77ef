package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/redbike/internal/shutdown"
	"github.com/teranos/redbike/internal/worker"
)

// WorkCmd implements `redbike work [<WORKER>]`: the consume/execute/
// recycle loop.
var WorkCmd = &cobra.Command{
	Use:   "work [WORKER]",
	Short: "Run the worker loop, claiming jobs and invoking the resolved job body",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := ""
		if len(args) == 1 {
			spec = args[0]
		}

		a, err := buildApp(spec)
		if err != nil {
			return err
		}
		defer a.gw.Close()

		workFn, err := buildWorkFunc(spec, a.cfg)
		if err != nil {
			return err
		}

		waiter := shutdown.New(cmd.Context())
		defer waiter.Stop()

		w := worker.New(a.gw, a.strategy, a.machine, a.plane, workFn, a.cfg.Redbike.DefaultTimeoutDuration(), nil)

		errCh := make(chan error, 1)
		go func() { errCh <- w.Run(waiter.Context()) }()

		waiter.Wait()
		return <-errCh
	},
}

func init() {
	addConfigFlag(WorkCmd)
}
