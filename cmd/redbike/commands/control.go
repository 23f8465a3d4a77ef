package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/redbike/errors"
)

// ControlCmd implements `redbike control <SIGNAL>`. Currently only HALT
// is recognized.
var ControlCmd = &cobra.Command{
	Use:   "control <SIGNAL>",
	Short: "Send a control signal to every dispatcher/worker sharing this prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp("")
		if err != nil {
			return err
		}
		defer a.gw.Close()

		signal := strings.ToUpper(args[0])
		if signal != "HALT" {
			return errors.Newf("unsupported control signal %q (only HALT is recognized)", args[0])
		}
		return a.plane.Halt(cmd.Context())
	},
}

func init() {
	addConfigFlag(ControlCmd)
}
