// Package commands implements the redbike CLI's command surface, one
// file per subcommand, following the teacher's cmd/qntx/commands
// layout: package-level *cobra.Command values wired together in
// cmd/redbike/main.go.
package commands

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teranos/redbike"
	"github.com/teranos/redbike/errors"
	redbikecfg "github.com/teranos/redbike/internal/config"
	"github.com/teranos/redbike/internal/control"
	"github.com/teranos/redbike/internal/rblog"
	"github.com/teranos/redbike/internal/schedule"
	"github.com/teranos/redbike/internal/store"
	"github.com/teranos/redbike/internal/strategy"
	"github.com/teranos/redbike/internal/workfunc"
)

// app bundles the wiring every command needs: config, store gateway,
// the resolved strategy, and the higher-level Machine/Plane built over
// them. Assembling this once here keeps each command's RunE a few lines
// of business logic instead of repeating the config-load/store-open/
// strategy-build chain per command.
type app struct {
	cfg      *redbikecfg.Config
	gw       *store.Gateway
	strategy redbike.Strategy
	machine  *schedule.Machine
	plane    *control.Plane
}

var (
	strategyRegistry = strategy.NewRegistry()
	workfuncRegistry = workfunc.NewRegistry()
)

// configPath is bound to every subcommand as `--config`, mirroring the
// original CLI's docopt option of the same name.
var configPath string

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a redbike config file (defaults built in if omitted)")
}

// buildApp loads config, opens the store, and resolves the strategy
// named by workerOverride (or the config's `worker` value if empty).
func buildApp(workerOverride string) (*app, error) {
	cfg, err := redbikecfg.Load(configPath)
	if err != nil {
		return nil, err
	}

	worker := workerOverride
	if worker == "" {
		worker = cfg.Redbike.Worker
	}

	strat, err := strategyRegistry.Build(worker)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve worker strategy")
	}

	gw, err := store.Open(store.Config{
		Addr:         cfg.RedbikeRedis.Addr,
		Password:     cfg.RedbikeRedis.Password,
		DB:           cfg.RedbikeRedis.DB,
		DialTimeout:  cfg.RedbikeRedis.DialTimeoutDuration(),
		ReadTimeout:  cfg.RedbikeRedis.ReadTimeoutDuration(),
		WriteTimeout: cfg.RedbikeRedis.WriteTimeoutDuration(),
	}, cfg.Redbike.Prefix, rblog.Logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		gw:       gw,
		strategy: strat,
		machine:  schedule.NewMachine(gw, strat),
		plane:    control.NewPlane(gw),
	}, nil
}

// buildWorkFunc resolves the same worker spec to a job body, used only
// by the `work` command.
func buildWorkFunc(workerOverride string, cfg *redbikecfg.Config) (redbike.WorkFunc, error) {
	worker := workerOverride
	if worker == "" {
		worker = cfg.Redbike.Worker
	}
	fn, err := workfuncRegistry.Build(worker)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve worker job body")
	}
	return fn, nil
}

// InitLogger wires the global logger once per process invocation and
// tags it with a per-run correlation id, so every log line a single
// `redbike` invocation emits can be grepped out of a shared log stream.
// The root command's PersistentPreRunE calls this before any subcommand
// runs.
func InitLogger(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json-logs")
	if err := rblog.Initialize(jsonOutput); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	rblog.Logger = rblog.Logger.With("run_id", uuid.NewString())
	return nil
}

