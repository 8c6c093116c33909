package cli

import (
	"github.com/kdlocpanda/vision/internal/config"
	"github.com/kdlocpanda/vision/internal/kube"
	"github.com/kdlocpanda/vision/internal/rancher"
	"github.com/kdlocpanda/vision/internal/runner"
	"github.com/kdlocpanda/vision/internal/vision"
)

// app bundles the loaded configuration with the wired action services.
// Every subcommand builds one per invocation; nothing is cached between
// runs.
type app struct {
	cfg     *config.Config
	rancher *rancher.Service
	kube    *kube.Service
	vision  *vision.Executor
}

// newApp loads the configuration (file plus environment) and wires the
// services the subcommands dispatch to.
func newApp() (*app, error) {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, err
	}

	run := runner.New(cfg.Timeouts.Command)
	store := rancher.NewStore(cfg.ContextFile())
	rsvc := rancher.NewService(run, store, cfg.Rancher)
	rsvc.SetLockDir(cfg.CLILockDir())

	return &app{
		cfg:     cfg,
		rancher: rsvc,
		kube:    kube.NewService(rsvc),
		vision:  vision.NewExecutor(cfg.Vision, cfg.Timeouts),
	}, nil
}
