package rancher

import (
	"context"
	"fmt"
	"strings"

	"github.com/kdlocpanda/vision/internal/api"
	"github.com/kdlocpanda/vision/internal/config"
	"github.com/kdlocpanda/vision/internal/errors"
	"github.com/kdlocpanda/vision/internal/lock"
	"github.com/kdlocpanda/vision/internal/logger"
	"github.com/kdlocpanda/vision/internal/runner"
	"github.com/kdlocpanda/vision/internal/util"
)

// Service exposes the Rancher-backed actions. All CLI calls go through the
// shared runner, so the allow-list, argv safety, and timeout bounds apply
// uniformly.
type Service struct {
	run     runner.Runner
	store   *Store
	cfg     config.RancherConfig
	log     logger.Logger
	lockDir string
}

// NewService wires a Service from its collaborators.
func NewService(run runner.Runner, store *Store, cfg config.RancherConfig) *Service {
	return &Service{
		run:   run,
		store: store,
		cfg:   cfg,
		log:   logger.NewEnvLogger("[rancher]"),
	}
}

// Store returns the underlying context store.
func (s *Service) Store() *Store {
	return s.store
}

// SetLockDir enables cross-process serialization of rancher CLI calls.
// The CLI keeps its login and current project in a per-user config dir,
// so concurrent login/kubectl pairs scoped to different contexts would
// race without it. Empty (the default) disables locking; tests and
// single-shot tools don't need it.
func (s *Service) SetLockDir(dir string) {
	s.lockDir = dir
}

// withCLILock runs fn while holding the CLI lock, when one is configured.
func (s *Service) withCLILock(ctx context.Context, command string, fn func() error) error {
	if s.lockDir == "" {
		return fn()
	}
	l, err := lock.Acquire(ctx, s.lockDir, lock.Options{Command: command})
	if err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

// loginArgs builds the argv for rancher login. The token travels as a
// discrete argument and is redacted by the runner's log rendering.
func (s *Service) loginArgs(rancherContext string) ([]string, error) {
	if s.cfg.URL == "" || s.cfg.Token == "" {
		return nil, errors.New(errors.ErrConfig,
			"RANCHER_URL and RANCHER_TOKEN are required",
			"Export both variables or set rancher.url and rancher.token in vision.yaml")
	}

	args := []string{"login", s.cfg.URL, "--token", s.cfg.Token}
	if rancherContext != "" {
		args = append(args, "--context", rancherContext)
	}
	if s.cfg.Insecure {
		args = append(args, "--insecure")
	}
	if s.cfg.CACerts != "" {
		args = append(args, "--cacerts", s.cfg.CACerts)
	}
	return args, nil
}

// Login authenticates the Rancher CLI, optionally scoped to a context.
func (s *Service) Login(ctx context.Context, rancherContext string) error {
	args, err := s.loginArgs(rancherContext)
	if err != nil {
		return err
	}
	if _, err := s.run.Run(ctx, runner.Invocation{Bin: "rancher", Args: args}); err != nil {
		return fmt.Errorf("rancher login: %w", err)
	}
	return nil
}

// Kubectl runs `rancher kubectl -n <namespace> <args...>` after a fresh
// scoped login. Cluster-scoped calls pass an empty namespace and get no -n
// flag. The current context comes from the store; operating without one is
// an error surfaced to the caller, not guessed around.
func (s *Service) Kubectl(ctx context.Context, namespace string, args ...string) (runner.Result, error) {
	var res runner.Result
	err := s.withCLILock(ctx, "rancher kubectl", func() error {
		current, err := s.store.Get()
		if err != nil {
			return err
		}
		if err := s.Login(ctx, current); err != nil {
			return err
		}

		argv := []string{"kubectl"}
		if namespace != "" {
			argv = append(argv, "-n", namespace)
		}
		argv = append(argv, args...)
		res, err = s.run.Run(ctx, runner.Invocation{Bin: "rancher", Args: argv})
		return err
	})
	return res, err
}

// CurrentContext returns the persisted context, or ErrNoContext.
func (s *Service) CurrentContext() (api.CurrentContext, error) {
	value, err := s.store.Get()
	if err != nil {
		return api.CurrentContext{}, err
	}
	return api.CurrentContext{Context: value}, nil
}

// SetContext persists a new context. A value containing a colon is taken as
// a project id directly; a bare name is resolved case-insensitively against
// the contexts the CLI knows about. The new scope is verified with a login
// before it is persisted, so a bad value never replaces a working one.
func (s *Service) SetContext(ctx context.Context, nameOrID string) (api.CurrentContext, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if nameOrID == "" {
		return api.CurrentContext{}, errors.New(errors.ErrConfig,
			"context value is empty",
			"Pass a project id like 'c-abc123:p-def456' or a context name")
	}

	var projectID string
	err := s.withCLILock(ctx, "rancher context set", func() error {
		projectID = nameOrID
		if !strings.Contains(nameOrID, ":") {
			resolved, err := s.resolveContextName(ctx, nameOrID)
			if err != nil {
				return err
			}
			projectID = resolved
		}

		if err := s.Login(ctx, projectID); err != nil {
			return err
		}
		return s.store.Set(projectID)
	})
	if err != nil {
		return api.CurrentContext{}, err
	}

	s.log.Info("rancher context set to %s", projectID)
	return api.CurrentContext{Context: projectID}, nil
}

func (s *Service) resolveContextName(ctx context.Context, name string) (string, error) {
	list, err := s.listContexts(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve context %q: %w", name, err)
	}

	var available []string
	for _, entry := range list.Contexts {
		if strings.EqualFold(entry.Name, name) {
			return entry.ProjectID, nil
		}
		available = append(available, entry.Name)
	}

	return "", errors.New(errors.ErrConfig,
		fmt.Sprintf("no rancher context named '%s'", name),
		"Available: "+util.JoinOrNone(available))
}

// ListContexts asks the CLI for its known contexts and parses the table.
func (s *Service) ListContexts(ctx context.Context) (api.ContextList, error) {
	var list api.ContextList
	err := s.withCLILock(ctx, "rancher context ls", func() error {
		var err error
		list, err = s.listContexts(ctx)
		return err
	})
	return list, err
}

// listContexts is ListContexts without the CLI lock, for callers already
// holding it.
func (s *Service) listContexts(ctx context.Context) (api.ContextList, error) {
	if err := s.Login(ctx, ""); err != nil {
		return api.ContextList{}, err
	}

	res, err := s.run.Run(ctx, runner.Invocation{Bin: "rancher", Args: []string{"context", "ls"}})
	if err != nil {
		return api.ContextList{}, fmt.Errorf("list contexts: %w", err)
	}

	contexts, err := parseContextTable(res.Stdout)
	if err != nil {
		return api.ContextList{}, err
	}
	return api.ContextList{Contexts: contexts}, nil
}

// parseContextTable parses `rancher context ls` output. Expected columns,
// located by header name: NAME and PROJECT (id). A leading CURRENT column
// marks the active row with '*'. Zero data rows is a valid empty result;
// a row with fewer columns than the header demands is a parse error.
func parseContextTable(output string) ([]api.ContextEntry, error) {
	lines := nonEmptyLines(output)
	if len(lines) == 0 {
		return []api.ContextEntry{}, nil
	}

	header := strings.Fields(strings.ToUpper(lines[0]))
	nameIdx, projectIdx, currentIdx := -1, -1, -1
	for i, col := range header {
		switch col {
		case "NAME":
			nameIdx = i
		case "PROJECT", "PROJECT-ID":
			projectIdx = i
		case "CURRENT":
			currentIdx = i
		}
	}
	if nameIdx < 0 || projectIdx < 0 {
		return nil, errors.New(errors.ErrParse,
			"unexpected context listing header: "+lines[0],
			"The rancher CLI output format may have changed; check the CLI version")
	}

	need := nameIdx
	if projectIdx > need {
		need = projectIdx
	}

	entries := make([]api.ContextEntry, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cols := strings.Fields(line)

		// A current-marker column may be blank in non-current rows, which
		// shifts every field left by one.
		offset := 0
		if currentIdx >= 0 && currentIdx < nameIdx && cols[0] != "*" {
			offset = -1
		}

		if len(cols) <= need+offset {
			return nil, errors.New(errors.ErrParse,
				"unexpected context row: "+line,
				"The rancher CLI output format may have changed; check the CLI version")
		}

		entries = append(entries, api.ContextEntry{
			Name:      cols[nameIdx+offset],
			ProjectID: cols[projectIdx+offset],
			Current:   currentIdx >= 0 && cols[0] == "*",
		})
	}
	return entries, nil
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
