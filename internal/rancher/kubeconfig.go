package rancher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kdlocpanda/vision/internal/api"
	"github.com/kdlocpanda/vision/internal/errors"
	"github.com/kdlocpanda/vision/internal/runner"
)

// DefaultKubeconfigPath is where downloads land when no path is given.
const DefaultKubeconfigPath = "~/.kube/config"

// kubeconfigDoc is the minimal kubeconfig shape needed to sanity-check
// what the CLI handed back before it touches the local file.
type kubeconfigDoc struct {
	Clusters []struct {
		Name string `yaml:"name"`
	} `yaml:"clusters"`
}

// DownloadKubeconfig fetches the kubeconfig for a cluster from Rancher and
// appends it to the given local path; an empty path means ~/.kube/config.
// The CLI output is validated as a kubeconfig before the file is modified,
// so a CLI error page can never corrupt it.
func (s *Service) DownloadKubeconfig(ctx context.Context, cluster, path string) (api.Kubeconfig, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultKubeconfigPath
	}
	var res runner.Result
	err := s.withCLILock(ctx, "rancher clusters kubeconfig", func() error {
		current, _ := s.store.Get()
		if err := s.Login(ctx, current); err != nil {
			return err
		}

		var err error
		res, err = s.run.Run(ctx, runner.Invocation{
			Bin:  "rancher",
			Args: []string{"clusters", "kubeconfig", cluster},
		})
		return err
	})
	if err != nil {
		return api.Kubeconfig{}, fmt.Errorf("download kubeconfig for %s: %w", cluster, err)
	}

	var doc kubeconfigDoc
	if err := yaml.Unmarshal([]byte(res.Stdout), &doc); err != nil || len(doc.Clusters) == 0 {
		return api.Kubeconfig{}, errors.New(errors.ErrParse,
			fmt.Sprintf("rancher did not return a kubeconfig for cluster '%s'", cluster),
			"Check the cluster name with 'rancher clusters'")
	}

	expanded, err := expandHome(path)
	if err != nil {
		return api.Kubeconfig{}, err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return api.Kubeconfig{}, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't create the kubeconfig directory",
			"Check permissions on "+filepath.Dir(expanded))
	}

	f, err := os.OpenFile(expanded, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return api.Kubeconfig{}, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't open the kubeconfig file",
			"Check permissions on "+expanded)
	}
	defer f.Close()

	if _, err := f.WriteString("\n" + res.Stdout + "\n"); err != nil {
		return api.Kubeconfig{}, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't append to the kubeconfig file", "")
	}

	s.log.Info("kubeconfig for cluster %s appended to %s", cluster, expanded)
	return api.Kubeconfig{Cluster: cluster, Path: expanded}, nil
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't resolve the home directory", "")
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
