package rancher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdlocpanda/vision/internal/errors"
	runnertest "github.com/kdlocpanda/vision/internal/runner/testing"
)

const sampleKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: harvester
  cluster:
    server: https://10.0.0.2:6443
contexts:
- name: harvester
  context:
    cluster: harvester
    user: harvester
users:
- name: harvester
  user:
    token: kubeconfig-user-token
`

func TestDownloadKubeconfig(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	svc := newTestService(t, fake, validConfig())

	fake.RespondOutput("clusters kubeconfig harvester", sampleKubeconfig)

	path := filepath.Join(t.TempDir(), ".kube", "config")
	out, err := svc.DownloadKubeconfig(context.Background(), "harvester", path)
	require.NoError(t, err)
	assert.Equal(t, "harvester", out.Cluster)
	assert.Equal(t, path, out.Path)

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(content), "name: harvester")
}

func TestDownloadKubeconfig_EmptyPathDefaultsToHomeKubeconfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	fake := runnertest.NewFakeRunner()
	svc := newTestService(t, fake, validConfig())
	fake.RespondOutput("clusters kubeconfig harvester", sampleKubeconfig)

	out, err := svc.DownloadKubeconfig(context.Background(), "harvester", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".kube", "config"), out.Path)

	content, readErr := os.ReadFile(out.Path)
	require.NoError(t, readErr)
	assert.Contains(t, string(content), "clusters:")
}

func TestDownloadKubeconfig_Appends(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	svc := newTestService(t, fake, validConfig())
	fake.RespondOutput("clusters kubeconfig harvester", sampleKubeconfig)

	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte("# existing entries\n"), 0o600))

	_, err := svc.DownloadKubeconfig(context.Background(), "harvester", path)
	require.NoError(t, err)

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(content), "# existing entries")
	assert.Contains(t, string(content), "clusters:")
}

func TestDownloadKubeconfig_RejectsNonKubeconfig(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	svc := newTestService(t, fake, validConfig())
	fake.RespondOutput("clusters kubeconfig harvester", "error: cluster not found, listing help...")

	path := filepath.Join(t.TempDir(), "config")
	_, err := svc.DownloadKubeconfig(context.Background(), "harvester", path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrParse))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "a bad download must not touch the file")
}
