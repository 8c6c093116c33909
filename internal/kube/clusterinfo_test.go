package kube

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdlocpanda/vision/internal/errors"
	"github.com/kdlocpanda/vision/internal/runner"
	runnertest "github.com/kdlocpanda/vision/internal/runner/testing"
)

func TestStripANSI(t *testing.T) {
	colored := "\x1b[0;32mKubernetes control plane\x1b[0m is running at https://10.0.0.2:6443"
	assert.Equal(t, "Kubernetes control plane is running at https://10.0.0.2:6443", stripANSI(colored))
	assert.Equal(t, "plain", stripANSI("plain"))
	assert.Equal(t, "", stripANSI(""))
}

func TestClusterInfo_AllHealthy(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	fake.RespondOutput("version --short", "Client Version: v1.28.2\nServer Version: v1.28.4+rke2r1")
	fake.RespondOutput("cluster-info",
		"\x1b[0;32mKubernetes control plane\x1b[0m is running at https://10.0.0.2:6443\n"+
			"\x1b[0;32mCoreDNS\x1b[0m is running at https://10.0.0.2:6443/api/v1/namespaces/kube-system/services/kube-dns:dns/proxy\n")
	fake.RespondOutput("get nodes -o json",
		`{"items":[{"status":{"nodeInfo":{"osImage":"Harvester v1.2.1"}}},{"status":{"nodeInfo":{"osImage":"Harvester v1.2.1"}}}]}`)
	fake.RespondOutput("get --raw /healthz", "ok")

	info, err := newTestService(fake).ClusterInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "v1.28.4+rke2r1", info.KubernetesVersion)
	assert.Equal(t, "https://10.0.0.2:6443", info.ControlPlaneEndpoint)
	assert.Len(t, info.CoreServices, 1)
	assert.Contains(t, info.CoreServices, "CoreDNS")
	assert.Equal(t, 2, info.NodeCount)
	assert.Equal(t, "Harvester v1.2.1", info.Platform)
	assert.Equal(t, "Ready", info.ClusterStatus)
}

func TestClusterInfo_UnhealthyHealthz(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	fake.RespondOutput("version --short", "Server Version: v1.28.4")
	fake.RespondOutput("cluster-info", "Kubernetes control plane is running at https://10.0.0.2:6443")
	fake.RespondOutput("get nodes -o json", `{"items":[]}`)
	fake.RespondOutput("get --raw /healthz", "degraded: etcd lagging")

	info, err := newTestService(fake).ClusterInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Degraded", info.ClusterStatus)
}

func TestClusterInfo_PartialFailuresDegrade(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	failure := errors.NewExec("kubectl", 1, "connection refused")
	fake.Respond("version --short", runner.Result{ExitCode: 1}, failure)
	fake.Respond("cluster-info", runner.Result{ExitCode: 1}, failure)
	fake.Respond("get nodes -o json", runner.Result{ExitCode: 1}, failure)
	fake.Respond("get --raw /healthz", runner.Result{ExitCode: 1}, failure)

	info, err := newTestService(fake).ClusterInfo(context.Background())
	require.NoError(t, err, "cluster-info degrades instead of failing outright")
	assert.Equal(t, "Unknown", info.KubernetesVersion)
	assert.Equal(t, "Unknown", info.ClusterStatus)
	assert.Zero(t, info.NodeCount)
}
