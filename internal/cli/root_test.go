package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kdlocpanda/vision/internal/api"
	"github.com/kdlocpanda/vision/internal/ui"
)

func TestMain(m *testing.M) {
	ui.DisableColor()
	os.Exit(m.Run())
}

func TestRootCommandTree(t *testing.T) {
	want := []string{
		"pods", "logs <pod>", "delete-pod <pod>",
		"namespaces", "deployments", "cluster-info", "kubectl <command...>",
		"context", "vms", "vm", "kubeconfig <cluster>",
		"exec <command...>", "serve", "doctor", "init", "version",
	}

	have := map[string]bool{}
	for _, c := range Root().Commands() {
		have[c.Use] = true
	}

	for _, use := range want {
		assert.True(t, have[use], "missing subcommand %q", use)
	}
}

func TestContextSubcommands(t *testing.T) {
	subs := map[string]bool{}
	for _, c := range contextCmd.Commands() {
		subs[c.Name()] = true
	}
	assert.True(t, subs["get"])
	assert.True(t, subs["set"])
	assert.True(t, subs["ls"])
}

func TestRenderPodList(t *testing.T) {
	out := renderPodList(api.PodList{
		Namespace: "apps",
		Count:     2,
		Pods: []api.PodSummary{
			{Name: "web-0", Status: "Running", Ready: "1/1", Restarts: 0},
			{Name: "worker-0", Status: "CrashLoopBackOff", Ready: "0/1", Restarts: 7},
		},
	})

	assert.Contains(t, out, "Pods in apps (2)")
	assert.Contains(t, out, "web-0")
	assert.Contains(t, out, "CrashLoopBackOff")
	assert.Contains(t, out, "restarts=7")
}

func TestRenderPodList_Empty(t *testing.T) {
	out := renderPodList(api.PodList{Namespace: "apps"})
	assert.Equal(t, "No pods in apps\n", out)
}

func TestRenderDeployments(t *testing.T) {
	out := renderDeployments(api.DeploymentList{
		Namespace: "default",
		Count:     2,
		Deployments: []api.Deployment{
			{Name: "web", DesiredReplicas: 3, AvailableReplicas: 3, Health: "Healthy"},
			{Name: "api", DesiredReplicas: 2, AvailableReplicas: 1, Health: "Degraded"},
		},
	})

	assert.Contains(t, out, "Deployments in default (2)")
	assert.Contains(t, out, "3/3 Healthy")
	assert.Contains(t, out, "1/2 Degraded")
}

func TestRenderClusterInfo(t *testing.T) {
	out := renderClusterInfo(api.ClusterInfo{
		KubernetesVersion:    "v1.28.4",
		Platform:             "linux/amd64",
		NodeCount:            3,
		ControlPlaneEndpoint: "https://10.0.0.1:6443",
		ClusterStatus:        "Healthy",
		CoreServices:         map[string]string{"CoreDNS": "https://10.0.0.1:6443/api/v1/namespaces/kube-system/services/kube-dns:dns/proxy"},
	})

	assert.Contains(t, out, "v1.28.4")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "Core services")
	assert.Contains(t, out, "CoreDNS")
}

func TestRenderContexts(t *testing.T) {
	out := renderContexts(api.ContextList{
		Contexts: []api.ContextEntry{
			{Name: "homelab", ProjectID: "c-abc:p-def", Current: true},
			{Name: "staging", ProjectID: "c-xyz:p-123", Current: false},
		},
	})

	assert.Contains(t, out, "homelab")
	assert.Contains(t, out, "c-abc:p-def")
	assert.Contains(t, out, "staging")
}

func TestRenderContexts_Empty(t *testing.T) {
	assert.Equal(t, "No contexts available\n", renderContexts(api.ContextList{}))
}

func TestRenderVMs(t *testing.T) {
	out := renderVMs(api.VMList{
		Namespace: "default",
		VMs: []api.VMSummary{
			{Name: "win11", Status: "Running", Ready: true},
			{Name: "ubuntu", Status: "Stopped", Ready: false},
		},
	})

	assert.Contains(t, out, "Virtual machines in default")
	assert.Contains(t, out, "win11")
	assert.Contains(t, out, "Stopped")
}
