package rancher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdlocpanda/vision/internal/config"
	"github.com/kdlocpanda/vision/internal/errors"
	"github.com/kdlocpanda/vision/internal/runner"
	runnertest "github.com/kdlocpanda/vision/internal/runner/testing"
)

func newTestService(t *testing.T, fake *runnertest.FakeRunner, cfg config.RancherConfig) *Service {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "selected_context"))
	return NewService(fake, store, cfg)
}

func validConfig() config.RancherConfig {
	return config.RancherConfig{
		URL:   "https://rancher.lab.internal",
		Token: "token-abc:secret",
	}
}

func TestLogin_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RancherConfig
	}{
		{name: "missing url", cfg: config.RancherConfig{Token: "t"}},
		{name: "missing token", cfg: config.RancherConfig{URL: "https://r"}},
		{name: "missing both", cfg: config.RancherConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := runnertest.NewFakeRunner()
			svc := newTestService(t, fake, tt.cfg)

			err := svc.Login(context.Background(), "")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Empty(t, fake.Calls(), "no process may be spawned without credentials")
		})
	}
}

func TestLogin_ArgsIncludeOptionalFlags(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	cfg := validConfig()
	cfg.Insecure = true
	cfg.CACerts = "/etc/rancher/ca.pem"
	svc := newTestService(t, fake, cfg)

	require.NoError(t, svc.Login(context.Background(), "c-abc:p-def"))

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "rancher", calls[0].Bin)
	assert.Equal(t, []string{
		"login", "https://rancher.lab.internal",
		"--token", "token-abc:secret",
		"--context", "c-abc:p-def",
		"--insecure",
		"--cacerts", "/etc/rancher/ca.pem",
	}, calls[0].Args)
}

func TestKubectl_RequiresContext(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	svc := newTestService(t, fake, validConfig())

	_, err := svc.Kubectl(context.Background(), "default", "get", "vms")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoContext)
	assert.Empty(t, fake.Calls())
}

func TestKubectl_LoginThenInvoke(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	svc := newTestService(t, fake, validConfig())
	require.NoError(t, svc.Store().Set("c-abc:p-def"))

	fake.RespondOutput("kubectl -n default get vms", "NAME STATUS READY")

	res, err := svc.Kubectl(context.Background(), "default", "get", "vms")
	require.NoError(t, err)
	assert.Equal(t, "NAME STATUS READY", res.Stdout)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "login", calls[0].Args[0])
	assert.Contains(t, calls[0].Args, "c-abc:p-def", "login must be scoped to the stored context")
	assert.Equal(t, []string{"kubectl", "-n", "default", "get", "vms"}, calls[1].Args)
}

func TestSetContext_DirectProjectID(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	svc := newTestService(t, fake, validConfig())

	out, err := svc.SetContext(context.Background(), "c-xyz:p-123")
	require.NoError(t, err)
	assert.Equal(t, "c-xyz:p-123", out.Context)

	stored, err := svc.Store().Get()
	require.NoError(t, err)
	assert.Equal(t, "c-xyz:p-123", stored)

	// Exactly one verification login, no context listing needed.
	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "login", calls[0].Args[0])
}

func TestSetContext_ResolvesName(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	svc := newTestService(t, fake, validConfig())

	fake.RespondOutput("context ls",
		"CURRENT   NAME          PROJECT\n"+
			"*         arc-reactor   c-arc:p-111\n"+
			"          vision        c-vis:p-222\n")

	out, err := svc.SetContext(context.Background(), "Vision")
	require.NoError(t, err)
	assert.Equal(t, "c-vis:p-222", out.Context)
}

func TestSetContext_UnknownNameListsAvailable(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	svc := newTestService(t, fake, validConfig())

	fake.RespondOutput("context ls",
		"CURRENT   NAME     PROJECT\n*         vision   c-vis:p-222\n")

	_, err := svc.SetContext(context.Background(), "nebula")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "vision")

	// Store must stay untouched after a failed set.
	_, getErr := svc.Store().Get()
	assert.ErrorIs(t, getErr, ErrNoContext)
}

func TestSetContext_FailedLoginDoesNotPersist(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	fake.Respond("login", runner.Result{ExitCode: 1, Stderr: "unauthorized"},
		errors.NewExec("rancher", 1, "unauthorized"))
	svc := newTestService(t, fake, validConfig())

	_, err := svc.SetContext(context.Background(), "c-bad:p-bad")
	require.Error(t, err)

	_, getErr := svc.Store().Get()
	assert.ErrorIs(t, getErr, ErrNoContext)
}

func TestListContexts_Empty(t *testing.T) {
	fake := runnertest.NewFakeRunner()
	svc := newTestService(t, fake, validConfig())

	fake.RespondOutput("context ls", "")

	list, err := svc.ListContexts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list.Contexts)
}

func TestParseContextTable(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    int
		wantErr bool
	}{
		{
			name: "current marker",
			output: "CURRENT   NAME      PROJECT\n" +
				"*         vision    c-a:p-1\n" +
				"          backup    c-b:p-2\n",
			want: 2,
		},
		{
			name:   "no current column",
			output: "NAME      PROJECT\nvision    c-a:p-1\n",
			want:   1,
		},
		{name: "empty output", output: "\n\n", want: 0},
		{name: "unknown header", output: "FOO BAR\nx y\n", wantErr: true},
		{name: "short row", output: "NAME PROJECT\nonly-name\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := parseContextTable(tt.output)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrParse))
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
		})
	}
}

func TestParseContextTable_CurrentDetection(t *testing.T) {
	entries, err := parseContextTable(
		"CURRENT   NAME      PROJECT\n" +
			"*         vision    c-a:p-1\n" +
			"          backup    c-b:p-2\n")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "vision", entries[0].Name)
	assert.Equal(t, "c-a:p-1", entries[0].ProjectID)
	assert.True(t, entries[0].Current)

	assert.Equal(t, "backup", entries[1].Name)
	assert.Equal(t, "c-b:p-2", entries[1].ProjectID)
	assert.False(t, entries[1].Current)
}
