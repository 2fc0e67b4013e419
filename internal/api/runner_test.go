// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deploy-manager/internal/config"
	"deploy-manager/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempConfig isolates the config lookup to a temp directory and optionally
// seeds it with a config file.
func useTempConfig(t *testing.T, content string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	if content != "" {
		configDir := filepath.Join(home, ".config", "deploy-manager")
		require.NoError(t, os.MkdirAll(configDir, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0o640))
	}
}

func TestSequenceBuildersCoverAllActions(t *testing.T) {
	for _, name := range []string{"deploy", "install", "static", "migrate", "superuser"} {
		assert.Contains(t, sequenceBuilders, name)
	}
	assert.Len(t, sequenceBuilders, 5)
}

func TestGetHostTargetFromRequestLocal(t *testing.T) {
	useTempConfig(t, "")

	req := httptest.NewRequest("POST", "/api/run/host/clean", strings.NewReader(`{"serverName":"local"}`))
	target, err := getHostTargetFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, runner.HostTarget{ServerName: "local", IsRemote: false}, target)
}

func TestGetHostTargetFromRequestRemote(t *testing.T) {
	useTempConfig(t, `
ssh_hosts:
  - name: prod-vps
    hostname: 203.0.113.7
    user: deploy
`)

	req := httptest.NewRequest("POST", "/api/run/host/clean", strings.NewReader(`{"serverName":"prod-vps"}`))
	target, err := getHostTargetFromRequest(req)
	require.NoError(t, err)
	assert.True(t, target.IsRemote)
	require.NotNil(t, target.HostConfig)
	assert.Equal(t, "prod-vps", target.HostConfig.Name)
	assert.Equal(t, "203.0.113.7", target.HostConfig.Hostname)
}

func TestGetHostTargetFromRequestDisabledHost(t *testing.T) {
	useTempConfig(t, `
ssh_hosts:
  - name: parked
    hostname: 203.0.113.9
    user: deploy
    disabled: true
`)

	req := httptest.NewRequest("POST", "/api/run/host/clean", strings.NewReader(`{"serverName":"parked"}`))
	_, err := getHostTargetFromRequest(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestGetHostTargetFromRequestUnknownHost(t *testing.T) {
	useTempConfig(t, "")

	req := httptest.NewRequest("POST", "/api/run/host/clean", strings.NewReader(`{"serverName":"nope"}`))
	_, err := getHostTargetFromRequest(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestGetHostTargetFromRequestMalformedBody(t *testing.T) {
	useTempConfig(t, "")

	req := httptest.NewRequest("POST", "/api/run/host/clean", strings.NewReader(`{bad json`))
	_, err := getHostTargetFromRequest(req)
	assert.Error(t, err)
}

func TestResolveProjectLocal(t *testing.T) {
	useTempConfig(t, "")
	home := os.Getenv("HOME")
	root := filepath.Join(home, "django")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "blog"), 0o755))

	project, err := resolveProject("blog", "local")
	require.NoError(t, err)
	assert.Equal(t, "blog", project.Name)
	assert.Equal(t, "local", project.ServerName)
	assert.False(t, project.IsRemote)
	assert.Equal(t, root+"/blog", project.Path)
}

func TestResolveProjectRequiresBothNames(t *testing.T) {
	_, err := resolveProject("", "local")
	assert.Error(t, err)

	_, err = resolveProject("blog", "")
	assert.Error(t, err)
}

func TestRunProjectSequenceFailFast(t *testing.T) {
	runner.InitConfig(config.Config{})

	projectDir := t.TempDir()
	steps := []runner.CommandStep{
		{
			Name:    "Install Dependencies",
			Command: "sh",
			Args:    []string{"-c", "echo installing; exit 1"},
		},
		{
			Name:    "Apply Migrations",
			Command: "sh",
			Args:    []string{"-c", "echo should-not-run"},
		},
	}
	for i := range steps {
		steps[i].Project.Name = "blog"
		steps[i].Project.Path = projectDir
		steps[i].Project.ServerName = "local"
	}

	recorder := httptest.NewRecorder()
	runProjectSequence(recorder, steps)

	body := recorder.Body.String()
	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: step\ndata: Install Dependencies")
	assert.Contains(t, body, "event: error\ndata: Error during step 'Install Dependencies'")
	assert.Contains(t, body, "Sequence aborted")
	assert.NotContains(t, body, "should-not-run")
	assert.NotContains(t, body, "Apply Migrations")
}

func TestRunProjectSequenceSuccess(t *testing.T) {
	runner.InitConfig(config.Config{})

	projectDir := t.TempDir()
	steps := []runner.CommandStep{
		{
			Name:    "Collect Static Files",
			Command: "sh",
			Args:    []string{"-c", "echo 120 static files copied"},
		},
	}
	steps[0].Project.Name = "blog"
	steps[0].Project.Path = projectDir
	steps[0].Project.ServerName = "local"

	recorder := httptest.NewRecorder()
	runProjectSequence(recorder, steps)

	body := recorder.Body.String()
	assert.Contains(t, body, "event: stdout\ndata: 120 static files copied")
	assert.Contains(t, body, "event: done\ndata: Sequence finished")
}
