// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"deploy-manager/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckProjectStatusesIsBounded(t *testing.T) {
	runner.InitConfig(config.Config{Python: "sh"})
	t.Cleanup(func() { runner.InitConfig(config.Config{}) })

	root := t.TempDir()
	script := "#!/bin/sh\nsleep 0.3\necho 'core'\necho ' [X] 0001_initial'\n"
	const projectCount = 2 * maxConcurrentStatusChecks
	projects := make([]discovery.Project, projectCount)
	for i := range projects {
		name := fmt.Sprintf("app%d", i)
		dir := filepath.Join(root, name)
		require.NoError(t, os.Mkdir(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "manage.py"), []byte(script), 0o755))
		projects[i] = discovery.Project{Name: name, Path: dir, ServerName: "local"}
	}

	start := time.Now()
	var results []runner.ProjectRuntimeInfo
	for info := range checkProjectStatuses(projects) {
		results = append(results, info)
	}
	elapsed := time.Since(start)

	require.Len(t, results, projectCount)
	for _, info := range results {
		assert.Equal(t, runner.StatusCurrent, info.OverallStatus)
	}

	// Twice the bound at 300ms apiece needs at least two batches; an
	// unbounded fan-out would finish in roughly one sleep.
	assert.GreaterOrEqual(t, elapsed, 500*time.Millisecond)
}

func TestEnabledSSHHosts(t *testing.T) {
	hosts := []config.SSHHost{
		{Name: "active", Hostname: "a.example.com", User: "deploy"},
		{Name: "parked", Hostname: "b.example.com", User: "deploy", Disabled: true},
		{Name: "second", Hostname: "c.example.com", User: "deploy"},
	}

	enabled := enabledSSHHosts(hosts)
	require.Len(t, enabled, 2)
	assert.Equal(t, "active", enabled[0].Name)
	assert.Equal(t, "second", enabled[1].Name)
}
