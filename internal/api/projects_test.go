// SPDX-License-Identifier: Apache-2.0

package api

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

// slowStatusProjects creates n fake local projects whose showmigrations check
// sleeps before reporting one applied migration.
func slowStatusProjects(t *testing.T, n int) []discovery.Project {
	t.Helper()
	root := t.TempDir()
	script := "#!/bin/sh\nsleep 0.3\necho 'core'\necho ' [X] 0001_initial'\n"

	projects := make([]discovery.Project, n)
	for i := range projects {
		name := fmt.Sprintf("app%d", i)
		dir := filepath.Join(root, name)
		require.NoError(t, os.Mkdir(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "manage.py"), []byte(script), 0o755))
		projects[i] = discovery.Project{Name: name, Path: dir, ServerName: "local"}
	}
	return projects
}

func TestCollectProjectsWithStatusIsBounded(t *testing.T) {
	runner.InitConfig(config.Config{Python: "sh"})
	t.Cleanup(func() { runner.InitConfig(config.Config{}) })

	projects := slowStatusProjects(t, 2*maxConcurrentStatusChecks)

	start := time.Now()
	results := collectProjectsWithStatus(projects)
	elapsed := time.Since(start)

	require.Len(t, results, len(projects))
	for i, r := range results {
		assert.Equal(t, projects[i].Name, r.Name)
		assert.Equal(t, runner.StatusCurrent, r.Status)
	}

	// Twice the bound at 300ms apiece needs at least two batches; an
	// unbounded fan-out would finish in roughly one sleep.
	assert.GreaterOrEqual(t, elapsed, 500*time.Millisecond)
}

func TestFindSSHHostRejectsDisabled(t *testing.T) {
	useTempConfig(t, `
ssh_hosts:
  - name: parked
    hostname: 203.0.113.9
    user: deploy
    disabled: true
`)

	_, err := findSSHHost("parked")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}
