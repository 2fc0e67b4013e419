// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localProject(t *testing.T) discovery.Project {
	t.Helper()
	return discovery.Project{
		Name:       "blog",
		Path:       t.TempDir(),
		ServerName: "local",
	}
}

// resetConfig restores the package defaults after a test changed them.
func resetConfig(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { InitConfig(config.Config{}) })
}

func stepNames(steps []CommandStep) []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}

func TestDeploySequenceOrder(t *testing.T) {
	resetConfig(t)
	InitConfig(config.Config{})

	project := localProject(t)
	steps := DeploySequence(project)

	assert.Equal(t, []string{
		"Install Dependencies",
		"Collect Static Files",
		"Apply Migrations",
		"Create Superuser",
	}, stepNames(steps))

	for _, step := range steps {
		assert.Equal(t, project, step.Project)
	}
}

func TestSingleStepSequences(t *testing.T) {
	resetConfig(t)
	InitConfig(config.Config{})
	project := localProject(t)

	install := InstallSequence(project)
	require.Len(t, install, 1)
	assert.Equal(t, "python3", install[0].Command)
	assert.Equal(t, []string{"-m", "pip", "install", "-r", "requirements.txt"}, install[0].Args)

	static := CollectStaticSequence(project)
	require.Len(t, static, 1)
	assert.Equal(t, []string{"manage.py", "collectstatic", "--noinput"}, static[0].Args)

	migrate := MigrateSequence(project)
	require.Len(t, migrate, 1)
	assert.Equal(t, []string{"manage.py", "migrate", "--noinput"}, migrate[0].Args)

	superuser := SuperuserSequence(project)
	require.Len(t, superuser, 1)
	assert.Equal(t, []string{"manage.py", "createsuperuser", "--noinput"}, superuser[0].Args)
	assert.Equal(t, []string{EnvSuperuserUsername, EnvSuperuserPassword}, superuser[0].RequiredEnv)
}

func TestSequencesUseConfiguredInterpreter(t *testing.T) {
	resetConfig(t)
	InitConfig(config.Config{Python: "python3.12"})

	steps := DeploySequence(localProject(t))
	for _, step := range steps {
		assert.Equal(t, "python3.12", step.Command)
	}

	clean := CleanCacheStep(HostTarget{ServerName: "local"})
	assert.Equal(t, "python3.12", clean.Command)
	assert.Equal(t, []string{"-m", "pip", "cache", "purge"}, clean.Args)
}

func drain(outChan <-chan OutputLine) []OutputLine {
	var lines []OutputLine
	for line := range outChan {
		lines = append(lines, line)
	}
	return lines
}

func TestStreamCommandMissingRequiredEnv(t *testing.T) {
	resetConfig(t)
	InitConfig(config.Config{})

	step := CommandStep{
		Name:        "Create Superuser",
		Command:     "true",
		RequiredEnv: []string{"DEPLOY_MANAGER_TEST_ABSENT_VAR"},
		Project:     localProject(t),
	}

	outChan, errChan := StreamCommand(step, false)
	drain(outChan)
	err := <-errChan
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEPLOY_MANAGER_TEST_ABSENT_VAR")
}

func TestStreamCommandRequiredEnvPresent(t *testing.T) {
	resetConfig(t)
	InitConfig(config.Config{})
	t.Setenv("DEPLOY_MANAGER_TEST_PRESENT_VAR", "admin")

	step := CommandStep{
		Name:        "Create Superuser",
		Command:     "sh",
		Args:        []string{"-c", `test "$DEPLOY_MANAGER_TEST_PRESENT_VAR" = admin`},
		RequiredEnv: []string{"DEPLOY_MANAGER_TEST_PRESENT_VAR"},
		Project:     localProject(t),
	}

	outChan, errChan := StreamCommand(step, false)
	drain(outChan)
	assert.NoError(t, <-errChan)
}

func TestStreamCommandReportsFailure(t *testing.T) {
	resetConfig(t)
	InitConfig(config.Config{})

	step := CommandStep{
		Name:    "Apply Migrations",
		Command: "sh",
		Args:    []string{"-c", "exit 3"},
		Project: localProject(t),
	}

	outChan, errChan := StreamCommand(step, false)
	drain(outChan)
	err := <-errChan
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Apply Migrations")
}

func TestStreamCommandStreamsOutput(t *testing.T) {
	resetConfig(t)
	InitConfig(config.Config{})

	step := CommandStep{
		Name:    "Install Dependencies",
		Command: "sh",
		Args:    []string{"-c", "echo collected"},
		Project: localProject(t),
	}

	outChan, errChan := StreamCommand(step, false)
	lines := drain(outChan)
	require.NoError(t, <-errChan)

	var combined strings.Builder
	for _, line := range lines {
		combined.WriteString(line.Line)
	}
	assert.Contains(t, combined.String(), "collected")
}

func TestRunHostCommandLocal(t *testing.T) {
	resetConfig(t)
	InitConfig(config.Config{})

	step := HostCommandStep{
		Name:    "Purge Pip Cache",
		Command: "sh",
		Args:    []string{"-c", "echo purged"},
		Target:  HostTarget{ServerName: "local"},
	}

	outChan, errChan := RunHostCommand(step, false)
	lines := drain(outChan)
	require.NoError(t, <-errChan)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0].Line, "purged")
}

func TestParseShowMigrations(t *testing.T) {
	output := strings.Join([]string{
		"admin",
		" [X] 0001_initial",
		" [X] 0002_logentry_remove_auto_add",
		"auth",
		" [X] 0001_initial",
		" [ ] 0012_alter_user_first_name_max_length",
		"blog",
		" [ ] 0001_initial",
		"sessions",
		" (no migrations)",
		"",
	}, "\n")

	migrations := parseShowMigrations([]byte(output))
	require.Len(t, migrations, 5)

	assert.Equal(t, MigrationState{App: "admin", Name: "0001_initial", Applied: true}, migrations[0])
	assert.Equal(t, MigrationState{App: "auth", Name: "0012_alter_user_first_name_max_length", Applied: false}, migrations[3])
	assert.Equal(t, MigrationState{App: "blog", Name: "0001_initial", Applied: false}, migrations[4])

	pending := 0
	for _, m := range migrations {
		if !m.Applied {
			pending++
		}
	}
	assert.Equal(t, 2, pending)
}

func TestParseShowMigrationsCRLFAndEmpty(t *testing.T) {
	migrations := parseShowMigrations([]byte("auth\r\n [X] 0001_initial\r\n"))
	require.Len(t, migrations, 1)
	assert.Equal(t, "auth", migrations[0].App)
	assert.True(t, migrations[0].Applied)

	assert.Empty(t, parseShowMigrations(nil))
}

// writeManageScript drops a shell script named manage.py into dir. With the
// interpreter configured as "sh", GetProjectStatus ends up running it as
// `sh manage.py showmigrations --no-color`.
func writeManageScript(t *testing.T, dir, body string) {
	t.Helper()
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manage.py"), []byte(script), 0o755))
}

func TestGetProjectStatusClassification(t *testing.T) {
	resetConfig(t)
	// Point the interpreter at a script that fakes showmigrations output.
	InitConfig(config.Config{Python: "sh"})

	t.Run("current when everything applied", func(t *testing.T) {
		project := localProject(t)
		// The runner invokes: sh manage.py showmigrations --no-color
		// A shell script standing in for manage.py prints canned output.
		writeManageScript(t, project.Path, "echo auth; echo ' [X] 0001_initial'")

		info := GetProjectStatus(project)
		require.NoError(t, info.Error)
		assert.Equal(t, StatusCurrent, info.OverallStatus)
		assert.Equal(t, 0, info.PendingCount)
	})

	t.Run("pending when any unapplied", func(t *testing.T) {
		project := localProject(t)
		writeManageScript(t, project.Path, "echo auth; echo ' [X] 0001_initial'; echo ' [ ] 0002_alter'")

		info := GetProjectStatus(project)
		require.NoError(t, info.Error)
		assert.Equal(t, StatusPending, info.OverallStatus)
		assert.Equal(t, 1, info.PendingCount)
	})

	t.Run("error when command fails", func(t *testing.T) {
		project := localProject(t)
		writeManageScript(t, project.Path, "echo boom >&2; exit 1")

		info := GetProjectStatus(project)
		require.Error(t, info.Error)
		assert.Equal(t, StatusError, info.OverallStatus)
	})
}

func TestBuildRemoteStepCommand(t *testing.T) {
	step := CommandStep{
		Name:    "Apply Migrations",
		Command: "python3",
		Args:    []string{"manage.py", "migrate", "--noinput"},
		Project: discovery.Project{
			Name:               "blog",
			Path:               "blog",
			ServerName:         "prod",
			IsRemote:           true,
			AbsoluteRemoteRoot: "/srv/django",
		},
	}

	rendered := buildRemoteStepCommand(step, map[string]string{
		"DJANGO_SETTINGS_MODULE": "blog.settings",
	})

	assert.Equal(t,
		"cd '/srv/django/blog' && DJANGO_SETTINGS_MODULE='blog.settings' python3 'manage.py' 'migrate' '--noinput'",
		rendered)
}

func TestBuildRemoteStepCommandEnvOrderDeterministic(t *testing.T) {
	step := CommandStep{
		Command: "python3",
		Args:    []string{"manage.py", "migrate"},
		Project: discovery.Project{
			Path:               "blog",
			IsRemote:           true,
			AbsoluteRemoteRoot: "/srv/django",
		},
	}
	env := map[string]string{
		"B_VAR": "2",
		"A_VAR": "1",
	}

	rendered := buildRemoteStepCommand(step, env)
	assert.Contains(t, rendered, "A_VAR='1' B_VAR='2'")
}
