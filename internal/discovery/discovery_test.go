// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectIdentifier(t *testing.T) {
	local := Project{Name: "blog", ServerName: "local"}
	assert.Equal(t, "local:blog", local.Identifier())

	remote := Project{Name: "shop", ServerName: "prod-vps", IsRemote: true}
	assert.Equal(t, "prod-vps:shop", remote.Identifier())
}

func TestFindLocalProjects(t *testing.T) {
	root := t.TempDir()

	// Two real projects, one plain directory, one stray file.
	for _, name := range []string{"blog", "shop"} {
		projectDir := filepath.Join(root, name)
		require.NoError(t, os.Mkdir(projectDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(projectDir, "manage.py"), []byte("#!/usr/bin/env python3\n"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(root, "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("hi\n"), 0o644))

	projects, err := FindLocalProjects(root)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	names := []string{projects[0].Name, projects[1].Name}
	assert.ElementsMatch(t, []string{"blog", "shop"}, names)

	for _, p := range projects {
		assert.False(t, p.IsRemote)
		assert.Equal(t, "local", p.ServerName)
		assert.Nil(t, p.HostConfig)
		assert.Equal(t, filepath.Join(root, p.Name), p.Path)
		assert.Empty(t, p.AbsoluteRemoteRoot)
	}
}

func TestFindLocalProjectsEmptyRoot(t *testing.T) {
	projects, err := FindLocalProjects(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestFindLocalProjectsMissingRoot(t *testing.T) {
	_, err := FindLocalProjects(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestFindProjectsReportsConfigLoadFailure(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	configDir := filepath.Join(home, ".config", "deploy-manager")
	require.NoError(t, os.MkdirAll(configDir, 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, "config.yaml"),
		[]byte("ssh_hosts: [unclosed"), 0o640))

	projectChan, errorChan, doneChan := FindProjects()

	var errs []error
	for err := range errorChan {
		errs = append(errs, err)
	}
	for range projectChan {
	}
	<-doneChan

	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "config load failed")
}

func TestGetProjectRootDirectoryUsesConfiguredLocalRoot(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	localRoot := filepath.Join(home, "work", "django")
	require.NoError(t, os.MkdirAll(localRoot, 0o755))

	configDir := filepath.Join(home, ".config", "deploy-manager")
	require.NoError(t, os.MkdirAll(configDir, 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, "config.yaml"),
		[]byte("local_root: "+localRoot+"\n"), 0o640))

	root, err := GetProjectRootDirectory()
	require.NoError(t, err)
	assert.Equal(t, localRoot, root)
}

func TestGetProjectRootDirectoryFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	defaultRoot := filepath.Join(home, "django-projects")
	require.NoError(t, os.MkdirAll(defaultRoot, 0o755))

	root, err := GetProjectRootDirectory()
	require.NoError(t, err)
	assert.Equal(t, defaultRoot, root)
}

func TestGetProjectRootDirectoryInvalidConfiguredRoot(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	configDir := filepath.Join(home, ".config", "deploy-manager")
	require.NoError(t, os.MkdirAll(configDir, 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, "config.yaml"),
		[]byte("local_root: "+filepath.Join(home, "missing")+"\n"), 0o640))

	// A configured root that does not exist is an error, not a fallback.
	_, err := GetProjectRootDirectory()
	assert.Error(t, err)
}
