// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempConfigDir points os.UserConfigDir at a temp directory so tests never
// touch the real ~/.config/deploy-manager.
func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestPythonInterpreter(t *testing.T) {
	assert.Equal(t, DefaultPython, Config{}.PythonInterpreter())
	assert.Equal(t, "python3.12", Config{Python: "python3.12"}.PythonInterpreter())
}

func TestLoadConfigMissingFileIsEmpty(t *testing.T) {
	useTempConfigDir(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestSaveAndLoadConfigRoundTrip(t *testing.T) {
	useTempConfigDir(t)

	original := Config{
		LocalRoot:      "~/projects",
		Python:         "python3.11",
		SettingsModule: "blog.settings.production",
		SSHHosts: []SSHHost{
			{
				Name:       "prod-vps",
				Hostname:   "203.0.113.7",
				User:       "deploy",
				Port:       2222,
				KeyPath:    "~/.ssh/id_ed25519",
				RemoteRoot: "/srv/django",
			},
		},
	}

	require.NoError(t, SaveConfig(original))

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoadConfigKeepsDisabledHosts(t *testing.T) {
	useTempConfigDir(t)

	require.NoError(t, SaveConfig(Config{
		SSHHosts: []SSHHost{
			{Name: "active", Hostname: "a.example.com", User: "deploy"},
			{Name: "parked", Hostname: "b.example.com", User: "deploy", Disabled: true},
		},
	}))

	loaded, err := LoadConfig()
	require.NoError(t, err)
	require.Len(t, loaded.SSHHosts, 2)
	assert.True(t, loaded.SSHHosts[1].Disabled)

	// A load-modify-save cycle must not lose the disabled host.
	loaded.SSHHosts = append(loaded.SSHHosts, SSHHost{Name: "third", Hostname: "c.example.com", User: "deploy"})
	require.NoError(t, SaveConfig(loaded))

	reloaded, err := LoadConfig()
	require.NoError(t, err)
	require.Len(t, reloaded.SSHHosts, 3)
	assert.Equal(t, "parked", reloaded.SSHHosts[1].Name)
	assert.True(t, reloaded.SSHHosts[1].Disabled)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	dir := useTempConfigDir(t)

	configPath := filepath.Join(dir, "deploy-manager", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o750))
	require.NoError(t, os.WriteFile(configPath, []byte("ssh_hosts: [unclosed"), 0o640))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	resolved, err := ResolvePath("~/django")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "django"), resolved)

	// Absolute and relative paths pass through untouched.
	absolute, err := ResolvePath("/srv/django")
	require.NoError(t, err)
	assert.Equal(t, "/srv/django", absolute)

	bare, err := ResolvePath("django")
	require.NoError(t, err)
	assert.Equal(t, "django", bare)
}
