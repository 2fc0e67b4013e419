// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempHome points os.UserHomeDir at a temp directory and returns it.
func useTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeSSHConfig(t *testing.T, home, content string) {
	t.Helper()
	sshDir := filepath.Join(home, ".ssh")
	require.NoError(t, os.MkdirAll(sshDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "config"), []byte(content), 0o600))
}

func TestParseSSHConfigMissingFile(t *testing.T) {
	useTempHome(t)

	hosts, err := ParseSSHConfig()
	require.NoError(t, err)
	assert.Empty(t, hosts)
}

func TestParseSSHConfig(t *testing.T) {
	home := useTempHome(t)
	writeSSHConfig(t, home, `
Host prod-vps
    HostName 203.0.113.7
    User deploy
    Port 2222
    IdentityFile ~/.ssh/id_ed25519

Host shorthand
    User deploy

Host nouser
    HostName 198.51.100.4

Host *
    ServerAliveInterval 60
`)

	hosts, err := ParseSSHConfig()
	require.NoError(t, err)
	require.Len(t, hosts, 2)

	prod := hosts[0]
	assert.Equal(t, "prod-vps", prod.Alias)
	assert.Equal(t, "203.0.113.7", prod.Hostname)
	assert.Equal(t, "deploy", prod.User)
	assert.Equal(t, 2222, prod.Port)
	assert.Equal(t, filepath.Join(home, ".ssh", "id_ed25519"), prod.KeyPath)

	// Without a HostName the alias doubles as the hostname.
	short := hosts[1]
	assert.Equal(t, "shorthand", short.Alias)
	assert.Equal(t, "shorthand", short.Hostname)
	assert.Equal(t, 22, short.Port)
}

func TestConvertToDeployHost(t *testing.T) {
	p := PotentialHost{
		Alias:    "prod-vps",
		Hostname: "203.0.113.7",
		User:     "deploy",
		Port:     2222,
		KeyPath:  "/home/deploy/.ssh/id_ed25519",
	}

	host, err := ConvertToDeployHost(p, "prod-vps", "/srv/django")
	require.NoError(t, err)
	assert.Equal(t, SSHHost{
		Name:       "prod-vps",
		Hostname:   "203.0.113.7",
		User:       "deploy",
		Port:       2222,
		KeyPath:    "/home/deploy/.ssh/id_ed25519",
		RemoteRoot: "/srv/django",
	}, host)

	_, err = ConvertToDeployHost(PotentialHost{Alias: "broken"}, "broken", "")
	assert.Error(t, err)

	_, err = ConvertToDeployHost(p, "", "")
	assert.Error(t, err)
}
