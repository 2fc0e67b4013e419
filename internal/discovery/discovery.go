// SPDX-License-Identifier: Apache-2.0

// Package discovery locates deployable Django projects in local and remote
// environments. A project is any directory holding a manage.py entry point,
// either under the local project root or under a configured root on an SSH
// host.
package discovery

import (
	"bufio"
	"bytes"
	"context"
	"deploy-manager/internal/config"
	"deploy-manager/internal/logger"
	"deploy-manager/internal/ssh"
	"deploy-manager/internal/util"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
)

// maxConcurrentDiscoveries bounds parallel discovery so a long host list does
// not open an SSH storm.
const maxConcurrentDiscoveries = 8

// sshManager provides access to SSH connections for remote discovery operations
var sshManager *ssh.Manager

// InitSSHManager sets the package-level SSH manager instance.
// This must be called before performing any remote discovery operations.
func InitSSHManager(manager *ssh.Manager) {
	if sshManager != nil {
		return
	}
	sshManager = manager
}

// Project represents a discovered Django project: a directory containing a
// manage.py script, locally or on a remote SSH host.
type Project struct {
	Name               string          // Name of the project (derived from directory name)
	Path               string          // Full local path OR path relative to AbsoluteRemoteRoot on SSH host
	ServerName         string          // "local" or the Name field from SSHHost config
	IsRemote           bool            // True if project is on a remote server, false if local
	HostConfig         *config.SSHHost // SSH host configuration (nil if local)
	AbsoluteRemoteRoot string          // Root directory on remote host (empty if local)
}

// Identifier returns the unique string representation (e.g., "local:my-app" or "server1:my-app").
func (p Project) Identifier() string {
	if !p.IsRemote {
		// Always return the explicit "local:" prefix for clarity and completion consistency
		return fmt.Sprintf("local:%s", p.Name)
	}
	return fmt.Sprintf("%s:%s", p.ServerName, p.Name)
}

// GetProjectRootDirectory finds the root directory for local projects,
// checking the config override first, then defaults.
func GetProjectRootDirectory() (string, error) {
	logger.Debug("Determining project root directory")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warn("Could not load config to check local_root", "error", err)
	} else if cfg.LocalRoot != "" {
		logger.Debug("Using configured local root", "configured_path", cfg.LocalRoot)

		localRootPath, resolveErr := config.ResolvePath(cfg.LocalRoot)
		if resolveErr != nil {
			logger.Warn("Could not resolve configured local_root path",
				"configured_path", cfg.LocalRoot,
				"error", resolveErr)
			localRootPath = cfg.LocalRoot // Use original path for Stat check
		}

		info, statErr := os.Stat(localRootPath)
		if statErr == nil && info.IsDir() {
			logger.Info("Using configured local root directory",
				"path", localRootPath,
				"resolved_from", cfg.LocalRoot)
			return localRootPath, nil
		}

		// An invalid configured path is an error. Do not fall back.
		if statErr != nil {
			logger.Error("Configured local_root is invalid",
				"configured_path", cfg.LocalRoot,
				"resolved_path", localRootPath,
				"error", statErr)
			return "", fmt.Errorf("configured local_root '%s' is invalid: %w", cfg.LocalRoot, statErr)
		}
		logger.Error("Configured local_root is not a directory",
			"configured_path", cfg.LocalRoot,
			"resolved_path", localRootPath)
		return "", fmt.Errorf("configured local_root '%s' is not a directory", cfg.LocalRoot)
	}

	logger.Debug("No local root configured, checking default locations")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Error("Could not get user home directory for default lookup", "error", err)
		return "", fmt.Errorf("could not get user home directory for default lookup: %w", err)
	}

	possibleDirs := []string{
		filepath.Join(homeDir, "django"),
		filepath.Join(homeDir, "django-projects"),
	}

	logger.Debug("Checking default directories", "candidates", possibleDirs)

	for _, dir := range possibleDirs {
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			logger.Info("Using default local root directory", "path", dir)
			return dir, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Error checking default directory", "directory", dir, "error", err)
		}
	}

	logger.Error("No valid local project root directory found",
		"checked_config", cfg.LocalRoot != "",
		"checked_defaults", possibleDirs)
	return "", fmt.Errorf("could not find a valid local project root directory (checked config 'local_root' and defaults: ~/django, ~/django-projects)")
}

// FindProjects discovers projects everywhere: the local root plus every
// enabled SSH host, concurrently. Results and errors stream over the returned
// channels; doneChan closes when all discovery goroutines have finished.
func FindProjects() (<-chan Project, <-chan error, <-chan struct{}) {
	logger.Info("Starting project discovery")

	projectChan := make(chan Project, 10)
	errorChan := make(chan error, 5)
	doneChan := make(chan struct{})
	var wg sync.WaitGroup

	cfg, configErr := config.LoadConfig()
	if configErr != nil {
		logger.Error("Failed to load configuration for project discovery", "error", configErr)
		// Buffered send before the closer goroutine exists, so it cannot
		// race the close.
		errorChan <- fmt.Errorf("config load failed: %w", configErr)
	}

	logger.Debug("Configuration loaded for discovery",
		"ssh_host_count", len(cfg.SSHHosts),
		"local_root_configured", cfg.LocalRoot != "")

	numGoroutines := 1
	if configErr == nil {
		numGoroutines += len(cfg.SSHHosts)
	}
	wg.Add(numGoroutines)

	go func() {
		wg.Wait()
		close(projectChan)
		close(errorChan)
		close(doneChan)
	}()

	go func() {
		defer wg.Done()
		logger.Debug("Starting local project discovery")

		localRootDir, err := GetProjectRootDirectory()
		if err == nil {
			localProjects, err := FindLocalProjects(localRootDir)
			if err != nil {
				logger.Error("Local project discovery failed", "root_dir", localRootDir, "error", err)
				errorChan <- fmt.Errorf("local discovery failed: %w", err)
			} else {
				logger.Info("Local project discovery completed",
					"root_dir", localRootDir,
					"project_count", len(localProjects))
				for _, p := range localProjects {
					logger.Debug("Local project found", "project_name", p.Name, "path", p.Path)
					projectChan <- p
				}
			}
		} else if !strings.Contains(err.Error(), "could not find") {
			logger.Error("Local root directory check failed", "error", err)
			errorChan <- fmt.Errorf("local root check failed: %w", err)
		} else {
			logger.Debug("No local root directory configured or found")
		}
	}()

	if configErr == nil && len(cfg.SSHHosts) > 0 {
		logger.Debug("Starting remote project discovery", "host_count", len(cfg.SSHHosts))

		sem := semaphore.NewWeighted(maxConcurrentDiscoveries)
		ctx := context.Background()

		for i := range cfg.SSHHosts {
			hostConfig := cfg.SSHHosts[i] // Create copy for the goroutine closure
			go func(hc config.SSHHost) {
				defer wg.Done()

				logger.Debug("Starting remote discovery for host",
					"host_name", hc.Name,
					"hostname", hc.Hostname,
					"remote_root", hc.RemoteRoot,
					"disabled", hc.Disabled)

				if hc.Disabled {
					logger.Debug("Skipping disabled host", "host_name", hc.Name)
					return
				}

				if err := sem.Acquire(ctx, 1); err != nil {
					logger.Error("Failed to acquire semaphore for remote discovery",
						"host_name", hc.Name, "error", err)
					errorChan <- fmt.Errorf("failed to acquire semaphore for %s: %w", hc.Name, err)
					return
				}
				defer sem.Release(1)

				remoteProjects, err := FindRemoteProjects(&hc)
				if err != nil {
					logger.Error("Remote project discovery failed",
						"host_name", hc.Name,
						"hostname", hc.Hostname,
						"error", err)
					errorChan <- fmt.Errorf("remote discovery failed for %s: %w", hc.Name, err)
				} else {
					logger.Info("Remote project discovery completed",
						"host_name", hc.Name,
						"hostname", hc.Hostname,
						"project_count", len(remoteProjects))
					for _, p := range remoteProjects {
						logger.Debug("Remote project found",
							"project_name", p.Name,
							"host_name", p.ServerName,
							"path", p.Path)
						projectChan <- p
					}
				}
			}(hostConfig)
		}
	}

	return projectChan, errorChan, doneChan
}

// FindLocalProjects scans the immediate children of rootDir for directories
// holding a manage.py.
func FindLocalProjects(rootDir string) ([]Project, error) {
	var projects []Project

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read local root directory %s: %w", rootDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		projectName := entry.Name()
		projectPath := filepath.Join(rootDir, projectName)

		_, err := os.Stat(filepath.Join(projectPath, "manage.py"))
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Errorf("Warning: could not stat manage.py in local project %s: %v", projectPath, err)
			}
			continue
		}

		projects = append(projects, Project{
			Name:       projectName,
			Path:       projectPath,
			ServerName: "local",
			IsRemote:   false,
			HostConfig: nil,
			// AbsoluteRemoteRoot is empty for local projects
		})
	}

	return projects, nil
}

// FindRemoteProjects resolves the host's project root and lists every
// directory under it (two levels deep) containing a manage.py.
func FindRemoteProjects(hostConfig *config.SSHHost) ([]Project, error) {
	var projects []Project

	if sshManager == nil {
		return nil, fmt.Errorf("ssh manager not initialized for discovery on %s", hostConfig.Name)
	}

	client, err := sshManager.GetClient(*hostConfig)
	if err != nil {
		return nil, err // GetClient already provides context
	}

	var targetRemoteRoot string
	var resolveErr error
	var pwdOutput []byte

	if hostConfig.RemoteRoot != "" {
		targetRemoteRoot = hostConfig.RemoteRoot
		session, err := client.NewSession()
		if err != nil {
			return nil, fmt.Errorf("failed to create ssh session for discovery on %s: %w", hostConfig.Name, err)
		}
		resolveCmd := fmt.Sprintf("cd %s && pwd", util.QuoteArgForShell(targetRemoteRoot))
		pwdOutput, resolveErr = session.CombinedOutput(resolveCmd)
		if err := session.Close(); err != nil {
			logger.Errorf("Error closing SSH session for %s (resolve path): %v", hostConfig.Name, err)
		}
		if resolveErr != nil {
			return nil, fmt.Errorf("failed to resolve configured remote root path '%s' on host %s: %w\nOutput: %s", targetRemoteRoot, hostConfig.Name, resolveErr, string(pwdOutput))
		}
	} else {
		// Configured root is empty, try fallbacks
		fallbacks := []string{"~/django", "~/django-projects"}
		foundFallback := false
		for _, fallback := range fallbacks {
			session, err := client.NewSession()
			if err != nil {
				return nil, fmt.Errorf("failed to create ssh session for fallback discovery on %s: %w", hostConfig.Name, err)
			}
			resolveCmd := fmt.Sprintf("cd %s && pwd", util.QuoteArgForShell(fallback))
			pwdOutput, resolveErr = session.CombinedOutput(resolveCmd)

			if resolveErr == nil {
				targetRemoteRoot = fallback
				foundFallback = true
				break
			}
		}

		if !foundFallback {
			return nil, fmt.Errorf("remote_root not configured for host %s, and default fallbacks ('~/django', '~/django-projects') could not be resolved", hostConfig.Name)
		}
	}

	absoluteRemoteRoot := strings.TrimSpace(string(pwdOutput))
	if absoluteRemoteRoot == "" {
		return nil, fmt.Errorf("resolved remote root path is empty (resolved from '%s') on host %s", targetRemoteRoot, hostConfig.Name)
	}

	findSession, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create second ssh session for discovery on %s: %w", hostConfig.Name, err)
	}
	// CombinedOutput handles the session lifecycle for findSession.

	// Directories holding a manage.py up to two levels below the root are
	// treated as project roots.
	remoteFindCmd := fmt.Sprintf(
		`find %s -maxdepth 2 -name 'manage.py' -printf '%%h\\n' | sort -u`,
		util.QuoteArgForShell(absoluteRemoteRoot),
	)

	output, err := findSession.CombinedOutput(remoteFindCmd)
	if err != nil {
		return nil, fmt.Errorf("remote find command failed for host %s: %w\nOutput: %s", hostConfig.Name, err, string(output))
	}

	scanner := bufio.NewScanner(bytes.NewReader(output))

	for scanner.Scan() {
		fullPath := scanner.Text()
		if fullPath == "" {
			continue
		}

		relativePath, err := filepath.Rel(absoluteRemoteRoot, fullPath)
		if err != nil {
			logger.Errorf("Warning: could not calculate relative path for '%s' from resolved root '%s' on host %s: %v", fullPath, absoluteRemoteRoot, hostConfig.Name, err)
			continue
		}
		relativePath = filepath.ToSlash(relativePath) // Ensure forward slashes

		projectName := filepath.Base(relativePath)
		if projectName == "." || projectName == "/" {
			continue
		}

		projects = append(projects, Project{
			Name:               projectName,
			Path:               relativePath,
			ServerName:         hostConfig.Name,
			IsRemote:           true,
			HostConfig:         hostConfig,
			AbsoluteRemoteRoot: absoluteRemoteRoot,
		})
	}
	if err := scanner.Err(); err != nil {
		return projects, fmt.Errorf("error reading ssh output for host %s: %w", hostConfig.Name, err)
	}

	return projects, nil
}
