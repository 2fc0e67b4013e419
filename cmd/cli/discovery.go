// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"fmt"
	"strings"
	"sync"

	"github.com/briandowns/spinner"
)

// enabledSSHHosts filters out disabled hosts for discovery and actions.
// Disabled hosts stay in the config so they can be re-enabled later.
func enabledSSHHosts(hosts []config.SSHHost) []config.SSHHost {
	enabled := make([]config.SSHHost, 0, len(hosts))
	for _, h := range hosts {
		if !h.Disabled {
			enabled = append(enabled, h)
		}
	}
	return enabled
}

// findProjectByIdentifier finds a specific project based on its identifier.
// Identifier can be "projectName" (implies local preference) or "serverName:projectName".
// Returns an error if not found or if "projectName" is ambiguous.
func findProjectByIdentifier(projects []discovery.Project, identifier string) (discovery.Project, error) {
	identifier = strings.TrimSpace(identifier)
	targetName := identifier
	targetServer := "" // "" means user didn't specify, implies local preference unless ambiguous

	if parts := strings.SplitN(identifier, ":", 2); len(parts) == 2 {
		targetServer = strings.TrimSpace(parts[0])
		targetName = strings.TrimSpace(parts[1])
		if targetName == "" || targetServer == "" {
			return discovery.Project{}, fmt.Errorf("invalid identifier format: '%s'. Use 'project' or 'remote:project'", identifier)
		}
	}

	var potentialMatches []discovery.Project
	var exactMatch *discovery.Project

	for i := range projects {
		p := projects[i]
		if p.Name == targetName {
			if targetServer != "" {
				if p.ServerName == targetServer {
					exactMatch = &p
					break
				}
			} else {
				potentialMatches = append(potentialMatches, p)
			}
		}
	}

	if targetServer != "" {
		if exactMatch != nil {
			return *exactMatch, nil
		}
		return discovery.Project{}, fmt.Errorf("project '%s:%s' not found", targetServer, targetName)
	}

	if len(potentialMatches) == 0 {
		return discovery.Project{}, fmt.Errorf("project '%s' not found", targetName)
	}

	if len(potentialMatches) == 1 {
		return potentialMatches[0], nil
	}

	// Ambiguous case: Multiple projects match the name, user didn't specify server.
	// Prefer a single local match if one exists.
	var localMatch *discovery.Project
	localCount := 0
	for i := range potentialMatches {
		if !potentialMatches[i].IsRemote {
			localCount++
			localMatch = &potentialMatches[i]
		}
	}

	if localCount == 1 && localMatch != nil {
		return *localMatch, nil
	}

	options := make([]string, 0, len(potentialMatches))
	for _, pm := range potentialMatches {
		options = append(options, pm.Identifier())
	}
	return discovery.Project{}, fmt.Errorf("project name '%s' is ambiguous, please specify one of: %s", targetName, strings.Join(options, ", "))
}

// discoverTargetProjects finds projects based on an identifier, handling local/remote discovery.
// identifier: The project identifier (e.g., "my-app", "server1:my-app", "local:my-app").
//
//	Can also be "server1:" to discover all projects on server1 (used by status).
//	If empty, discovers all projects.
//
// s: Optional spinner for feedback during remote discovery.
func discoverTargetProjects(identifier string, s *spinner.Spinner) ([]discovery.Project, []error) {
	var projectsToCheck []discovery.Project
	var collectedErrors []error
	targetProjectName := ""
	targetServerName := "" // "local", specific remote name, or "" for ambiguous/all

	if identifier != "" {
		if strings.HasSuffix(identifier, ":") { // e.g., "server1:"
			targetServerName = strings.TrimSuffix(identifier, ":")
			if targetServerName == "" {
				return nil, []error{fmt.Errorf("invalid identifier format: '%s'. Cannot be just ':'", identifier)}
			}
		} else if parts := strings.SplitN(identifier, ":", 2); len(parts) == 2 {
			targetServerName = strings.TrimSpace(parts[0])
			targetProjectName = strings.TrimSpace(parts[1])
			if targetProjectName == "" || targetServerName == "" {
				return nil, []error{fmt.Errorf("invalid identifier format: '%s'. Use 'project', 'remote:project', or 'remote:'", identifier)}
			}
		} else {
			targetProjectName = identifier
		}
	}

	cfg, configErr := config.LoadConfig()

	scanAll := identifier == ""
	discoverLocal := targetServerName == "local" || targetServerName == ""
	discoverSpecificRemote := targetServerName != "local" && targetServerName != ""
	discoverAllRemotes := targetServerName == "" // Only if ambiguous and not found locally

	if discoverLocal {
		localRootDir, err := discovery.GetProjectRootDirectory()
		if err == nil {
			localProjects, err := discovery.FindLocalProjects(localRootDir)
			if err != nil {
				collectedErrors = append(collectedErrors, fmt.Errorf("local discovery failed: %w", err))
			} else {
				projectsToCheck = append(projectsToCheck, localProjects...)
			}
		} else if !strings.Contains(err.Error(), "could not find") {
			collectedErrors = append(collectedErrors, fmt.Errorf("local root check failed: %w", err))
		}
	}

	if discoverSpecificRemote {
		if configErr != nil {
			return nil, []error{fmt.Errorf("error loading config needed for remote discovery: %w", configErr)}
		}
		var targetHost *config.SSHHost
		for i := range cfg.SSHHosts {
			if cfg.SSHHosts[i].Name == targetServerName {
				targetHost = &cfg.SSHHosts[i]
				break
			}
		}
		if targetHost == nil {
			collectedErrors = append(collectedErrors, fmt.Errorf("remote host '%s' not found in configuration", targetServerName))
		} else if targetHost.Disabled {
			collectedErrors = append(collectedErrors, fmt.Errorf("remote host '%s' is disabled", targetServerName))
		} else {
			if s != nil {
				originalSuffix := s.Suffix
				s.Suffix = fmt.Sprintf(" Discovering on %s...", identifierColor.Sprint(targetServerName))
				defer func() { s.Suffix = originalSuffix }()
			}
			remoteProjects, err := discovery.FindRemoteProjects(targetHost)
			if err != nil {
				collectedErrors = append(collectedErrors, fmt.Errorf("remote discovery failed for %s: %w", targetHost.Name, err))
			} else {
				if targetProjectName == "" {
					projectsToCheck = append(projectsToCheck, remoteProjects...)
				} else {
					for _, rp := range remoteProjects {
						if rp.Name == targetProjectName {
							projectsToCheck = append(projectsToCheck, rp)
							break
						}
					}
				}
			}
		}
	}

	if discoverAllRemotes {
		foundLocally := false
		if targetProjectName != "" {
			for _, p := range projectsToCheck {
				if !p.IsRemote && p.Name == targetProjectName {
					foundLocally = true
					break
				}
			}
		}

		if targetProjectName != "" && !foundLocally {
			if configErr != nil {
				collectedErrors = append(collectedErrors, fmt.Errorf("project '%s' not found locally and remote discovery skipped due to config error: %w", targetProjectName, configErr))
			} else if len(cfg.SSHHosts) > 0 {
				if s != nil {
					originalSuffix := s.Suffix
					s.Suffix = fmt.Sprintf(" Discovering %s on remotes...", identifierColor.Sprint(targetProjectName))
					defer func() { s.Suffix = originalSuffix }()
				}

				enabledHosts := enabledSSHHosts(cfg.SSHHosts)

				var remoteWg sync.WaitGroup
				remoteProjectChan := make(chan discovery.Project, len(enabledHosts))
				remoteErrorChan := make(chan error, len(enabledHosts))
				remoteWg.Add(len(enabledHosts))

				for i := range enabledHosts {
					hostConfig := enabledHosts[i]
					go func(hc config.SSHHost) {
						defer remoteWg.Done()
						remoteProjects, err := discovery.FindRemoteProjects(&hc)
						if err != nil {
							remoteErrorChan <- fmt.Errorf("remote discovery failed for %s: %w", hc.Name, err)
						} else {
							for _, rp := range remoteProjects {
								if rp.Name == targetProjectName {
									remoteProjectChan <- rp
									break
								}
							}
						}
					}(hostConfig)
				}

				go func() {
					remoteWg.Wait()
					close(remoteProjectChan)
					close(remoteErrorChan)
				}()

				for rp := range remoteProjectChan {
					projectsToCheck = append(projectsToCheck, rp)
				}
				for err := range remoteErrorChan {
					collectedErrors = append(collectedErrors, err)
				}
			}
		} else if scanAll {
			if s != nil {
				originalSuffix := s.Suffix
				s.Suffix = " Discovering all projects..."
				defer func() { s.Suffix = originalSuffix }()
			}
			projectsToCheck = nil
			projectChan, errorChan, _ := discovery.FindProjects()
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				for p := range projectChan {
					projectsToCheck = append(projectsToCheck, p)
				}
			}()
			go func() {
				defer wg.Done()
				for e := range errorChan {
					collectedErrors = append(collectedErrors, e)
				}
			}()
			wg.Wait()
		}
	}

	finalProjects := []discovery.Project{}
	if scanAll {
		finalProjects = projectsToCheck
	} else {
		// Filter projectsToCheck based on targetProjectName and targetServerName
		for _, p := range projectsToCheck {
			nameMatch := (targetProjectName == "" || p.Name == targetProjectName)
			serverMatch := (targetServerName == "" || p.ServerName == targetServerName)

			if nameMatch && serverMatch {
				finalProjects = append(finalProjects, p)
			}
		}

		// Resolve ambiguity if needed
		if targetServerName == "" && targetProjectName != "" && len(finalProjects) > 1 {
			resolvedProject, resolveErr := findProjectByIdentifier(finalProjects, identifier)
			if resolveErr == nil {
				finalProjects = []discovery.Project{resolvedProject}
			} else {
				return nil, append(collectedErrors, resolveErr)
			}
		} else if len(finalProjects) == 0 && len(collectedErrors) == 0 {
			_, notFoundErr := findProjectByIdentifier(projectsToCheck, identifier)
			if notFoundErr != nil {
				return nil, []error{notFoundErr}
			}
			return nil, []error{fmt.Errorf("no projects found matching identifier '%s'", identifier)}
		}
	}

	return finalProjects, collectedErrors
}
