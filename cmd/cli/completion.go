// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

// discoverLocalProjectsForCompletion performs local discovery for completion, ignoring "not found" errors.
func discoverLocalProjectsForCompletion() ([]discovery.Project, error) {
	localRootDir, err := discovery.GetProjectRootDirectory()
	if err != nil {
		if strings.Contains(err.Error(), "could not find") {
			return nil, nil
		}
		return nil, err
	}
	return discovery.FindLocalProjects(localRootDir)
}

// discoverRemoteProjectsForCompletion performs discovery on a specific remote host for completion.
func discoverRemoteProjectsForCompletion(remoteName string) ([]discovery.Project, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config for remote completion: %w", err)
	}

	var targetHost *config.SSHHost
	for i := range cfg.SSHHosts {
		if cfg.SSHHosts[i].Name == remoteName {
			targetHost = &cfg.SSHHosts[i]
			break
		}
	}

	if targetHost == nil || targetHost.Disabled {
		return nil, nil // No error, just no projects for a non-existent or disabled remote
	}

	// Ignore errors during discovery for completion purposes
	projects, _ := discovery.FindRemoteProjects(targetHost)
	return projects, nil
}

// discoverAllRemoteProjectsForCompletion performs discovery only on all configured remote hosts for completion.
func discoverAllRemoteProjectsForCompletion() ([]discovery.Project, []error) {
	var remoteProjects []discovery.Project
	var discoveryErrors []error

	cfg, configErr := config.LoadConfig()
	if configErr != nil {
		// Can't discover remotes if config fails
		return nil, []error{fmt.Errorf("failed to load config for remote completion: %w", configErr)}
	}
	enabledHosts := enabledSSHHosts(cfg.SSHHosts)
	if len(enabledHosts) == 0 {
		return nil, nil // No remotes configured
	}

	var wg sync.WaitGroup
	projectChan := make(chan discovery.Project, len(enabledHosts))
	errorChan := make(chan error, len(enabledHosts))
	wg.Add(len(enabledHosts))

	for i := range enabledHosts {
		hostConfig := enabledHosts[i]
		go func(hc config.SSHHost) {
			defer wg.Done()
			// Ignore errors during discovery for completion purposes
			projects, err := discovery.FindRemoteProjects(&hc)
			if err != nil {
				// Still collect errors, even if ignored for suggestions
				errorChan <- fmt.Errorf("remote discovery failed for %s: %w", hc.Name, err)
				return
			}
			for _, p := range projects {
				projectChan <- p
			}
		}(hostConfig)
	}

	go func() {
		wg.Wait()
		close(projectChan)
		close(errorChan)
	}()

	var collectWg sync.WaitGroup
	collectWg.Add(2)

	go func() {
		defer collectWg.Done()
		for p := range projectChan {
			remoteProjects = append(remoteProjects, p)
		}
	}()
	go func() {
		defer collectWg.Done()
		for e := range errorChan {
			discoveryErrors = append(discoveryErrors, e)
		}
	}()

	collectWg.Wait()

	// Errors are collected but typically ignored by the caller for completion
	return remoteProjects, discoveryErrors
}

// projectCompletionFunc provides dynamic completion for project identifiers.
func projectCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	suggestionMap := make(map[string]struct{}) // Use map for deduplication
	var projectsToSearch []discovery.Project
	var discoveryErrors []error // Collect errors silently

	targetServer := ""
	targetProject := toComplete
	hasColon := strings.Contains(toComplete, ":")

	if hasColon {
		parts := strings.SplitN(toComplete, ":", 2)
		targetServer = parts[0]
		targetProject = parts[1] // Can be empty if completing server name (e.g., "remote:")
	}

	// --- Discovery Strategy ---
	switch {
	case targetServer == "local":
		// "local:" prefix: Only suggest local projects
		projectsToSearch, _ = discoverLocalProjectsForCompletion()
	case targetServer != "":
		// "remote:" prefix: Only suggest projects from that specific remote
		projectsToSearch, _ = discoverRemoteProjectsForCompletion(targetServer)
	default:
		// No prefix or just "project": Suggest local first, then remotes if no local match
		var localProjects []discovery.Project
		localProjects, _ = discoverLocalProjectsForCompletion()
		projectsToSearch = localProjects // Start with local

		// Check if any local project name matches the prefix
		localMatchFound := false
		if len(localProjects) > 0 {
			for _, p := range localProjects {
				// Only check project name for prefix match when no server is specified
				if strings.HasPrefix(p.Name, targetProject) {
					suggestionMap[p.Name] = struct{}{} // Add the plain name
					localMatchFound = true
				}
			}
		}

		// If local matches were found, *only* return those plain names
		if localMatchFound {
			suggestions := make([]string, 0, len(suggestionMap))
			for suggestion := range suggestionMap {
				suggestions = append(suggestions, suggestion)
			}
			return suggestions, cobra.ShellCompDirectiveNoFileComp
		}

		// No local matches found, proceed to discover all remotes
		var remoteProjects []discovery.Project
		remoteProjects, discoveryErrors = discoverAllRemoteProjectsForCompletion()
		projectsToSearch = append(projectsToSearch, remoteProjects...)
		// We collected remote discovery errors, but won't show them during completion
		_ = discoveryErrors
	}

	// Generate Suggestions from discovered projects
	for _, p := range projectsToSearch {
		identifier := p.Identifier() // e.g., "local:project" or "remote:project"
		name := p.Name               // e.g., "project"

		// If completing a full identifier (e.g., "remote:pr")
		if hasColon && strings.HasPrefix(identifier, toComplete) {
			suggestionMap[identifier] = struct{}{}
		}

		// If completing just a name (e.g., "pr") or a server (e.g., "remote:")
		if !hasColon {
			if strings.HasPrefix(name, targetProject) {
				suggestionMap[name] = struct{}{}
			}
			// Also suggest the full identifier if the server part matches
			if targetServer == "" && strings.HasPrefix(identifier, toComplete) {
				suggestionMap[identifier] = struct{}{}
			}
		}

		// Special case: If user typed "remote:", suggest all projects for that remote
		if hasColon && targetProject == "" && p.ServerName == targetServer {
			suggestionMap[identifier] = struct{}{}
		}
	}

	suggestions := make([]string, 0, len(suggestionMap))
	for suggestion := range suggestionMap {
		suggestions = append(suggestions, suggestion)
	}

	return suggestions, cobra.ShellCompDirectiveNoFileComp
}

// hostCompletionFunc provides dynamic completion for host identifiers ("local" or remote names).
func hostCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	suggestions := []string{"local"} // Always suggest local

	cfg, err := config.LoadConfig()
	// Ignore config load errors during completion
	if err == nil {
		for _, host := range cfg.SSHHosts {
			if !host.Disabled && strings.HasPrefix(host.Name, toComplete) {
				suggestions = append(suggestions, host.Name)
			}
		}
	}

	finalSuggestions := []string{}
	for _, s := range suggestions {
		if strings.HasPrefix(s, toComplete) {
			finalSuggestions = append(finalSuggestions, s)
		}
	}

	return finalSuggestions, cobra.ShellCompDirectiveNoFileComp
}
