// SPDX-License-Identifier: Apache-2.0

// Package api implements the HTTP API endpoints for the deploy manager's web
// interface. It provides handlers for listing projects, checking migration
// status, executing deploy sequences, and managing SSH host configurations.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"deploy-manager/internal/runner"

	"github.com/gorilla/mux"
	"golang.org/x/sync/semaphore"
)

// maxConcurrentStatusChecks bounds parallel status checks so listing a large
// project tree does not open one SSH session per project.
const maxConcurrentStatusChecks = 4

var statusCheckSem = semaphore.NewWeighted(maxConcurrentStatusChecks)

// ProjectWithStatus combines project metadata with its migration status for
// the web UI.
type ProjectWithStatus struct {
	discovery.Project
	Status       runner.ProjectStatus `json:"status"`
	PendingCount int                  `json:"pending_count"`
}

// collectProjectsWithStatus fetches the migration status of each project in
// parallel, bounded by statusCheckSem, and returns the combined records in
// the input order.
func collectProjectsWithStatus(projects []discovery.Project) []ProjectWithStatus {
	projectsWithStatus := make([]ProjectWithStatus, len(projects))
	var wg sync.WaitGroup
	wg.Add(len(projects))

	for i, project := range projects {
		go func(i int, p discovery.Project) {
			defer wg.Done()
			if err := statusCheckSem.Acquire(context.Background(), 1); err != nil {
				projectsWithStatus[i] = ProjectWithStatus{
					Project: p,
					Status:  runner.StatusError,
				}
				return
			}
			defer statusCheckSem.Release(1)
			statusInfo := runner.GetProjectStatus(p)
			projectsWithStatus[i] = ProjectWithStatus{
				Project:      p,
				Status:       statusInfo.OverallStatus,
				PendingCount: statusInfo.PendingCount,
			}
		}(i, project)
	}

	wg.Wait()
	return projectsWithStatus
}

// writeJSONResponse writes a JSON response with CORS headers
func writeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(data)
}

// findSSHHost finds a host by name from the config
func findSSHHost(hostName string) (*config.SSHHost, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %v", err)
	}

	for i := range cfg.SSHHosts {
		if cfg.SSHHosts[i].Name == hostName {
			if cfg.SSHHosts[i].Disabled {
				return nil, fmt.Errorf("SSH host '%s' is disabled", hostName)
			}
			return &cfg.SSHHosts[i], nil
		}
	}

	return nil, fmt.Errorf("SSH host not found")
}

// findProjectByName finds a project by name in a slice of projects
func findProjectByName(projects []discovery.Project, name string) (*discovery.Project, error) {
	for i, project := range projects {
		if project.Name == name {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("project not found")
}

// findRemoteProjectByNameAndServer locates one project on one host by running
// a fresh discovery against that host and matching the name. The returned
// project has AbsoluteRemoteRoot populated and is ready for the runner.
func findRemoteProjectByNameAndServer(projectName, serverName string) (discovery.Project, error) {
	targetHost, err := findSSHHost(serverName)
	if err != nil {
		return discovery.Project{}, err
	}

	// TODO: Cache discovered projects so repeated operations against the
	// same host skip rediscovery.
	projects, err := discovery.FindRemoteProjects(targetHost)
	if err != nil {
		return discovery.Project{}, fmt.Errorf("error finding remote projects: %w", err)
	}

	for _, project := range projects {
		if project.Name == projectName {
			return project, nil
		}
	}

	return discovery.Project{}, fmt.Errorf("project '%s' not found on host '%s'", projectName, serverName)
}

func RegisterProjectRoutes(router *mux.Router) {
	router.HandleFunc("/api/projects/local", listLocalProjectsHandler).Methods("GET")
	router.HandleFunc("/api/projects/local/{name}/status", getLocalProjectStatusHandler).Methods("GET")
	router.HandleFunc("/api/ssh/hosts/{hostName}/projects", listRemoteProjectsHandler).Methods("GET")
	router.HandleFunc("/api/ssh/hosts/{hostName}/projects/{name}/status", getRemoteProjectStatusHandler).Methods("GET")
}

// listLocalProjectsHandler serves GET /api/projects/local: every project
// under the local root, with migration status. A missing local root yields an
// empty array rather than an error.
func listLocalProjectsHandler(w http.ResponseWriter, r *http.Request) {
	rootDir, err := discovery.GetProjectRootDirectory()
	if err != nil {
		if strings.Contains(err.Error(), "could not find") {
			writeJSONResponse(w, []ProjectWithStatus{})
			return
		}
		http.Error(w, fmt.Sprintf("Error getting local root directory: %v", err), http.StatusInternalServerError)
		return
	}

	projects, err := discovery.FindLocalProjects(rootDir)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error finding local projects: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, collectProjectsWithStatus(projects))
}

// listRemoteProjectsHandler serves GET /api/ssh/hosts/{hostName}/projects:
// every project under the configured root of one SSH host, with status.
func listRemoteProjectsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hostName := vars["hostName"]

	targetHost, err := findSSHHost(hostName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	projects, err := discovery.FindRemoteProjects(targetHost)
	if err != nil {
		if strings.Contains(err.Error(), "could not find") {
			writeJSONResponse(w, []ProjectWithStatus{})
			return
		}
		http.Error(w, fmt.Sprintf("Error finding remote projects for host %s: %v", hostName, err), http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, collectProjectsWithStatus(projects))
}

// getLocalProjectStatusHandler serves GET /api/projects/local/{name}/status:
// migration status of one local project, including per-migration detail.
func getLocalProjectStatusHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	projectName := vars["name"]

	rootDir, err := discovery.GetProjectRootDirectory()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error getting local root directory: %v", err), http.StatusInternalServerError)
		return
	}

	projects, err := discovery.FindLocalProjects(rootDir)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error finding local projects: %v", err), http.StatusInternalServerError)
		return
	}

	targetProject, err := findProjectByName(projects, projectName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeProjectStatus(w, *targetProject)
}

// getRemoteProjectStatusHandler serves
// GET /api/ssh/hosts/{hostName}/projects/{name}/status for remote projects.
func getRemoteProjectStatusHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hostName := vars["hostName"]
	projectName := vars["name"]

	targetHost, err := findSSHHost(hostName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	projects, err := discovery.FindRemoteProjects(targetHost)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error finding remote projects: %v", err), http.StatusInternalServerError)
		return
	}

	targetProject, err := findProjectByName(projects, projectName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeProjectStatus(w, *targetProject)
}

func writeProjectStatus(w http.ResponseWriter, project discovery.Project) {
	statusInfo := runner.GetProjectStatus(project)
	response := map[string]interface{}{
		"name":          project.Name,
		"status":        statusInfo.OverallStatus,
		"pending_count": statusInfo.PendingCount,
		"migrations":    statusInfo.Migrations,
	}
	if statusInfo.Error != nil {
		response["error"] = statusInfo.Error.Error()
	}

	writeJSONResponse(w, response)
}
