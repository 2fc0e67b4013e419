// SPDX-License-Identifier: Apache-2.0

// The runner.go file handles the endpoints that execute deploy sequences on
// projects and maintenance commands on hosts, in both synchronous (POST) and
// streaming (GET, Server-Sent Events) modes.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"deploy-manager/internal/runner"

	"github.com/gorilla/mux"
)

// ProjectRunRequest is the expected JSON body for project runner endpoints.
type ProjectRunRequest struct {
	Name       string `json:"name"`       // Name of the project to operate on
	ServerName string `json:"serverName"` // Server where the project is located ("local" or SSH host name)
}

// HostRunRequest is the expected JSON body for host runner endpoints.
type HostRunRequest struct {
	ServerName string `json:"serverName"` // Server to run the command on ("local" or SSH host name)
}

// sequenceBuilders maps the sequence names used in URLs to their step builders.
var sequenceBuilders = map[string]func(discovery.Project) []runner.CommandStep{
	"deploy":    runner.DeploySequence,
	"install":   runner.InstallSequence,
	"static":    runner.CollectStaticSequence,
	"migrate":   runner.MigrateSequence,
	"superuser": runner.SuperuserSequence,
}

// RegisterRunnerRoutes registers the API routes for running sequences and
// host actions. Each sequence has a POST endpoint (SSE over the request body)
// and a GET /stream endpoint (SSE with query parameters, usable from
// EventSource).
func RegisterRunnerRoutes(router *mux.Router) {
	for name := range sequenceBuilders {
		seqName := name // capture for the closures below
		router.HandleFunc("/api/run/project/"+seqName, func(w http.ResponseWriter, r *http.Request) {
			runProjectSequenceHandler(w, r, seqName)
		}).Methods("POST")
		router.HandleFunc("/api/run/project/"+seqName+"/stream", func(w http.ResponseWriter, r *http.Request) {
			streamProjectSequenceHandler(w, r, seqName)
		}).Methods("GET")
	}

	router.HandleFunc("/api/run/host/clean", runHostCleanHandler).Methods("POST")
}

// getProjectFromRequest reads the request body and resolves the project it names.
func getProjectFromRequest(r *http.Request) (discovery.Project, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return discovery.Project{}, fmt.Errorf("error reading request body: %w", err)
	}
	defer r.Body.Close()

	var req ProjectRunRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return discovery.Project{}, fmt.Errorf("invalid request body: %w", err)
	}

	return resolveProject(req.Name, req.ServerName)
}

// resolveProject builds a runnable project from a name and server name. Local
// projects are constructed directly under the local root; remote projects go
// through a discovery pass so AbsoluteRemoteRoot is populated.
func resolveProject(projectName, serverName string) (discovery.Project, error) {
	if projectName == "" || serverName == "" {
		return discovery.Project{}, fmt.Errorf("both project name and server name are required")
	}

	if serverName == "local" {
		rootDir, err := discovery.GetProjectRootDirectory()
		if err != nil {
			return discovery.Project{}, fmt.Errorf("error getting local root directory: %w", err)
		}
		return discovery.Project{
			Name:       projectName,
			Path:       rootDir + "/" + projectName,
			ServerName: "local",
			IsRemote:   false,
		}, nil
	}

	return findRemoteProjectByNameAndServer(projectName, serverName)
}

// getHostTargetFromRequest reads the request body and resolves the runner.HostTarget.
func getHostTargetFromRequest(r *http.Request) (runner.HostTarget, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return runner.HostTarget{}, fmt.Errorf("error reading request body: %w", err)
	}
	defer r.Body.Close()

	var req HostRunRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return runner.HostTarget{}, fmt.Errorf("invalid request body: %w", err)
	}

	if req.ServerName == "local" {
		return runner.HostTarget{ServerName: "local", IsRemote: false}, nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return runner.HostTarget{}, fmt.Errorf("error loading config: %w", err)
	}

	for i := range cfg.SSHHosts {
		if cfg.SSHHosts[i].Name == req.ServerName {
			if cfg.SSHHosts[i].Disabled {
				return runner.HostTarget{}, fmt.Errorf("SSH host '%s' is disabled", req.ServerName)
			}
			return runner.HostTarget{
				ServerName: req.ServerName,
				IsRemote:   true,
				HostConfig: &cfg.SSHHosts[i],
			}, nil
		}
	}

	return runner.HostTarget{}, fmt.Errorf("SSH host '%s' not found", req.ServerName)
}

// runProjectSequence streams the output of a sequence using Server-Sent
// Events. Steps run strictly in order; when one fails, an error event is sent
// and no later step runs.
func runProjectSequence(w http.ResponseWriter, sequence []runner.CommandStep) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*") // Allow cross-origin for development

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	for _, step := range sequence {
		fmt.Fprintf(w, "event: step\ndata: %s\n\n", step.Name)
		flusher.Flush()

		outChan, errChan := runner.StreamCommand(step, false) // channel output

		for outputLine := range outChan {
			line := strings.TrimRight(outputLine.Line, " \t\r\n")
			if line == "" {
				continue
			}
			escapedLine := strings.ReplaceAll(line, "\n", "\\n")
			if outputLine.IsError {
				fmt.Fprintf(w, "event: stderr\ndata: %s\n\n", escapedLine)
			} else {
				fmt.Fprintf(w, "event: stdout\ndata: %s\n\n", escapedLine)
			}
			flusher.Flush()
		}

		if err := <-errChan; err != nil {
			errMsg := strings.TrimRight(err.Error(), " \t\r\n")
			escapedError := strings.ReplaceAll(errMsg, "\n", "\\n")
			fmt.Fprintf(w, "event: error\ndata: Error during step '%s': %s\n\n", step.Name, escapedError)
			flusher.Flush()
			// Fail fast: the remaining steps must not run.
			fmt.Fprintf(w, "event: done\ndata: Sequence aborted\n\n")
			flusher.Flush()
			return
		}
	}

	fmt.Fprintf(w, "event: done\ndata: Sequence finished\n\n")
	flusher.Flush()
}

// runHostCommand streams the output of a host-level command using Server-Sent Events.
func runHostCommand(w http.ResponseWriter, step runner.HostCommandStep) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*") // Allow cross-origin for development

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "event: step\ndata: %s\n\n", step.Name)
	flusher.Flush()

	outChan, errChan := runner.RunHostCommand(step, false) // channel output

	for outputLine := range outChan {
		lines := strings.Split(strings.TrimRight(outputLine.Line, " \t\r\n"), "\n")
		for _, line := range lines {
			if trimmed := strings.TrimRight(line, " \t\r"); trimmed != "" {
				escapedLine := strings.ReplaceAll(trimmed, "\n", "\\n")
				if outputLine.IsError {
					fmt.Fprintf(w, "event: stderr\ndata: %s\n\n", escapedLine)
				} else {
					fmt.Fprintf(w, "event: stdout\ndata: %s\n\n", escapedLine)
				}
			}
		}
		flusher.Flush()
	}

	if err := <-errChan; err != nil {
		escapedError := strings.ReplaceAll(err.Error(), "\n", "\\n")
		fmt.Fprintf(w, "event: error\ndata: Error during step '%s': %s\n\n", step.Name, escapedError)
		flusher.Flush()
	}

	fmt.Fprintf(w, "event: done\ndata: Command finished\n\n")
	flusher.Flush()
}

// runProjectSequenceHandler handles POST /api/run/project/{sequence}.
//
// Request Body (JSON):
// - name: The name of the project to run against
// - serverName: "local" or an SSH host name
//
// Response:
// - 200 OK with text/event-stream output of the sequence
// - 400 Bad Request if the body is malformed or the project cannot be resolved
func runProjectSequenceHandler(w http.ResponseWriter, r *http.Request, sequenceName string) {
	project, err := getProjectFromRequest(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error getting project info: %v", err), http.StatusBadRequest)
		return
	}

	build := sequenceBuilders[sequenceName]
	runProjectSequence(w, build(project))
}

// streamProjectSequenceHandler handles GET /api/run/project/{sequence}/stream.
// Identical semantics to the POST endpoint but parameterized via the query
// string so browsers can use EventSource directly.
//
// Query Parameters:
// - name: The name of the project to run against
// - serverName: "local" or an SSH host name
func streamProjectSequenceHandler(w http.ResponseWriter, r *http.Request, sequenceName string) {
	query := r.URL.Query()
	projectName := query.Get("name")
	serverName := query.Get("serverName")

	if projectName == "" || serverName == "" {
		http.Error(w, "Missing 'name' or 'serverName' query parameter", http.StatusBadRequest)
		return
	}

	project, err := resolveProject(projectName, serverName)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error finding project: %v", err), http.StatusNotFound)
		return
	}

	build := sequenceBuilders[sequenceName]
	runProjectSequence(w, build(project))
}

// runHostCleanHandler serves POST /api/run/host/clean, which purges the pip
// download cache on a host.
//
// Request Body (JSON):
// - serverName: The name of the server to clean ("local" or an SSH host name)
func runHostCleanHandler(w http.ResponseWriter, r *http.Request) {
	target, err := getHostTargetFromRequest(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error getting host info: %v", err), http.StatusBadRequest)
		return
	}

	step := runner.CleanCacheStep(target)
	runHostCommand(w, step) // Stream output
}
