// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"deploy-manager/internal/config"

	"github.com/gorilla/mux"
)

// RegisterSSHRoutes registers the API routes for SSH configurations.
func RegisterSSHRoutes(router *mux.Router) {
	router.HandleFunc("/api/ssh/hosts", listSSHHostsHandler).Methods("GET")
	router.HandleFunc("/api/ssh/hosts", addSSHHostHandler).Methods("POST")
	router.HandleFunc("/api/ssh/hosts/{name}", getSSHHostHandler).Methods("GET")
	router.HandleFunc("/api/ssh/hosts/{name}", updateSSHHostHandler).Methods("PUT")
	router.HandleFunc("/api/ssh/hosts/{name}", deleteSSHHostHandler).Methods("DELETE")
	router.HandleFunc("/api/ssh/import", importSSHHostsHandler).Methods("POST")
}

// listSSHHostsHandler handles requests to list all SSH hosts.
func listSSHHostsHandler(w http.ResponseWriter, r *http.Request) {
	cfg, err := config.LoadConfig()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading config: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg.SSHHosts)
}

// addSSHHostHandler handles requests to add a new SSH host.
func addSSHHostHandler(w http.ResponseWriter, r *http.Request) {
	var newHost config.SSHHost
	if err := json.NewDecoder(r.Body).Decode(&newHost); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if newHost.Name == "" || newHost.Hostname == "" || newHost.User == "" {
		http.Error(w, "name, hostname and user are required", http.StatusBadRequest)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading config: %v", err), http.StatusInternalServerError)
		return
	}

	for _, host := range cfg.SSHHosts {
		if host.Name == newHost.Name {
			http.Error(w, fmt.Sprintf("SSH host '%s' already exists", newHost.Name), http.StatusConflict)
			return
		}
	}

	cfg.SSHHosts = append(cfg.SSHHosts, newHost)

	if err := config.SaveConfig(cfg); err != nil {
		http.Error(w, fmt.Sprintf("Error saving config: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(newHost)
}

// getSSHHostHandler handles requests to get details of a specific SSH host.
func getSSHHostHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hostName := vars["name"]

	cfg, err := config.LoadConfig()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading config: %v", err), http.StatusInternalServerError)
		return
	}

	for _, host := range cfg.SSHHosts {
		if host.Name == hostName {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(host)
			return
		}
	}

	http.Error(w, "SSH host not found", http.StatusNotFound)
}

// updateSSHHostHandler handles requests to update an existing SSH host.
func updateSSHHostHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hostName := vars["name"]

	var updatedHost config.SSHHost
	if err := json.NewDecoder(r.Body).Decode(&updatedHost); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if updatedHost.Name == "" || updatedHost.Hostname == "" || updatedHost.User == "" {
		http.Error(w, "name, hostname and user are required", http.StatusBadRequest)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading config: %v", err), http.StatusInternalServerError)
		return
	}

	found := false
	for i, host := range cfg.SSHHosts {
		if host.Name == hostName {
			cfg.SSHHosts[i] = updatedHost
			found = true
			break
		}
	}

	if !found {
		http.Error(w, "SSH host not found", http.StatusNotFound)
		return
	}

	if err := config.SaveConfig(cfg); err != nil {
		http.Error(w, fmt.Sprintf("Error saving config: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updatedHost)
}

// deleteSSHHostHandler handles requests to delete an SSH host.
func deleteSSHHostHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hostName := vars["name"]

	cfg, err := config.LoadConfig()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading config: %v", err), http.StatusInternalServerError)
		return
	}

	newSSHHosts := []config.SSHHost{}
	found := false
	for _, host := range cfg.SSHHosts {
		if host.Name == hostName {
			found = true
			continue
		}
		newSSHHosts = append(newSSHHosts, host)
	}

	if !found {
		http.Error(w, "SSH host not found", http.StatusNotFound)
		return
	}

	cfg.SSHHosts = newSSHHosts

	if err := config.SaveConfig(cfg); err != nil {
		http.Error(w, fmt.Sprintf("Error saving config: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// importSSHHostsHandler parses ~/.ssh/config and merges its hosts into the
// configuration, skipping aliases whose names are already taken. The response
// reports how many hosts were imported and how many were skipped.
func importSSHHostsHandler(w http.ResponseWriter, r *http.Request) {
	potentialHosts, err := config.ParseSSHConfig()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error parsing ssh config: %v", err), http.StatusInternalServerError)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading config: %v", err), http.StatusInternalServerError)
		return
	}

	existingNames := make(map[string]bool)
	for _, host := range cfg.SSHHosts {
		existingNames[host.Name] = true
	}

	imported := 0
	skipped := 0
	for _, p := range potentialHosts {
		if existingNames[p.Alias] {
			skipped++
			continue
		}
		host, convErr := config.ConvertToDeployHost(p, p.Alias, "")
		if convErr != nil {
			skipped++
			continue
		}
		cfg.SSHHosts = append(cfg.SSHHosts, host)
		existingNames[p.Alias] = true
		imported++
	}

	if imported > 0 {
		if err := config.SaveConfig(cfg); err != nil {
			http.Error(w, fmt.Sprintf("Error saving config: %v", err), http.StatusInternalServerError)
			return
		}
	}

	writeJSONResponse(w, map[string]int{"imported": imported, "skipped": skipped})
}
