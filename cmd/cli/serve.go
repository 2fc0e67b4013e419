// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"log"
	"net/http"

	"deploy-manager/internal/api"
	"deploy-manager/internal/web"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server for Deploy Manager",
	Long:  `Starts an HTTP server that serves the Deploy Manager web UI and API`,
	Run: func(cmd *cobra.Command, args []string) {
		runWebServer(servePort)
	},
}

// runWebServer starts the HTTP server for the web UI.
func runWebServer(port string) {
	// Note: SSH manager is already initialized in PersistentPreRunE of rootCmd

	router := mux.NewRouter()

	// Register API routes
	api.RegisterProjectRoutes(router)
	api.RegisterSSHRoutes(router)
	api.RegisterRunnerRoutes(router)

	// Serve embedded static files.
	// Must be registered after API routes to avoid conflicts
	staticFileServer := http.FileServer(web.GetFileSystem())
	router.PathPrefix("/").Handler(staticFileServer)

	fmt.Printf("Starting web server on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "8080", "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
