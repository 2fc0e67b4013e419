// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"deploy-manager/internal/logger"
	"deploy-manager/internal/runner"
	"deploy-manager/internal/ssh"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"
)

// maxConcurrentStatusChecks bounds parallel status checks so a long project
// list does not open an SSH session per project.
const maxConcurrentStatusChecks = 4

var (
	sshManager         *ssh.Manager
	statusColor        = color.New(color.FgCyan)
	errorColor         = color.New(color.FgRed)
	stepColor          = color.New(color.FgYellow)
	successColor       = color.New(color.FgGreen)
	statusCurrentColor = color.New(color.FgGreen)
	statusPendingColor = color.New(color.FgYellow)
	statusErrorColor   = color.New(color.FgMagenta)
	identifierColor    = color.New(color.FgBlue)
	dimColor           = color.New(color.Faint)
)

var rootCmd = &cobra.Command{
	Use:   "dm",
	Short: "Deploy Manager CLI",
	Long: `A command-line interface to deploy and manage multiple Django projects.

Discovers projects in standard local directories (~/django, ~/django-projects)
and on remote hosts configured via SSH (~/.config/deploy-manager/config.yaml).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("failed to ensure config directory: %w", err)
		}
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		runner.InitConfig(cfg)
		sshManager = ssh.NewManager()
		discovery.InitSSHManager(sshManager)
		runner.InitSSHManager(sshManager)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if sshManager != nil {
			sshManager.CloseAll()
		}
		return nil
	},
}

func RunCLI() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(staticCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(superuserCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cleanCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered Django projects (local and remote)",
	Run: func(cmd *cobra.Command, args []string) {
		statusColor.Println("Discovering projects...")
		projectChan, errorChan, _ := discovery.FindProjects()

		var collectedErrors []error
		var projectsFound bool
		var wg sync.WaitGroup
		wg.Add(1)

		go func() {
			defer wg.Done()
			for err := range errorChan {
				collectedErrors = append(collectedErrors, err)
				errorColor.Fprintf(os.Stderr, "Error during discovery: %v\n", err)
			}
		}()

		fmt.Println("\nDiscovered projects:")

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Color("cyan")
		s.Suffix = " Loading remote projects..."
		s.Start()

		for project := range projectChan {
			s.Stop()
			projectsFound = true
			fmt.Printf("- %s (%s)\n", project.Name, identifierColor.Sprint(project.ServerName))
			s.Restart()
		}
		s.Stop()

		wg.Wait()

		if !projectsFound && len(collectedErrors) == 0 {
			fmt.Println("\nNo Django projects found locally or on configured remote hosts.")
		} else if !projectsFound && len(collectedErrors) > 0 {
			fmt.Println("\nNo projects discovered successfully.")
		}

		if len(collectedErrors) > 0 {
			os.Exit(1)
		}
	},
}

var deployCmd = &cobra.Command{
	Use:               "deploy <project-identifier>",
	Short:             "Run the full deploy sequence for a project",
	Long:              `Runs dependency installation, static file collection, database migrations, and admin user creation for the specified project, strictly in that order. The sequence stops at the first failing step.`,
	Example:           "  dm deploy my-local-app\n  dm deploy server1:remote-app",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: projectCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		runProjectAction("deploy", args)
	},
}

var installCmd = &cobra.Command{
	Use:               "install <project-identifier>",
	Short:             "Install a project's requirements with pip",
	Example:           "  dm install my-local-app\n  dm install server1:remote-app",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: projectCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		runProjectAction("install", args)
	},
}

var staticCmd = &cobra.Command{
	Use:               "static <project-identifier>",
	Short:             "Run 'manage.py collectstatic --noinput' for a project",
	Example:           "  dm static my-local-app\n  dm static server1:remote-app",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: projectCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		runProjectAction("static", args)
	},
}

var migrateCmd = &cobra.Command{
	Use:               "migrate <project-identifier>",
	Short:             "Run 'manage.py migrate --noinput' for a project",
	Example:           "  dm migrate my-local-app\n  dm migrate server1:remote-app",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: projectCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		runProjectAction("migrate", args)
	},
}

var superuserCmd = &cobra.Command{
	Use:   "superuser <project-identifier>",
	Short: "Run 'manage.py createsuperuser --noinput' for a project",
	Long: `Creates the Django admin user non-interactively. Requires the
DJANGO_SUPERUSER_USERNAME and DJANGO_SUPERUSER_PASSWORD environment variables;
the step fails before anything runs if either is missing.`,
	Example:           "  DJANGO_SUPERUSER_USERNAME=admin DJANGO_SUPERUSER_PASSWORD=secret dm superuser my-local-app",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: projectCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		runProjectAction("superuser", args)
	},
}

// checkProjectStatuses fans out status checks across projects, at most
// maxConcurrentStatusChecks at a time, and streams results as they complete.
// The returned channel closes after the last check.
func checkProjectStatuses(projects []discovery.Project) <-chan runner.ProjectRuntimeInfo {
	statusChan := make(chan runner.ProjectRuntimeInfo, len(projects))
	sem := semaphore.NewWeighted(maxConcurrentStatusChecks)
	var wg sync.WaitGroup
	wg.Add(len(projects))

	for _, project := range projects {
		go func(p discovery.Project) {
			defer wg.Done()
			if err := sem.Acquire(context.Background(), 1); err != nil {
				statusChan <- runner.ProjectRuntimeInfo{
					Project:       p,
					OverallStatus: runner.StatusError,
					Error:         err,
				}
				return
			}
			defer sem.Release(1)
			statusChan <- runner.GetProjectStatus(p)
		}(project)
	}

	go func() {
		wg.Wait()
		close(statusChan)
	}()

	return statusChan
}

var statusCmd = &cobra.Command{
	Use:   "status [project-identifier]",
	Short: "Show the migration status of one or all projects",
	Long: `Shows the migration status of local and remote Django projects.
If a project identifier (e.g., my-app or server1:remote-app) is provided, shows status for that specific project.
If a remote identifier ending with ':' (e.g., server1:) is provided, shows status for all projects on that remote.
Otherwise, shows status for all discovered projects.`,
	Example:           "  dm status\n  dm status my-local-app\n  dm status server1:remote-app\n  dm status server1:",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: projectCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		var collectedErrors []error
		scanAll := len(args) == 0

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Color("cyan")

		discoveryIdentifier := ""
		if !scanAll {
			discoveryIdentifier = args[0]
			statusColor.Printf("Checking status for %s...\n", identifierColor.Sprint(discoveryIdentifier))
			s.Suffix = fmt.Sprintf(" Discovering %s...", identifierColor.Sprint(discoveryIdentifier))
		} else {
			statusColor.Println("Discovering all projects and checking status...")
			s.Suffix = " Discovering projects..."
		}
		s.Start()

		projectsToProcess, collectedErrors := discoverTargetProjects(discoveryIdentifier, s)
		s.Stop()

		if len(collectedErrors) > 0 {
			logger.Error("\nErrors during project discovery:")
			for _, err := range collectedErrors {
				logger.Errorf("- %v", err)
			}
			if len(projectsToProcess) == 0 {
				os.Exit(1)
			}
			errorColor.Fprintln(os.Stderr, "Continuing with successfully discovered projects...")
		}

		if len(projectsToProcess) == 0 {
			if scanAll {
				fmt.Println("\nNo Django projects found locally or on configured remote hosts.")
			}
			if len(collectedErrors) == 0 {
				os.Exit(1)
			}
		}

		if len(projectsToProcess) > 0 {
			s.Suffix = " Checking migration status..."
			s.Start()

			statusChan := checkProjectStatuses(projectsToProcess)

			for statusInfo := range statusChan {
				s.Stop()

				fmt.Printf("\nProject: %s (%s) ", statusInfo.Project.Name, identifierColor.Sprint(statusInfo.Project.ServerName))
				switch statusInfo.OverallStatus {
				case runner.StatusCurrent:
					statusCurrentColor.Printf("[%s]\n", statusInfo.OverallStatus)
				case runner.StatusPending:
					statusPendingColor.Printf("[%s] (%d pending)\n", statusInfo.OverallStatus, statusInfo.PendingCount)
				case runner.StatusError:
					statusErrorColor.Printf("[%s]\n", statusInfo.OverallStatus)
					err := fmt.Errorf("status check for %s failed: %w", statusInfo.Project.Identifier(), statusInfo.Error)
					collectedErrors = append(collectedErrors, err)
					if statusInfo.Error != nil {
						logger.Errorf("  Error checking status: %v", statusInfo.Error)
					} else {
						logger.Error("  Unknown error checking status.")
					}
				default:
					fmt.Printf("[%s]\n", statusInfo.OverallStatus)
				}

				if statusInfo.OverallStatus == runner.StatusPending {
					fmt.Println("  Pending migrations:")
					fmt.Printf("    %-25s %s\n", "APP", "MIGRATION")
					fmt.Printf("    %-25s %s\n", strings.Repeat("-", 25), strings.Repeat("-", 9))
					for _, m := range statusInfo.Migrations {
						if !m.Applied {
							fmt.Printf("    %-25s %s\n", m.App, statusPendingColor.Sprint(m.Name))
						}
					}
				}
				s.Restart()
			}
			s.Stop()
		}

		if len(collectedErrors) > 0 {
			os.Exit(1)
		}
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean [host-identifier...]",
	Short: "Purge the pip download cache on specified hosts (local or remote)",
	Long: `Runs 'python -m pip cache purge' to reclaim disk space used by pip's download cache.
Targets can be 'local', specific remote host names, or left empty to target ALL configured hosts (local + remotes).`,
	Example: `  dm clean          # Clean local host AND all configured remote hosts
	 dm clean local       # Clean only the local host
	 dm clean server1     # Clean only the remote host 'server1'
	 dm clean local server1 server2 # Clean local, server1, and server2`,
	ValidArgsFunction: hostCompletionFunc,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			errorColor.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}

		targetsToClean := []runner.HostTarget{}
		targetMap := make(map[string]bool)

		if len(args) == 0 {
			statusColor.Println("Targeting local host and all configured remote hosts for cache purge...")
			targetsToClean = append(targetsToClean, runner.HostTarget{IsRemote: false, ServerName: "local"})
			targetMap["local"] = true
			for _, host := range cfg.SSHHosts {
				if !host.Disabled {
					targetsToClean = append(targetsToClean, runner.HostTarget{IsRemote: true, HostConfig: &host, ServerName: host.Name})
					targetMap[host.Name] = true
				}
			}
		} else {
			statusColor.Printf("Targeting specified hosts for cache purge: %s...\n", strings.Join(args, ", "))
			for _, targetName := range args {
				if targetMap[targetName] {
					continue
				}

				if targetName == "local" {
					targetsToClean = append(targetsToClean, runner.HostTarget{IsRemote: false, ServerName: "local"})
					targetMap["local"] = true
				} else {
					found := false
					for i := range cfg.SSHHosts {
						host := cfg.SSHHosts[i]
						if host.Name == targetName {
							if host.Disabled {
								errorColor.Fprintf(os.Stderr, "Warning: Skipping disabled host '%s'\n", targetName)
							} else {
								targetsToClean = append(targetsToClean, runner.HostTarget{IsRemote: true, HostConfig: &host, ServerName: host.Name})
								targetMap[host.Name] = true
							}
							found = true
							break
						}
					}
					if !found {
						errorColor.Fprintf(os.Stderr, "Error: Host identifier '%s' not found in configuration.\n", targetName)
						os.Exit(1)
					}
				}
			}
		}

		if len(targetsToClean) == 0 {
			errorColor.Fprintln(os.Stderr, "No valid targets specified or found for cache purge.")
			os.Exit(1)
		}

		err = runHostAction("clean", targetsToClean)
		if err != nil {
			logger.Errorf("\nCache purge failed for one or more hosts: %v", err)
			os.Exit(1)
		}

		successColor.Println("\nCache purge completed for all targeted hosts.")
	},
}
