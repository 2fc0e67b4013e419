// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"deploy-manager/internal/discovery"
	"deploy-manager/internal/logger"
	"deploy-manager/internal/runner"
	"fmt"
	"os"
	"sync"
)

// runProjectAction locates the target project and executes a predefined sequence of runner steps.
func runProjectAction(action string, args []string) {
	if len(args) != 1 {
		errorColor.Fprintf(os.Stderr, "Error: requires exactly one project identifier argument.\n")
		os.Exit(1)
	}
	projectIdentifier := args[0]

	statusColor.Printf("Locating project '%s'...\n", projectIdentifier)

	projectsToCheck, collectedErrors := discoverTargetProjects(projectIdentifier, nil)

	if len(collectedErrors) > 0 {
		errorColor.Fprintln(os.Stderr, "\nErrors during project discovery:")
		for _, err := range collectedErrors {
			errorColor.Fprintf(os.Stderr, "- %v\n", err)
		}
		os.Exit(1)
	}

	targetProject, err := findProjectByIdentifier(projectsToCheck, projectIdentifier)
	if err != nil {
		errorColor.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}

	statusColor.Printf("Executing '%s' action for project: %s (%s)\n", action, targetProject.Name, identifierColor.Sprint(targetProject.ServerName))

	var sequence []runner.CommandStep
	switch action {
	case "deploy":
		sequence = runner.DeploySequence(targetProject)
	case "install":
		sequence = runner.InstallSequence(targetProject)
	case "static":
		sequence = runner.CollectStaticSequence(targetProject)
	case "migrate":
		sequence = runner.MigrateSequence(targetProject)
	case "superuser":
		sequence = runner.SuperuserSequence(targetProject)
	default:
		errorColor.Fprintf(os.Stderr, "Internal Error: Invalid action '%s'\n", action)
		os.Exit(1)
	}

	err = runSequence(targetProject, sequence)
	if err != nil {
		logger.Errorf("\n'%s' action failed for %s (%s): %v", action, targetProject.Name, targetProject.ServerName, err)
		os.Exit(1)
	}
	successColor.Printf("'%s' action completed successfully for %s (%s).\n", action, targetProject.Name, identifierColor.Sprint(targetProject.ServerName))
}

// runSequence executes a series of command steps for a given project. Steps run
// strictly in order; the first failing step aborts the rest of the sequence.
func runSequence(project discovery.Project, sequence []runner.CommandStep) error {
	for _, step := range sequence {
		stepColor.Printf("\n--- Running Step: %s for %s (%s) ---\n", step.Name, project.Name, identifierColor.Sprint(project.ServerName))

		// CLI always uses cliMode: true for direct output
		outChan, errChan := runner.StreamCommand(step, true)

		var stepErr error
		var wg sync.WaitGroup

		if !step.Project.IsRemote {
			stepErr = <-errChan
			fmt.Println()
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for outputLine := range outChan {
					fmt.Fprint(os.Stdout, outputLine.Line)
				}
			}()

			stepErr = <-errChan
			wg.Wait()
			fmt.Println()
		}

		if stepErr != nil {
			return fmt.Errorf("step '%s' failed: %w", step.Name, stepErr)
		}
		successColor.Printf("--- Step '%s' completed successfully for %s (%s) ---\n", step.Name, project.Name, identifierColor.Sprint(project.ServerName))
	}
	return nil
}

// runHostAction executes a host-level action (like clean) on one or more targets.
func runHostAction(actionName string, targets []runner.HostTarget) error {
	var wg sync.WaitGroup
	errChan := make(chan error, len(targets))

	for _, target := range targets {
		wg.Add(1)
		go func(t runner.HostTarget) {
			defer wg.Done()

			var step runner.HostCommandStep
			switch actionName {
			case "clean":
				step = runner.CleanCacheStep(t)
			default:
				errChan <- fmt.Errorf("internal error: unknown host action '%s'", actionName)
				return
			}

			stepColor.Printf("\n--- Running Step: %s for host %s ---\n", step.Name, identifierColor.Sprint(t.ServerName))
			// CLI always uses cliMode: true for direct output
			outChan, stepErrChan := runner.RunHostCommand(step, true)

			var stepErr error
			var outputWg sync.WaitGroup

			if !t.IsRemote {
				stepErr = <-stepErrChan
				fmt.Println()
			} else {
				outputWg.Add(1)
				go func() {
					defer outputWg.Done()
					for outputLine := range outChan {
						fmt.Fprint(os.Stdout, outputLine.Line)
					}
				}()

				stepErr = <-stepErrChan
				outputWg.Wait()
				fmt.Println()
			}

			if stepErr != nil {
				err := fmt.Errorf("step '%s' failed for host %s", step.Name, t.ServerName)
				logger.Errorf("%v", err)
				errChan <- err
				return
			}
			successColor.Printf("--- Step '%s' completed successfully for host %s ---\n", step.Name, identifierColor.Sprint(t.ServerName))
		}(target)
	}

	wg.Wait()
	close(errChan)

	var collectedErrors []error
	for err := range errChan {
		collectedErrors = append(collectedErrors, err)
	}

	if len(collectedErrors) > 0 {
		return fmt.Errorf("%d host action(s) failed", len(collectedErrors))
	}

	return nil
}
