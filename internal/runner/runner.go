// SPDX-License-Identifier: Apache-2.0

// Package runner executes deploy sequences against discovered projects. A
// sequence is an ordered list of command steps (pip install, management
// commands) run strictly one after another; the first non-zero exit stops the
// sequence. Steps run locally or over SSH depending on where the project
// lives.
package runner

import (
	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"deploy-manager/internal/ssh"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

var sshManager *ssh.Manager

// InitSSHManager sets the package-level SSH manager instance.
func InitSSHManager(manager *ssh.Manager) {
	if sshManager != nil {
		return
	}
	sshManager = manager
}

// Package-level interpreter and settings module, set once from the loaded
// configuration before any sequence is built.
var (
	pythonInterpreter = config.DefaultPython
	settingsModule    string
)

// InitConfig applies the runner-relevant configuration. Must be called before
// building sequences; safe to call again (last write wins).
func InitConfig(cfg config.Config) {
	pythonInterpreter = cfg.PythonInterpreter()
	settingsModule = cfg.SettingsModule
}

// Environment variables consumed by non-interactive superuser creation.
const (
	EnvSuperuserUsername = "DJANGO_SUPERUSER_USERNAME"
	EnvSuperuserPassword = "DJANGO_SUPERUSER_PASSWORD"
	EnvSettingsModule    = "DJANGO_SETTINGS_MODULE"
)

// CommandStep is one external command run inside a project directory.
type CommandStep struct {
	Name    string
	Command string
	Args    []string

	// Env holds extra NAME=value pairs exported to the command.
	Env map[string]string

	// RequiredEnv lists variables that must be present in the local
	// environment before the step may run. Missing variables fail the step
	// without invoking the command, which in turn fails the sequence.
	RequiredEnv []string

	Project discovery.Project
}

type OutputLine struct {
	Line    string
	IsError bool // True if the line came from stderr
}

// HostTarget defines the target for a host-level command (local or a specific remote).
type HostTarget struct {
	IsRemote   bool
	HostConfig *config.SSHHost // Only set if IsRemote is true
	ServerName string          // "local" or the remote server name
}

// HostCommandStep defines a command run on a host, not within a project directory.
type HostCommandStep struct {
	Name    string
	Command string
	Args    []string
	Target  HostTarget
}

// missingEnv returns the required variables absent from the local environment.
func missingEnv(required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := os.LookupEnv(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// stepEnv merges the configured settings module, the step's own Env, and the
// local values of its RequiredEnv into one map.
func stepEnv(step CommandStep) map[string]string {
	env := make(map[string]string)
	if settingsModule != "" {
		env[EnvSettingsModule] = settingsModule
	}
	for name, value := range step.Env {
		env[name] = value
	}
	for _, name := range step.RequiredEnv {
		if value, ok := os.LookupEnv(name); ok {
			env[name] = value
		}
	}
	return env
}

// sortedEnvNames gives a deterministic ordering for rendered env assignments.
func sortedEnvNames(env map[string]string) []string {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunHostCommand executes a command directly on a target host (local or remote).
// If cliMode is true, output goes directly to os.Stdout/Stderr.
// If cliMode is false, output is streamed in chunks over the returned channel.
// The error channel receives exactly one value: the step result.
func RunHostCommand(step HostCommandStep, cliMode bool) (<-chan OutputLine, <-chan error) {
	// Buffer slightly for TUI mode to prevent blocking on rapid output
	outChan := make(chan OutputLine, 10)
	errChan := make(chan error, 1)

	go func() {
		defer close(outChan)
		defer close(errChan)

		cmdDesc := fmt.Sprintf("step '%s' for host %s", step.Name, step.Target.ServerName)

		if step.Target.IsRemote {
			if step.Target.HostConfig == nil {
				errChan <- fmt.Errorf("internal error: HostConfig is nil for remote host %s", step.Target.ServerName)
				return
			}

			remoteCmdParts := []string{step.Command}
			remoteCmdParts = append(remoteCmdParts, quoteArgs(step.Args)...)
			remoteCmdString := strings.Join(remoteCmdParts, " ")

			runSSHCommand(*step.Target.HostConfig, remoteCmdString, cmdDesc, cliMode, outChan, errChan)
			return
		}

		cmd := exec.Command(step.Command, step.Args...)
		// cmd.Dir stays unset for host commands; they run in the default working directory
		runLocalCommand(cmd, fmt.Sprintf("local %s", cmdDesc), cliMode, outChan, errChan)
	}()

	return outChan, errChan
}

// streamPipe reads raw chunks from the pipe and sends them over the outChan.
// Used for TUI mode where raw output (including control characters) is needed.
func streamPipe(pipe io.Reader, outChan chan<- OutputLine, doneChan chan<- struct{}, isError bool) {
	defer func() { doneChan <- struct{}{} }()
	buf := make([]byte, 1024)
	for {
		n, err := pipe.Read(buf)
		if n > 0 {
			outChan <- OutputLine{Line: string(buf[:n]), IsError: isError}
		}
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "Pipe read error (%v): %v\n", isError, err)
			}
			break
		}
	}
}

// StreamCommand executes one step within its project's directory.
// If cliMode is true, output goes directly to os.Stdout/Stderr.
// If cliMode is false, output is streamed in chunks over the returned channel.
// The error channel receives exactly one value: the step result.
func StreamCommand(step CommandStep, cliMode bool) (<-chan OutputLine, <-chan error) {
	// Buffer slightly for TUI mode to prevent blocking on rapid output
	outChan := make(chan OutputLine, 10)
	errChan := make(chan error, 1)

	go func() {
		defer close(outChan)
		defer close(errChan)

		cmdDesc := fmt.Sprintf("step '%s' for project %s", step.Name, step.Project.Identifier())

		// The required-environment contract is checked against the local
		// environment before anything runs, locally and remotely alike.
		if missing := missingEnv(step.RequiredEnv); len(missing) > 0 {
			errChan <- fmt.Errorf("%s requires environment variables: %s", cmdDesc, strings.Join(missing, ", "))
			return
		}

		env := stepEnv(step)

		if step.Project.IsRemote {
			if step.Project.HostConfig == nil {
				errChan <- fmt.Errorf("internal error: HostConfig is nil for remote project %s", step.Project.Identifier())
				return
			}
			if step.Project.AbsoluteRemoteRoot == "" {
				errChan <- fmt.Errorf("internal error: AbsoluteRemoteRoot is empty for remote project %s", step.Project.Identifier())
				return
			}

			remoteCmdString := buildRemoteStepCommand(step, env)
			runSSHCommand(*step.Project.HostConfig, remoteCmdString, cmdDesc, cliMode, outChan, errChan)
			return
		}

		cmd := exec.Command(step.Command, step.Args...)
		cmd.Dir = step.Project.Path // Run in the project's directory
		if len(env) > 0 {
			cmd.Env = os.Environ()
			for _, name := range sortedEnvNames(env) {
				cmd.Env = append(cmd.Env, name+"="+env[name])
			}
		}
		runLocalCommand(cmd, fmt.Sprintf("local %s", cmdDesc), cliMode, outChan, errChan)
	}()

	return outChan, errChan
}

// manageArgs prefixes a management subcommand with the manage.py entry point.
func manageArgs(subcommand string, extra ...string) []string {
	args := []string{"manage.py", subcommand}
	return append(args, extra...)
}

// DeploySequence is the full pipeline: install dependencies, collect static
// assets, apply migrations, create the superuser. Install must come first and
// migrations must precede superuser creation so the auth tables exist.
func DeploySequence(project discovery.Project) []CommandStep {
	steps := InstallSequence(project)
	steps = append(steps, CollectStaticSequence(project)...)
	steps = append(steps, MigrateSequence(project)...)
	steps = append(steps, SuperuserSequence(project)...)
	return steps
}

// InstallSequence installs the project's dependency manifest with pip.
func InstallSequence(project discovery.Project) []CommandStep {
	return []CommandStep{
		{
			Name:    "Install Dependencies",
			Command: pythonInterpreter,
			Args:    []string{"-m", "pip", "install", "-r", "requirements.txt"},
			Project: project,
		},
	}
}

// CollectStaticSequence gathers static assets without prompting.
func CollectStaticSequence(project discovery.Project) []CommandStep {
	return []CommandStep{
		{
			Name:    "Collect Static Files",
			Command: pythonInterpreter,
			Args:    manageArgs("collectstatic", "--noinput"),
			Project: project,
		},
	}
}

// MigrateSequence applies pending database migrations.
func MigrateSequence(project discovery.Project) []CommandStep {
	return []CommandStep{
		{
			Name:    "Apply Migrations",
			Command: pythonInterpreter,
			Args:    manageArgs("migrate", "--noinput"),
			Project: project,
		},
	}
}

// SuperuserSequence creates the admin account non-interactively. The
// credential variables must be present in the environment or the step fails
// before the management command runs.
func SuperuserSequence(project discovery.Project) []CommandStep {
	return []CommandStep{
		{
			Name:        "Create Superuser",
			Command:     pythonInterpreter,
			Args:        manageArgs("createsuperuser", "--noinput"),
			RequiredEnv: []string{EnvSuperuserUsername, EnvSuperuserPassword},
			Project:     project,
		},
	}
}

// CleanCacheStep creates a host-level step that purges the pip download cache.
func CleanCacheStep(target HostTarget) HostCommandStep {
	return HostCommandStep{
		Name:    "Purge Pip Cache",
		Command: pythonInterpreter,
		Args:    []string{"-m", "pip", "cache", "purge"},
		Target:  target,
	}
}

// ProjectStatus summarizes a project's migration state.
type ProjectStatus string

const (
	StatusCurrent ProjectStatus = "CURRENT"
	StatusPending ProjectStatus = "PENDING"
	StatusError   ProjectStatus = "ERROR"
	StatusUnknown ProjectStatus = "UNKNOWN"
)

// MigrationState is one migration as reported by showmigrations.
type MigrationState struct {
	App     string `json:"app"`
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
}

// ProjectRuntimeInfo holds the status information for a project.
type ProjectRuntimeInfo struct {
	Project       discovery.Project
	OverallStatus ProjectStatus
	Migrations    []MigrationState
	PendingCount  int
	Error         error
}

// GetProjectStatus runs showmigrations for a project and classifies the
// result: CURRENT when every migration is applied, PENDING when any is not,
// ERROR when the command itself fails.
func GetProjectStatus(project discovery.Project) ProjectRuntimeInfo {
	info := ProjectRuntimeInfo{Project: project, OverallStatus: StatusUnknown}
	cmdDesc := fmt.Sprintf("status check for project %s", project.Identifier())
	showArgs := manageArgs("showmigrations", "--no-color")

	var output []byte
	var err error

	if project.IsRemote {
		output, err = runSSHStatusCheck(project, showArgs, cmdDesc)
		if err != nil {
			info.OverallStatus = StatusError
			info.Error = err
			return info
		}
	} else {
		cmd := exec.Command(pythonInterpreter, showArgs...)
		cmd.Dir = project.Path
		if settingsModule != "" {
			cmd.Env = append(os.Environ(), EnvSettingsModule+"="+settingsModule)
		}
		output, err = cmd.CombinedOutput()
		if err != nil {
			info.OverallStatus = StatusError
			info.Error = fmt.Errorf("failed to run %s: %w\nOutput: %s", cmdDesc, err, strings.TrimSpace(string(output)))
			return info
		}
	}

	migrations := parseShowMigrations(output)
	info.Migrations = migrations

	pending := 0
	for _, m := range migrations {
		if !m.Applied {
			pending++
		}
	}
	info.PendingCount = pending

	if pending > 0 {
		info.OverallStatus = StatusPending
	} else {
		info.OverallStatus = StatusCurrent
	}
	return info
}

// parseShowMigrations reads showmigrations output. App labels appear
// unindented; migrations appear indented with an "[X]" (applied) or "[ ]"
// (pending) marker.
func parseShowMigrations(output []byte) []MigrationState {
	var migrations []MigrationState
	currentApp := ""

	for _, rawLine := range strings.Split(string(output), "\n") {
		line := strings.TrimRight(rawLine, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "[X]") || strings.HasPrefix(trimmed, "[x]"):
			migrations = append(migrations, MigrationState{
				App:     currentApp,
				Name:    strings.TrimSpace(trimmed[3:]),
				Applied: true,
			})
		case strings.HasPrefix(trimmed, "[ ]"):
			migrations = append(migrations, MigrationState{
				App:     currentApp,
				Name:    strings.TrimSpace(trimmed[3:]),
				Applied: false,
			})
		case strings.HasPrefix(trimmed, "(no migrations)"):
			// App without migrations; nothing to record.
		case !strings.HasPrefix(line, " "):
			currentApp = trimmed
		}
	}

	return migrations
}

// buildRemoteStepCommand renders a step as one shell line:
// cd <project dir> && NAME='value' ... command 'arg' ...
func buildRemoteStepCommand(step CommandStep, env map[string]string) string {
	remotePath := filepath.Join(step.Project.AbsoluteRemoteRoot, step.Project.Path)

	parts := []string{"cd", quoteArg(remotePath), "&&"}
	for _, name := range sortedEnvNames(env) {
		parts = append(parts, quoteEnv(name, env[name]))
	}
	parts = append(parts, step.Command)
	parts = append(parts, quoteArgs(step.Args)...)
	return strings.Join(parts, " ")
}
