// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"deploy-manager/internal/util"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gossh "golang.org/x/crypto/ssh"
)

// quoteArg, quoteArgs and quoteEnv are thin aliases kept local to the package
// so command assembly reads naturally.
func quoteArg(arg string) string { return util.QuoteArgForShell(arg) }

func quoteArgs(args []string) []string {
	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		quoted = append(quoted, util.QuoteArgForShell(arg))
	}
	return quoted
}

func quoteEnv(name, value string) string { return util.QuoteEnvForShell(name, value) }

// runSSHCommand executes a prepared shell line remotely via SSH.
// If cliMode is true, output goes directly to os.Stdout/Stderr.
// If cliMode is false, output is streamed in chunks over outChan.
// A failure (session error or non-zero exit) is reported once on errChan.
func runSSHCommand(
	hostConfig config.SSHHost,
	remoteCmdString string,
	cmdDesc string,
	cliMode bool,
	outChan chan<- OutputLine,
	errChan chan<- error,
) {
	if sshManager == nil {
		errChan <- fmt.Errorf("ssh manager not initialized for %s", cmdDesc)
		return
	}

	client, err := sshManager.GetClient(hostConfig)
	if err != nil {
		errChan <- fmt.Errorf("failed to get ssh client for %s: %w", cmdDesc, err)
		return
	}

	session, err := client.NewSession()
	if err != nil {
		errChan <- fmt.Errorf("failed to create ssh session for %s: %w", cmdDesc, err)
		return
	}
	defer session.Close()

	stdoutPipe, err := session.StdoutPipe()
	if err != nil {
		errChan <- fmt.Errorf("failed to get ssh stdout pipe for %s: %w", cmdDesc, err)
		return
	}
	stderrPipe, err := session.StderrPipe()
	if err != nil {
		errChan <- fmt.Errorf("failed to get ssh stderr pipe for %s: %w", cmdDesc, err)
		return
	}

	// Request a PTY in CLI mode so management commands emit progress and
	// color the way they would in an interactive shell.
	if cliMode {
		modes := gossh.TerminalModes{
			gossh.ECHO:          0,     // Disable echoing input
			gossh.TTY_OP_ISPEED: 14400, // Input speed = 14.4kbaud
			gossh.TTY_OP_OSPEED: 14400, // Output speed = 14.4kbaud
		}
		if err := session.RequestPty("xterm-256color", 80, 40, modes); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to request pty for %s (continuing): %v\n", cmdDesc, err)
		}
	}

	if err := session.Start(remoteCmdString); err != nil {
		errChan <- fmt.Errorf("failed to start remote command for %s: %w", cmdDesc, err)
		return
	}

	var cmdErr error
	if cliMode {
		// io.Copy pipes remote output straight through, which keeps TTY
		// behavior (colors, \r) intact.
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			_, _ = io.Copy(os.Stdout, stdoutPipe)
		}()
		go func() {
			defer wg.Done()
			_, _ = io.Copy(os.Stderr, stderrPipe)
		}()

		cmdErr = session.Wait()
		wg.Wait()
	} else {
		outputDone := make(chan struct{}, 2)

		go streamPipe(stdoutPipe, outChan, outputDone, false)
		go streamPipe(stderrPipe, outChan, outputDone, true)

		cmdErr = session.Wait()

		// Wait for pipe readers to finish *after* command Wait returns
		<-outputDone
		<-outputDone
	}

	if cmdErr != nil {
		exitCode := -1
		if exitErr, ok := cmdErr.(*gossh.ExitError); ok {
			exitCode = exitErr.ExitStatus()
		}
		if exitCode != -1 {
			errChan <- fmt.Errorf("%s exited with status %d: %w", cmdDesc, exitCode, cmdErr)
		} else {
			errChan <- fmt.Errorf("%s failed: %w", cmdDesc, cmdErr)
		}
		return
	}
}

// runSSHStatusCheck executes a management command remotely and returns the
// combined output. Suitable only for short commands like showmigrations.
func runSSHStatusCheck(project discovery.Project, manageArgs []string, cmdDesc string) ([]byte, error) {
	if sshManager == nil {
		return nil, fmt.Errorf("ssh manager not initialized for %s", cmdDesc)
	}
	if project.HostConfig == nil {
		return nil, fmt.Errorf("internal error: HostConfig is nil for %s", cmdDesc)
	}

	client, clientErr := sshManager.GetClient(*project.HostConfig)
	if clientErr != nil {
		return nil, fmt.Errorf("failed to get ssh client for %s: %w", cmdDesc, clientErr)
	}

	session, sessionErr := client.NewSession()
	if sessionErr != nil {
		return nil, fmt.Errorf("failed to create ssh session for %s: %w", cmdDesc, sessionErr)
	}
	defer session.Close()

	if project.AbsoluteRemoteRoot == "" {
		return nil, fmt.Errorf("internal error: AbsoluteRemoteRoot is empty for remote project %s", project.Identifier())
	}
	remotePath := filepath.Join(project.AbsoluteRemoteRoot, project.Path)

	parts := []string{"cd", quoteArg(remotePath), "&&"}
	if settingsModule != "" {
		parts = append(parts, quoteEnv(EnvSettingsModule, settingsModule))
	}
	parts = append(parts, pythonInterpreter)
	parts = append(parts, quoteArgs(manageArgs)...)
	remoteCmdString := strings.Join(parts, " ")

	output, err := session.CombinedOutput(remoteCmdString)
	if err != nil {
		return output, fmt.Errorf("remote command failed for %s: %w\nOutput: %s", cmdDesc, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}
