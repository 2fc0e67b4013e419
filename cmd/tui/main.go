// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"deploy-manager/internal/logger"
	"deploy-manager/internal/runner"
	"deploy-manager/internal/ssh"
	"deploy-manager/internal/ui"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// RunTUI initializes and runs the Bubble Tea TUI application.
func RunTUI() {
	// The TUI owns the terminal, so logs must go to the file only.
	logger.InitLogger(true)

	if err := config.EnsureConfigDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to ensure config directory: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	runner.InitConfig(cfg)

	sshManager := ssh.NewManager()
	defer sshManager.CloseAll()
	discovery.InitSSHManager(sshManager)
	runner.InitSSHManager(sshManager)

	m := ui.InitialModel()
	p := tea.NewProgram(&m, tea.WithAltScreen())
	ui.BubbleProgram = p
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}
}
