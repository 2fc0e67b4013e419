// SPDX-License-Identifier: Apache-2.0

// Package ui implements the interactive terminal interface. The model follows
// the Elm architecture: a single state struct, messages that mutate it, and a
// View() derived from the current state.

package ui

import (
	"context"
	"deploy-manager/internal/config"
	"deploy-manager/internal/discovery"
	"deploy-manager/internal/runner"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/semaphore"
)

// BubbleProgram is set by the TUI entrypoint so that background goroutines
// (discovery, command streaming) can push messages into the update loop.
var BubbleProgram *tea.Program

// statusCheckSem bounds the number of migration status checks running at once.
// Remote checks open SSH sessions; hammering every host at startup is unkind.
var statusCheckSem = semaphore.NewWeighted(maxConcurrentStatusChecks)

type model struct {
	currentState state
	keymap       KeyMap

	// Window / layout
	width  int
	height int
	ready  bool // Viewports initialized after the first WindowSizeMsg

	// Viewports for scrollable regions
	viewport             viewport.Model // Project list and streaming command output
	sshConfigViewport    viewport.Model
	detailsViewport      viewport.Model
	formViewport         viewport.Model
	importSelectViewport viewport.Model

	// Project list
	projects            []discovery.Project
	cursor              int
	selectedProjectIdxs map[int]struct{}
	projectStatuses     map[string]runner.ProjectRuntimeInfo // Keyed by project identifier
	loadingStatus       map[string]bool                      // Identifier -> status fetch in flight
	isDiscovering       bool
	discoveryErrors     []error
	lastError           error

	// Details view
	detailedProject *discovery.Project

	// Running sequence
	currentSequence    []runner.CommandStep
	currentStepIndex   int
	sequenceProject    *discovery.Project    // Primary project for display purposes
	projectsInSequence []*discovery.Project  // All projects involved in the running sequence
	outputChan         <-chan runner.OutputLine
	errorChan          <-chan error
	outputContent      string

	// SSH host configuration
	configuredHosts []config.SSHHost
	configCursor    int // 0 is the "local" entry, remotes follow
	hostToRemove    *config.SSHHost
	hostToEdit      *config.SSHHost

	// Host-level actions (cache purge)
	hostsToClean          []runner.HostTarget
	currentHostActionStep runner.HostCommandStep
	hostActionError       error

	// Forms (add / edit / import details)
	formInputs     []textinput.Model
	formFocusIndex int
	formAuthMethod int
	formDisabled   bool
	formError      error

	// SSH config import
	importableHosts    []config.PotentialHost
	importCursor       int
	selectedImportIdxs map[int]struct{}
	configuringHostIdx int
	hostsToConfigure   []config.SSHHost
	importError        error
	importInfoMsg      string
}

func InitialModel() model {
	return model{
		currentState:        stateLoadingProjects,
		keymap:              DefaultKeyMap,
		selectedProjectIdxs: make(map[int]struct{}),
		projectStatuses:     make(map[string]runner.ProjectRuntimeInfo),
		loadingStatus:       make(map[string]bool),
		isDiscovering:       true,
		configuringHostIdx:  -1,
	}
}

func (m *model) Init() tea.Cmd {
	return findProjectsCmd()
}

// fetchProjectStatusCmd fetches the migration status for a project in the
// background, bounded by statusCheckSem.
func (m *model) fetchProjectStatusCmd(project discovery.Project) tea.Cmd {
	return func() tea.Msg {
		identifier := project.Identifier()
		if err := statusCheckSem.Acquire(context.Background(), 1); err != nil {
			return projectStatusLoadedMsg{
				projectIdentifier: identifier,
				statusInfo: runner.ProjectRuntimeInfo{
					Project:       project,
					OverallStatus: runner.StatusError,
					Error:         err,
				},
			}
		}
		defer statusCheckSem.Release(1)
		return projectStatusLoadedMsg{
			projectIdentifier: identifier,
			statusInfo:        runner.GetProjectStatus(project),
		}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		cmds = append(cmds, handleWindowSizeMsg(m, msg))

	case tea.KeyMsg:
		newCmds, quit := m.handleKeyMsg(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, newCmds...)

	case projectDiscoveredMsg:
		cmds = append(cmds, handleProjectDiscoveredMsg(m, msg))
	case discoveryErrorMsg:
		cmds = append(cmds, handleDiscoveryErrorMsg(m, msg))
	case discoveryFinishedMsg:
		cmds = append(cmds, handleDiscoveryFinishedMsg(m))
	case projectStatusLoadedMsg:
		cmds = append(cmds, handleProjectStatusLoadedMsg(m, msg))
	case sshConfigLoadedMsg:
		cmds = append(cmds, handleSshConfigLoadedMsg(m, msg))
	case sshConfigParsedMsg:
		cmds = append(cmds, handleSshConfigParsedMsg(m, msg))
	case sshHostsImportedMsg:
		cmds = append(cmds, handleSshHostsImportedMsg(m, msg))
	case sshHostAddedMsg:
		cmds = append(cmds, handleSshHostAddedMsg(m, msg))
	case sshHostEditedMsg:
		cmds = append(cmds, handleSshHostEditedMsg(m, msg))
	case channelsAvailableMsg:
		cmds = append(cmds, handleChannelsAvailableMsg(m, msg))
	case outputLineMsg:
		cmds = append(cmds, handleOutputLineMsg(m, msg))
	case stepFinishedMsg:
		cmds = append(cmds, handleStepFinishedMsg(m, msg))
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg routes a key press to the handler for the current state.
// The second return value reports whether the application should quit.
func (m *model) handleKeyMsg(msg tea.KeyMsg) ([]tea.Cmd, bool) {
	var cmds []tea.Cmd

	// Form states accept free text, so only ctrl+c quits there. Everywhere
	// else the regular quit binding applies.
	inForm := m.currentState == stateSshConfigAddForm ||
		m.currentState == stateSshConfigEditForm ||
		m.currentState == stateSshConfigImportDetails
	if msg.Type == tea.KeyCtrlC {
		return nil, true
	}
	if !inForm && key.Matches(msg, m.keymap.Quit) {
		return nil, true
	}

	switch m.currentState {
	case stateLoadingProjects:
		// Nothing to do but wait (or quit, handled above).

	case stateProjectList:
		if key.Matches(msg, m.keymap.Config) {
			m.currentState = stateSshConfigList
			m.configCursor = 0
			m.hostActionError = nil
			m.importError = nil
			m.importInfoMsg = ""
			m.sshConfigViewport.GotoTop()
			cmds = append(cmds, loadSshConfigCmd())
		} else {
			cmds = append(cmds, m.handleProjectListKeys(msg)...)
		}

	case stateRunningSequence, stateSequenceError:
		switch {
		case key.Matches(msg, m.keymap.Back), key.Matches(msg, m.keymap.Enter):
			// Leaving the output view is only sensible once the sequence is
			// no longer producing output (finished or failed).
			if m.currentState == stateSequenceError || m.currentStepIndex >= len(m.currentSequence) {
				m.currentState = stateProjectList
				m.currentSequence = nil
				m.currentStepIndex = 0
				m.sequenceProject = nil
				m.projectsInSequence = nil
				m.outputContent = ""
				m.lastError = nil
				m.viewport.GotoTop()
			}
		default:
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			cmds = append(cmds, vpCmd)
		}

	case stateProjectDetails:
		switch {
		case key.Matches(msg, m.keymap.Back), key.Matches(msg, m.keymap.Enter):
			m.currentState = stateProjectList
			m.detailedProject = nil
			m.projectsInSequence = nil
		default:
			var vpCmd tea.Cmd
			m.detailsViewport, vpCmd = m.detailsViewport.Update(msg)
			cmds = append(cmds, vpCmd)
		}

	case stateSshConfigList:
		cmds = append(cmds, m.handleSshConfigListKeys(msg)...)

	case stateSshConfigRemoveConfirm:
		switch {
		case key.Matches(msg, m.keymap.Yes):
			if m.hostToRemove != nil {
				cmds = append(cmds, removeSshHostCmd(*m.hostToRemove))
				// State transition happens in handleStepFinishedMsg.
			}
		case key.Matches(msg, m.keymap.No), key.Matches(msg, m.keymap.Back):
			m.hostToRemove = nil
			m.currentState = stateSshConfigList
		}

	case stateCleanConfirm:
		switch {
		case key.Matches(msg, m.keymap.Yes):
			if len(m.hostsToClean) > 0 {
				step := runner.CleanCacheStep(m.hostsToClean[0])
				m.currentHostActionStep = step
				m.hostActionError = nil
				m.outputContent = ""
				m.viewport.SetContent(m.outputContent)
				m.viewport.GotoTop()
				m.currentState = stateRunningHostAction
				cmds = append(cmds, runHostActionCmd(step))
			}
		case key.Matches(msg, m.keymap.No), key.Matches(msg, m.keymap.Back):
			m.hostsToClean = nil
			m.currentState = stateSshConfigList
		}

	case stateRunningHostAction:
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)

	case stateSshConfigImportSelect:
		cmds = append(cmds, m.handleImportSelectKeys(msg)...)

	case stateSshConfigAddForm:
		if key.Matches(msg, m.keymap.Esc) {
			m.currentState = stateSshConfigList
			m.formInputs = nil
			m.formError = nil
		} else {
			cmds = append(cmds, m.handleSshAddFormKeys(msg)...)
			cmds = append(cmds, m.updateFormInputs(msg)...)
		}

	case stateSshConfigEditForm:
		if key.Matches(msg, m.keymap.Esc) {
			m.currentState = stateSshConfigList
			m.formInputs = nil
			m.formError = nil
			m.hostToEdit = nil
		} else {
			cmds = append(cmds, m.handleSshEditFormKeys(msg)...)
			cmds = append(cmds, m.updateFormInputs(msg)...)
		}

	case stateSshConfigImportDetails:
		if key.Matches(msg, m.keymap.Esc) {
			// Cancel the whole import.
			m.currentState = stateSshConfigList
			m.formInputs = nil
			m.formError = nil
			m.importableHosts = nil
			m.selectedImportIdxs = nil
			m.hostsToConfigure = nil
			m.configuringHostIdx = -1
		} else {
			cmds = append(cmds, m.handleSshImportDetailsFormKeys(msg)...)
			cmds = append(cmds, m.updateFormInputs(msg)...)
		}
	}

	return cmds, false
}

// updateFormInputs forwards a message to every form input. Blurred inputs
// ignore key presses, so only the focused field actually consumes the text.
func (m *model) updateFormInputs(msg tea.Msg) []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.formInputs))
	for i := range m.formInputs {
		var cmd tea.Cmd
		m.formInputs[i], cmd = m.formInputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (m *model) handleSshConfigListKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmds []tea.Cmd
	totalItems := len(m.configuredHosts) + 1 // +1 for the "local" entry

	switch {
	case key.Matches(msg, m.keymap.Up):
		if m.configCursor > 0 {
			m.configCursor--
		}
		var vpCmd tea.Cmd
		m.sshConfigViewport, vpCmd = m.sshConfigViewport.Update(msg)
		cmds = append(cmds, vpCmd)
	case key.Matches(msg, m.keymap.Down):
		if m.configCursor < totalItems-1 {
			m.configCursor++
		}
		var vpCmd tea.Cmd
		m.sshConfigViewport, vpCmd = m.sshConfigViewport.Update(msg)
		cmds = append(cmds, vpCmd)
	case key.Matches(msg, m.keymap.Back):
		m.currentState = stateProjectList
		m.lastError = nil
		m.hostActionError = nil
		m.importError = nil
		m.importInfoMsg = ""
	case key.Matches(msg, m.keymap.Add):
		m.formInputs = createAddForm()
		m.formFocusIndex = 0
		m.formAuthMethod = authMethodKey
		m.formError = nil
		m.formViewport.GotoTop()
		m.currentState = stateSshConfigAddForm
	case key.Matches(msg, m.keymap.Import):
		m.importError = nil
		m.importInfoMsg = ""
		cmds = append(cmds, parseSshConfigCmd())
	case key.Matches(msg, m.keymap.Edit):
		if m.configCursor > 0 && m.configCursor-1 < len(m.configuredHosts) {
			host := m.configuredHosts[m.configCursor-1] // Copy
			m.hostToEdit = &host
			m.formInputs, m.formAuthMethod, m.formDisabled = createEditForm(host)
			m.formFocusIndex = 0
			m.formError = nil
			m.formViewport.GotoTop()
			m.currentState = stateSshConfigEditForm
		}
	case key.Matches(msg, m.keymap.Remove):
		if m.configCursor > 0 && m.configCursor-1 < len(m.configuredHosts) {
			host := m.configuredHosts[m.configCursor-1] // Copy
			m.hostToRemove = &host
			m.currentState = stateSshConfigRemoveConfirm
		}
	case key.Matches(msg, m.keymap.CleanAction):
		if m.configCursor == 0 {
			m.hostsToClean = []runner.HostTarget{{IsRemote: false, ServerName: "local"}}
			m.currentState = stateCleanConfirm
		} else if m.configCursor-1 < len(m.configuredHosts) {
			host := m.configuredHosts[m.configCursor-1] // Copy
			if !host.Disabled {
				m.hostsToClean = []runner.HostTarget{{IsRemote: true, HostConfig: &host, ServerName: host.Name}}
				m.currentState = stateCleanConfirm
			}
		}
	}

	return cmds
}

func (m *model) handleImportSelectKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmds []tea.Cmd

	switch {
	case key.Matches(msg, m.keymap.Up):
		if m.importCursor > 0 {
			m.importCursor--
		}
		var vpCmd tea.Cmd
		m.importSelectViewport, vpCmd = m.importSelectViewport.Update(msg)
		cmds = append(cmds, vpCmd)
	case key.Matches(msg, m.keymap.Down):
		if m.importCursor < len(m.importableHosts)-1 {
			m.importCursor++
		}
		var vpCmd tea.Cmd
		m.importSelectViewport, vpCmd = m.importSelectViewport.Update(msg)
		cmds = append(cmds, vpCmd)
	case key.Matches(msg, m.keymap.Select):
		if m.importCursor >= 0 && m.importCursor < len(m.importableHosts) {
			if _, ok := m.selectedImportIdxs[m.importCursor]; ok {
				delete(m.selectedImportIdxs, m.importCursor)
			} else {
				m.selectedImportIdxs[m.importCursor] = struct{}{}
			}
		}
	case key.Matches(msg, m.keymap.Back):
		m.currentState = stateSshConfigList
		m.importableHosts = nil
		m.selectedImportIdxs = nil
	case key.Matches(msg, m.keymap.Enter):
		if len(m.selectedImportIdxs) == 0 {
			return cmds
		}
		// Start configuring the first selected host.
		firstIdx := -1
		for i := range m.importableHosts {
			if _, ok := m.selectedImportIdxs[i]; ok {
				firstIdx = i
				break
			}
		}
		if firstIdx == -1 {
			return cmds
		}
		m.configuringHostIdx = firstIdx
		m.hostsToConfigure = nil
		m.formInputs, m.formAuthMethod = createImportDetailsForm(m.importableHosts[firstIdx])
		m.formFocusIndex = 0
		m.formError = nil
		m.formViewport.GotoTop()
		m.currentState = stateSshConfigImportDetails
	}

	return cmds
}

func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := titleStyle.Render("Deploy Manager")

	var body, footer string
	var vp *viewport.Model

	switch m.currentState {
	case stateLoadingProjects:
		body, footer = m.renderLoadingView()
	case stateProjectList:
		body, footer = m.renderProjectListView()
		vp = &m.viewport
	case stateRunningSequence:
		body, footer = m.renderRunningSequenceView()
		vp = &m.viewport
	case stateSequenceError:
		body, footer = m.renderSequenceErrorView()
		vp = &m.viewport
	case stateProjectDetails:
		body, footer = m.renderProjectDetailsView()
		vp = &m.detailsViewport
	case stateSshConfigList:
		body, footer = m.renderSshConfigListView()
		vp = &m.sshConfigViewport
	case stateSshConfigRemoveConfirm:
		body, footer = m.renderSshConfigRemoveConfirmView()
	case stateCleanConfirm:
		body, footer = m.renderCleanConfirmView()
	case stateRunningHostAction:
		body, footer = m.renderRunningHostActionView()
		vp = &m.viewport
	case stateSshConfigAddForm:
		body, footer = m.renderSshConfigAddFormView()
		vp = &m.formViewport
	case stateSshConfigEditForm:
		body, footer = m.renderSshConfigEditFormView()
		vp = &m.formViewport
	case stateSshConfigImportSelect:
		body, footer = m.renderSshConfigImportSelectView()
		vp = &m.importSelectViewport
	case stateSshConfigImportDetails:
		body, footer = m.renderSshConfigImportDetailsView()
		vp = &m.formViewport
	default:
		body = errorStyle.Render("Unknown state")
	}

	if footer != "" {
		footer = footerStyle.Width(max(0, m.width)).Render(footer)
	}
	footerHeight := lipgloss.Height(footer)

	if vp != nil {
		// Fit the viewport between the header and the footer. The border
		// adds two rows and two columns.
		vp.Width = max(0, m.width-2)
		vp.Height = max(1, m.height-headerHeight-footerHeight-2)
		vp.SetContent(body)
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			mainContentBorderStyle.Render(vp.View()),
			footer,
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
