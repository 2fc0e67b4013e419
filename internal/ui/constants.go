// SPDX-License-Identifier: Apache-2.0

package ui

// state represents the different views or modes of the TUI.
type state int

const (
	stateLoadingProjects state = iota
	stateProjectList
	stateRunningSequence
	stateSequenceError
	stateProjectDetails
	stateSshConfigList
	stateSshConfigRemoveConfirm
	stateSshConfigAddForm
	stateSshConfigImportSelect
	stateSshConfigImportDetails
	stateSshConfigEditForm
	stateCleanConfirm
	stateRunningHostAction
)

// Constants for SSH authentication methods.
const (
	authMethodKey = iota + 1
	authMethodAgent
	authMethodPassword
)

const (
	headerHeight              = 1 // Height reserved for the main title header (single line, JoinVertical adds newline).
	maxConcurrentStatusChecks = 4 // Limit concurrent migration status checks via SSH.
)
