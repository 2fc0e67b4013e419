// SPDX-License-Identifier: Apache-2.0

// This file defines the keyboard bindings for the TUI application.
// It maps keys to actions and provides descriptions for the help menu.

package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the application.
// These bindings are used throughout the TUI for navigation and actions.
type KeyMap struct {
	// Navigation keys
	Up     key.Binding // Move cursor up
	Down   key.Binding // Move cursor down
	Left   key.Binding // Move cursor left/previous screen
	Right  key.Binding // Move cursor right/next screen
	PgUp   key.Binding // Page up in lists
	PgDown key.Binding // Page down in lists
	Home   key.Binding // Jump to top of list
	End    key.Binding // Jump to bottom of list

	// General UI control
	Quit     key.Binding // Exit the application
	Enter    key.Binding // Confirm selection
	Esc      key.Binding // Cancel/go back
	Back     key.Binding // Go back to previous view
	Select   key.Binding // Select an item
	Tab      key.Binding // Next field in forms
	ShiftTab key.Binding // Previous field in forms
	Yes      key.Binding // Confirm in prompts
	No       key.Binding // Deny in prompts

	// Project deployment actions
	Config          key.Binding // Access configuration menu
	DeployAction    key.Binding // Run the full deploy sequence for the selected project
	InstallAction   key.Binding // Install requirements for the selected project
	StaticAction    key.Binding // Collect static files for the selected project
	MigrateAction   key.Binding // Apply migrations for the selected project
	SuperuserAction key.Binding // Create the admin user for the selected project

	// Host/SSH configuration actions
	Remove key.Binding // Remove an item (SSH host)
	Add    key.Binding // Add a new item (SSH host)
	Import key.Binding // Import from SSH config
	Edit   key.Binding // Edit an item (SSH host)

	// Misc actions
	ToggleDisabled key.Binding // Toggle disabled state for a host
	CleanAction    key.Binding // Purge the pip cache on a host
}

// DefaultKeyMap provides the default keybindings.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	PgUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "page up"),
	),
	PgDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("home"),
		key.WithHelp("home", "home"),
	),
	End: key.NewBinding(
		key.WithKeys("end"),
		key.WithHelp("end", "end"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select/confirm"),
	),
	Esc: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back/cancel"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "b"),
		key.WithHelp("esc/b", "back"),
	),
	Select: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle select"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev field"),
	),
	Yes: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "yes"),
	),
	No: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "no"),
	),

	Config: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "configure hosts"),
	),
	DeployAction: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "deploy project(s)"),
	),
	InstallAction: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "install requirements"),
	),
	StaticAction: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "collect static"),
	),
	MigrateAction: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "apply migrations"),
	),
	SuperuserAction: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "create superuser"),
	),

	Remove: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "remove host"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add host"),
	),
	Import: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "import from file"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit host"),
	),

	ToggleDisabled: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle disabled"),
	),
	CleanAction: key.NewBinding(
		key.WithKeys("P"),
		key.WithHelp("P", "purge pip cache"),
	),
}
