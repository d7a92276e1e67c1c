package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the viewer's key bindings.
type keyMap struct {
	Send     key.Binding
	BrainLog key.Binding
	Aux      key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
	ClearLog key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	BrainLog: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "brain log"),
	),
	Aux: key.NewBinding(
		key.WithKeys("f2"),
		key.WithHelp("f2", "session"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("up", "pgup"),
		key.WithHelp("↑", "scroll"),
	),
	ScrollDn: key.NewBinding(
		key.WithKeys("down", "pgdown"),
		key.WithHelp("↓", "scroll"),
	),
	ClearLog: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear log"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("ctrl+c", "quit"),
	),
}
