package tui

import "github.com/glassbox-io/glassbox/internal/wire"

// frameMsg delivers one decoded stream frame to the program.
type frameMsg struct {
	event *wire.Event
}

// turnDoneMsg signals that the current turn's stream has ended.
type turnDoneMsg struct {
	err error
}
