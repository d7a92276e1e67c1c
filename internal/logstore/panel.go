package logstore

import "sync"

// PanelMode is the visibility state of the client's side panel. Modes are
// mutually exclusive.
type PanelMode string

// Panel modes.
const (
	PanelNone     PanelMode = "none"
	PanelBrainLog PanelMode = "brainlog"
	PanelAux      PanelMode = "aux"
)

// Panel is the side panel state machine. Presentation state only; it never
// touches the entry set.
type Panel struct {
	mu   sync.Mutex
	mode PanelMode
}

// NewPanel creates a closed panel.
func NewPanel() *Panel {
	return &Panel{mode: PanelNone}
}

// Mode returns the active mode.
func (p *Panel) Mode() PanelMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Toggle switches to mode, or back to none when mode is already active.
// Returns the resulting mode.
func (p *Panel) Toggle(mode PanelMode) PanelMode {
	p.mu.Lock()
	defer p.mu.Unlock()

	if mode == PanelNone || p.mode == mode {
		p.mode = PanelNone
	} else {
		p.mode = mode
	}
	return p.mode
}

// Close returns the panel to none.
func (p *Panel) Close() {
	p.mu.Lock()
	p.mode = PanelNone
	p.mu.Unlock()
}
