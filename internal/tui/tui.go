// Package tui implements the interactive live viewer for glassbox.
package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// programRef is a shared reference to the tea.Program for goroutine sends.
// It's set after tea.NewProgram but before p.Run().
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) Set(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *programRef) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Run launches the viewer against a daemon base URL.
func Run(baseURL string) error {
	ref := &programRef{}
	client := &streamClient{
		baseURL:    baseURL,
		distinctID: uuid.New().String(),
		ref:        ref,
	}

	p := tea.NewProgram(
		NewModel(client),
		tea.WithAltScreen(),
	)
	ref.Set(p)

	_, err := p.Run()
	return err
}
