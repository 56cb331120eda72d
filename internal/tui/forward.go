package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/gymbuddy/internal/reminder"
)

// Forwarder hands fired reminders to the running program. The service is
// built before the program exists, so the program is attached later.
type Forwarder struct {
	mu      sync.Mutex
	program *tea.Program
}

func (f *Forwarder) Attach(p *tea.Program) {
	f.mu.Lock()
	f.program = p
	f.mu.Unlock()
}

// Dispatcher returns the reminder.Dispatcher side of the forwarder. Reminders
// firing while no program is attached are dropped.
func (f *Forwarder) Dispatcher() reminder.Dispatcher {
	return reminder.DispatcherFunc(func(ctx context.Context, p reminder.Payload) error {
		f.mu.Lock()
		program := f.program
		f.mu.Unlock()
		if program == nil {
			return nil
		}
		slot, _ := reminder.SlotFrom(ctx)
		program.Send(reminderMsg{payload: p.Resolve(), slot: slot})
		return nil
	})
}
