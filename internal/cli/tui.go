package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sadopc/gymbuddy/internal/config"
	"github.com/sadopc/gymbuddy/internal/notify"
	"github.com/sadopc/gymbuddy/internal/reminder"
	"github.com/sadopc/gymbuddy/internal/store"
	"github.com/sadopc/gymbuddy/internal/tui"
)

// runTUI opens the dashboard. Reminders firing while it runs are posted, kept
// as history and shown in the footer.
func (c *CLI) runTUI(ctx context.Context) error {
	var forwarder tui.Forwarder
	rt, err := c.open(setup{
		restore: true,
		dispatcher: func(cfg *config.Config, st *store.Store, logger *zap.SugaredLogger) reminder.Dispatcher {
			return notify.Multi{notifierFor(cfg, st, logger), forwarder.Dispatcher()}
		},
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := rt.svc.Start(ctx); err != nil {
		return err
	}
	if _, err := rt.svc.Replan(ctx); err != nil && !errors.Is(err, store.ErrNotFound) {
		rt.logger.Warnf("tui: initial replan: %v", err)
	}

	p := tea.NewProgram(tui.NewApp(rt.store, rt.svc), tea.WithAltScreen(), tea.WithContext(ctx))
	forwarder.Attach(p)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
