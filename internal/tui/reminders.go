package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/gymbuddy/internal/reminder"
	"github.com/sadopc/gymbuddy/internal/service"
	"github.com/sadopc/gymbuddy/internal/store"
)

const historyLimit = 50

type remindersModel struct {
	store  *store.Store
	svc    *service.Hydration
	width  int
	height int

	pending    []store.TriggerRow
	deliveries []store.Delivery
	allowed    bool
	now        time.Time

	history table.Model
}

func newRemindersModel(s *store.Store, svc *service.Hydration) remindersModel {
	t := table.New(
		table.WithColumns(historyColumns(60)),
		table.WithHeight(8),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(colorMuted).BorderBottom(true).BorderForeground(colorSubtle)
	styles.Selected = styles.Selected.Foreground(colorPrimary).Bold(true)
	t.SetStyles(styles)

	return remindersModel{
		store:   s,
		svc:     svc,
		now:     time.Now(),
		allowed: true,
		history: t,
	}
}

func historyColumns(w int) []table.Column {
	msg := max(20, w-34)
	return []table.Column{
		{Title: "Delivered", Width: 16},
		{Title: "Slot", Width: 5},
		{Title: "Title", Width: 10},
		{Title: "Message", Width: msg},
	}
}

func (r *remindersModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.history.SetColumns(historyColumns(w - 10))
	r.history.SetHeight(max(4, h-18))
}

type remindersDataMsg struct {
	pending    []store.TriggerRow
	deliveries []store.Delivery
	allowed    bool
}

func (r remindersModel) refresh() tea.Cmd {
	return func() tea.Msg {
		deliveries, _ := r.store.ListDeliveries(r.svc.UserID(), historyLimit)
		return remindersDataMsg{
			pending:    r.svc.Pending(),
			deliveries: deliveries,
			allowed:    r.store.GetBool(store.SettingExactAlarms, true),
		}
	}
}

func (r remindersModel) update(msg tea.Msg) (remindersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case remindersDataMsg:
		r.pending = msg.pending
		r.deliveries = msg.deliveries
		r.allowed = msg.allowed
		r.history.SetRows(historyRows(r.deliveries))
		return r, nil

	case tickMsg:
		r.now = time.Time(msg)
		if len(r.pending) > 0 && !r.now.Before(r.pending[0].FireAt.Add(time.Second)) {
			return r, r.refresh()
		}
		return r, nil

	case reminderMsg:
		return r, r.refresh()

	case tea.KeyMsg:
		var cmd tea.Cmd
		r.history, cmd = r.history.Update(msg)
		return r, cmd
	}
	return r, nil
}

func historyRows(deliveries []store.Delivery) []table.Row {
	rows := make([]table.Row, 0, len(deliveries))
	for _, d := range deliveries {
		slot := "-"
		switch {
		case d.Slot == reminder.TestSlot:
			slot = "test"
		case d.Slot >= 0:
			slot = fmt.Sprintf("%d", d.Slot)
		}
		rows = append(rows, table.Row{
			d.DeliveredAt.Local().Format("01-02 15:04:05"),
			slot,
			strings.TrimSpace(strings.TrimSuffix(d.Title, "💧")),
			d.Message,
		})
	}
	return rows
}

func (r remindersModel) view() string {
	w := r.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		r.renderPending(w),
		r.renderHistory(w),
	)
}

func (r remindersModel) renderPending(w int) string {
	title := titleStyle.Render(fmt.Sprintf("Pending (%d)", len(r.pending)))

	var rows []string
	rows = append(rows, title)
	if !r.allowed {
		rows = append(rows, warningStyle.Render("Exact alarms are off: new reminders are refused. Enable them in Settings."))
	}

	if len(r.pending) == 0 {
		rows = append(rows, "", mutedStyle.Render("No reminders armed. Press r to replan or t for a test notification."))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-6s %-6s %-10s %s", "Slot", "At", "In", "Message")))
	visible := max(3, r.height/3)
	for i, t := range r.pending {
		if i >= visible {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  … %d more", len(r.pending)-visible)))
			break
		}
		slot := fmt.Sprintf("%d", t.Slot)
		if t.Slot == reminder.TestSlot {
			slot = "test"
		}
		style := normalItemStyle
		if i == 0 {
			style = selectedItemStyle
		}
		msg := reminder.Payload{Title: t.Title, Message: t.Message}.Resolve().Message
		rows = append(rows, style.Render(fmt.Sprintf("  %-6s %-6s ", slot, t.FireAt.Local().Format("15:04")))+
			countdownStyle.Render(fmt.Sprintf("%-10s", formatCountdown(t.FireAt.Sub(r.now))))+
			" "+mutedStyle.Render(msg))
	}

	rows = append(rows, "", mutedStyle.Render("  r: replan  x: cancel all  t: test notification"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (r remindersModel) renderHistory(w int) string {
	title := titleStyle.Render("Delivered")
	if len(r.deliveries) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("Nothing delivered yet"),
		))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, r.history.View()))
}
