package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/gymbuddy/internal/service"
	"github.com/sadopc/gymbuddy/internal/store"
)

var settingLabels = map[string]string{
	store.SettingExactAlarms: "Exact alarms",
	store.SettingDailyReplan: "Replan at midnight",
	store.SettingWeekStart:   "Week starts on",
}

type settingsModel struct {
	store  *store.Store
	svc    *service.Hydration
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	exactAlarms *bool
	dailyReplan *bool
	weekStart   *string
}

func newSettingsModel(s *store.Store, svc *service.Hydration) settingsModel {
	exact, daily, ws := true, true, ""
	return settingsModel{
		store:       s,
		svc:         svc,
		exactAlarms: &exact,
		dailyReplan: &daily,
		weekStart:   &ws,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.exactAlarms = s.store.GetBool(store.SettingExactAlarms, true)
	*s.dailyReplan = s.store.GetBool(store.SettingDailyReplan, true)
	*s.weekStart = s.getVal(store.SettingWeekStart, "monday")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Allow exact alarms?").
				Description("When off, reminders cannot be scheduled.").
				Value(s.exactAlarms),
			huh.NewConfirm().Title("Replan every day at midnight?").
				Value(s.dailyReplan),
		).Title("Reminders"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Sunday", "sunday"),
				).Value(s.weekStart),
		).Title("Training"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.saveSettings()
	}

	return s, cmd
}

// saveSettings writes the form back. Toggling exact alarms replans so the
// armed set matches the new permission.
func (s settingsModel) saveSettings() tea.Cmd {
	before := s.store.GetBool(store.SettingExactAlarms, true)

	for _, err := range []error{
		s.store.SetBool(store.SettingExactAlarms, *s.exactAlarms),
		s.store.SetBool(store.SettingDailyReplan, *s.dailyReplan),
		s.store.SetSetting(store.SettingWeekStart, *s.weekStart),
	} {
		if err != nil {
			return tea.Batch(s.refresh(), func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Save settings: %v", err), isError: true}
			})
		}
	}

	if before != *s.exactAlarms {
		return tea.Sequence(s.refresh(), replanCmd(s.svc, "Settings saved"))
	}
	return tea.Batch(s.refresh(), func() tea.Msg { return statusMsg{text: "Settings saved"} })
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		name := setting.Key
		if l, ok := settingLabels[setting.Key]; ok {
			name = l
		}
		label := lipgloss.NewStyle().Width(24).Render(name)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingExactAlarms, store.SettingDailyReplan:
		switch v {
		case "1", "true":
			return "on"
		case "0", "false":
			return "off"
		}
	case store.SettingWeekStart:
		switch v {
		case "monday":
			return "Monday"
		case "sunday":
			return "Sunday"
		}
	}
	return v
}
