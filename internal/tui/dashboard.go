package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/gymbuddy/internal/fitness"
	"github.com/sadopc/gymbuddy/internal/hydration"
	"github.com/sadopc/gymbuddy/internal/service"
)

type dashboardModel struct {
	svc    *service.Hydration
	width  int
	height int

	today *service.Today
	err   error
	now   time.Time

	lastReminder   string
	lastReminderAt time.Time

	bar progress.Model
}

func newDashboardModel(svc *service.Hydration) dashboardModel {
	return dashboardModel{
		svc: svc,
		now: time.Now(),
		bar: progress.New(progress.WithGradient(string(colorSecondary), string(colorPrimary))),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.bar.Width = max(10, w-16)
}

type dashboardDataMsg struct {
	today *service.Today
	err   error
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		today, err := d.svc.Today()
		return dashboardDataMsg{today: today, err: err}
	}
}

// next is the upcoming hydration reminder, if any.
func (d dashboardModel) next() (time.Time, bool) {
	if d.today == nil || d.today.Next == nil {
		return time.Time{}, false
	}
	return d.today.Next.FireAt, true
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.today = msg.today
		d.err = msg.err
		return d, nil

	case tickMsg:
		d.now = time.Time(msg)
		// The trigger fired while we were counting down.
		if at, ok := d.next(); ok && !d.now.Before(at.Add(time.Second)) {
			return d, d.loadData()
		}
		return d, nil

	case reminderMsg:
		d.lastReminder = msg.payload.Message
		d.lastReminderAt = time.Now()
		return d, d.loadData()
	}
	return d, nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	if d.err != nil {
		return panelStyle.Width(w).Render(errorStyle.Render("Error: " + d.err.Error()))
	}
	if d.today == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderWaterPanel(w),
		d.renderSchedulePanel(w),
		d.renderFitnessPanel(w),
	)
}

func (d dashboardModel) renderWaterPanel(w int) string {
	t := d.today
	if t.Profile == nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Water"),
			"",
			mutedStyle.Render("No profile yet. Press 2 and enter to set your weight and active hours."),
		)
		return panelStyle.Width(w).Render(content)
	}

	goal := t.Plan.Goal
	target := targetStyle.Width(w - 6).Render(fmt.Sprintf("%s / %s", formatMl(t.IntakeMl), formatMl(goal.DailyTargetMl)))

	pct := 0.0
	if goal.DailyTargetMl > 0 {
		pct = min(1, float64(t.IntakeMl)/float64(goal.DailyTargetMl))
	}
	bar := d.bar.ViewAs(pct)

	var detail string
	if t.Planned {
		detail = mutedStyle.Render(fmt.Sprintf("%d × %d ml every %d min, %s-%s",
			len(t.Plan.Servings), goal.ServingMl, t.Plan.IntervalMinutes,
			hydration.FormatClock(t.Plan.Window.StartMinute), hydration.FormatClock(t.Plan.Window.EndMinute)))
	} else {
		detail = warningStyle.Render("Nothing to schedule: check your weight and active hours")
	}

	content := lipgloss.JoinVertical(lipgloss.Center, target, bar, detail)
	if pct >= 1 {
		return activePanelStyle.Width(w).Render(content)
	}
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderSchedulePanel(w int) string {
	t := d.today
	title := titleStyle.Render("Reminders")

	var rows []string
	if at, ok := d.next(); ok {
		rows = append(rows, fmt.Sprintf("%s  %s  %s",
			title,
			highlightStyle.Render("next "+at.Local().Format("15:04")),
			countdownStyle.Render(formatCountdown(at.Sub(d.now))),
		))
	} else {
		rows = append(rows, fmt.Sprintf("%s  %s", title, mutedStyle.Render("none pending")))
	}

	if t.Planned {
		armed := make(map[int]bool, len(t.Pending))
		for _, row := range t.Pending {
			armed[row.Slot] = true
		}
		nowMinute := d.now.Hour()*60 + d.now.Minute()

		var cells []string
		for _, s := range t.Plan.Servings {
			switch {
			case armed[s.Index]:
				cells = append(cells, highlightStyle.Render("● "+s.Clock()))
			case s.MinuteOfDay <= nowMinute:
				cells = append(cells, mutedStyle.Render("✓ "+s.Clock()))
			default:
				cells = append(cells, errorStyle.Render("✗ "+s.Clock()))
			}
		}
		rows = append(rows, wrapCells(cells, w-6)...)
	}

	if d.lastReminder != "" {
		rows = append(rows, "", accentStyle.Render(fmt.Sprintf("%s  %s", d.lastReminderAt.Format("15:04"), d.lastReminder)))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderFitnessPanel(w int) string {
	t := d.today
	title := titleStyle.Render("Training")
	if t.Profile == nil {
		return panelStyle.Width(w).Render(title)
	}

	p := t.Profile
	need := fitness.XPForNextLevel(p.Level)
	level := fmt.Sprintf("Level %d  %s", p.Level, mutedStyle.Render(fmt.Sprintf("%d/%d XP", p.XP, need)))

	streak := fmt.Sprintf("Streak %s", highlightStyle.Render(fmt.Sprintf("%d days", t.Progress.Streak)))
	week := fmt.Sprintf("This week %d/%d", t.Progress.WeekCount, t.Progress.WeeklyGoal)
	if t.Progress.WeeklyGoal > 0 && t.Progress.WeekCount >= t.Progress.WeeklyGoal {
		week = successStyle.Render(week + " ✓")
	}

	var bmi string
	if b := fitness.BMI(p.WeightKg, p.HeightCm); b > 0 {
		class := fitness.ClassifyBMI(b)
		bmi = fmt.Sprintf("BMI %.1f %s", b, bmiStyle(class).Render(string(class)))
	}

	rows := []string{title, "", level, streak, week}
	if bmi != "" {
		rows = append(rows, bmi)
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// wrapCells lays cells out in lines no wider than w.
func wrapCells(cells []string, w int) []string {
	var lines []string
	var line string
	for _, c := range cells {
		if line != "" && lipgloss.Width(line)+2+lipgloss.Width(c) > w {
			lines = append(lines, line)
			line = ""
		}
		if line != "" {
			line += "  "
		}
		line += c
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
