package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/gymbuddy/internal/hydration"
	"github.com/sadopc/gymbuddy/internal/service"
	"github.com/sadopc/gymbuddy/internal/store"
)

const reportDays = 7

type reportsModel struct {
	store  *store.Store
	svc    *service.Hydration
	width  int
	height int

	days     []store.DailyIntake
	targetMl int
	weights  []float64
	offset   int // 7-day blocks back from today (0 = current)

	chart barchart.Model
	trend sparkline.Model
}

func newReportsModel(s *store.Store, svc *service.Hydration) reportsModel {
	return reportsModel{
		store: s,
		svc:   svc,
		chart: barchart.New(60, 12),
		trend: sparkline.New(60, 4),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	days     []store.DailyIntake
	targetMl int
	weights  []float64
}

func (r reportsModel) refresh() tea.Cmd {
	userID := r.svc.UserID()
	return func() tea.Msg {
		from, to := r.dateRange(time.Now())
		days, _ := r.store.GetDailyIntake(userID, from, to)

		msg := reportsDataMsg{days: days}
		if p, err := r.store.GetProfile(userID); err == nil {
			msg.targetMl = hydration.NewGoal(p.WeightKg).DailyTargetMl
		}
		checkIns, _ := r.store.ListCheckIns(userID)
		for _, c := range checkIns {
			msg.weights = append(msg.weights, c.WeightKg)
		}
		return msg
	}
}

// dateRange is the local 7-day block ending today, shifted back by offset.
func (r reportsModel) dateRange(now time.Time) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := today.AddDate(0, 0, 1-reportDays*r.offset)
	return end.AddDate(0, 0, -reportDays), end
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.days = msg.days
		r.targetMl = msg.targetMl
		r.weights = msg.weights
		r.buildCharts()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r reportsModel) totalOn(date string) int {
	for _, d := range r.days {
		if d.Date == date {
			return d.TotalMl
		}
	}
	return 0
}

func (r *reportsModel) buildCharts() {
	chartWidth := max(20, r.width-8)
	chartHeight := 12
	if r.height > 34 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange(time.Now())
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		total := r.totalOn(d.Format("2006-01-02"))
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if r.targetMl > 0 && total >= r.targetMl {
			style = lipgloss.NewStyle().Foreground(colorSuccess)
		}
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{{
				Name:  "water",
				Value: float64(total),
				Style: style,
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()

	r.trend = sparkline.New(chartWidth, 4)
	r.trend.PushAll(r.weights)
	r.trend.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	from, to := r.dateRange(time.Now())
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Water"), "  ", dateLabel)
	if r.targetMl > 0 {
		header = lipgloss.JoinHorizontal(lipgloss.Bottom, header, "  ", mutedStyle.Render("target "+formatMl(r.targetMl)))
	}

	parts := []string{header, "", r.chart.View(), "", r.renderTable(w)}

	if len(r.weights) > 1 {
		first, last := r.weights[0], r.weights[len(r.weights)-1]
		trend := fmt.Sprintf("%.1f kg → %.1f kg (%+.1f)", first, last, last-first)
		parts = append(parts, "", titleStyle.Render("Weight")+"  "+mutedStyle.Render(trend), r.trend.View())
	}

	parts = append(parts, "", mutedStyle.Render("  ←/→: navigate weeks"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (r reportsModel) renderTable(w int) string {
	if len(r.days) == 0 {
		return mutedStyle.Render("  No water logged in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %10s %9s %8s", "Date", "Total", "Servings", "Target")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 42))))

	for _, d := range r.days {
		pct := "-"
		if r.targetMl > 0 {
			pct = fmt.Sprintf("%d%%", d.TotalMl*100/r.targetMl)
		}
		rows = append(rows, fmt.Sprintf("  %-12s %10s %9d %8s", d.Date, formatMl(d.TotalMl), d.Servings, pct))
	}
	return strings.Join(rows, "\n")
}
