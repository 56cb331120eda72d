package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/gymbuddy/internal/reminder"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewProfile
	viewReminders
	viewReports
	viewSettings
)

var viewNames = []string{"Today", "Profile", "Reminders", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// reminderMsg is sent into the program when a trigger fires.
type reminderMsg struct {
	payload reminder.Payload
	slot    int
}

// replannedMsg reports the outcome of any action that re-arranged triggers.
type replannedMsg struct {
	report reminder.Report
	prefix string
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

// formatCountdown renders time left until a trigger, "now" once due.
func formatCountdown(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func formatMl(ml int) string {
	if ml >= 1000 {
		return fmt.Sprintf("%.2f L", float64(ml)/1000)
	}
	return fmt.Sprintf("%d ml", ml)
}

// describeReport summarizes an arrangement for the status line.
func describeReport(r reminder.Report) string {
	if len(r.Registered) == 0 && !r.Partial() {
		if len(r.Skipped) > 0 {
			return "No reminders left today"
		}
		return "No reminders scheduled"
	}
	parts := []string{fmt.Sprintf("%d reminders armed", len(r.Registered))}
	if n := len(r.Denied); n > 0 {
		parts = append(parts, fmt.Sprintf("%d denied (exact alarms off)", n))
	}
	if n := len(r.Failed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	return strings.Join(parts, ", ")
}
