package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/gymbuddy/internal/service"
	"github.com/sadopc/gymbuddy/internal/store"
)

// Global actions, available from every view while no form is open.

func drinkCmd(svc *service.Hydration) tea.Cmd {
	return func() tea.Msg {
		in, err := svc.Drink(0)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Log water: %v", err), isError: true}
		}
		return statusMsg{text: fmt.Sprintf("+%d ml logged", in.AmountMl)}
	}
}

func workoutCmd(svc *service.Hydration) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.LogWorkout()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Log workout: %v", err), isError: true}
		}
		switch {
		case !res.Logged:
			return statusMsg{text: "Workout already logged today"}
		case res.LevelUp:
			return statusMsg{text: fmt.Sprintf("Level up! You reached level %d", res.Profile.Level)}
		default:
			return statusMsg{text: fmt.Sprintf("Workout logged: +%d XP", res.XPGained)}
		}
	}
}

func testNotificationCmd(svc *service.Hydration) tea.Cmd {
	return func() tea.Msg {
		if err := svc.TestNotification(0); err != nil {
			return statusMsg{text: fmt.Sprintf("Test notification: %v", err), isError: true}
		}
		return statusMsg{text: fmt.Sprintf("Test notification in %s", service.TestNotificationDelay)}
	}
}

func replanCmd(svc *service.Hydration, prefix string) tea.Cmd {
	return func() tea.Msg {
		report, err := svc.Replan(context.Background())
		if errors.Is(err, store.ErrNotFound) {
			return statusMsg{text: "No profile yet: fill it in on the Profile tab", isError: true}
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Replan: %v", err), isError: true}
		}
		return replannedMsg{report: report, prefix: prefix}
	}
}

func cancelRemindersCmd(svc *service.Hydration) tea.Cmd {
	return func() tea.Msg {
		if err := svc.Logout(context.Background()); err != nil {
			return statusMsg{text: fmt.Sprintf("Cancel reminders: %v", err), isError: true}
		}
		return statusMsg{text: "All hydration reminders cancelled"}
	}
}
