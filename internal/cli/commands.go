package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/gymbuddy/internal/config"
	"github.com/sadopc/gymbuddy/internal/export"
	"github.com/sadopc/gymbuddy/internal/fitness"
	"github.com/sadopc/gymbuddy/internal/hydration"
	"github.com/sadopc/gymbuddy/internal/notify"
	"github.com/sadopc/gymbuddy/internal/reminder"
	"github.com/sadopc/gymbuddy/internal/service"
	"github.com/sadopc/gymbuddy/internal/store"
)

// errNoProfile wraps store.ErrNotFound with a hint for the user.
func errNoProfile(userID string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no profile for %q, open the dashboard or run sync first: %w", userID, err)
	}
	return err
}

func newPlanCommand(c *CLI) *cobra.Command {
	var weight float64
	var start, end string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show today's serving times without scheduling them",
		Long: `Compute the daily water target and the serving times for a weight and an
active window. Missing flags fall back to the stored profile.

Example:
  gymbuddy plan --weight 70 --start 08:00 --end 22:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if weight <= 0 || start == "" || end == "" {
				rt, err := c.open(setup{})
				if err != nil {
					return err
				}
				defer rt.Close()
				p, err := rt.store.GetProfile(rt.cfg.UserID)
				if err != nil {
					return errNoProfile(rt.cfg.UserID, err)
				}
				if weight <= 0 {
					weight = p.WeightKg
				}
				if start == "" {
					start = p.ActiveStart
				}
				if end == "" {
					end = p.ActiveEnd
				}
			}
			plan, ok := hydration.PlanReminders(weight, start, end)
			printPlan(cmd.OutOrStdout(), plan, ok)
			return nil
		},
	}
	cmd.Flags().Float64Var(&weight, "weight", 0, "body weight in kg")
	cmd.Flags().StringVar(&start, "start", "", "active window start, HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "active window end, HH:MM")
	return cmd
}

func printPlan(w io.Writer, plan hydration.Plan, ok bool) {
	fmt.Fprintf(w, "Target: %d ml (%d servings of %d ml)\n",
		plan.Goal.DailyTargetMl, plan.Goal.Servings(), plan.Goal.ServingMl)
	if !ok {
		fmt.Fprintln(w, "Nothing to schedule: the window is empty or the target is under one serving.")
		return
	}
	fmt.Fprintf(w, "Window: %s-%s, every %d min\n",
		hydration.FormatClock(plan.Window.StartMinute), hydration.FormatClock(plan.Window.EndMinute), plan.IntervalMinutes)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Time", "Total")
	for _, s := range plan.Servings {
		t.Row(strconv.Itoa(s.Index+1), s.Clock(), fmt.Sprintf("%d ml", (s.Index+1)*plan.Goal.ServingMl))
	}
	fmt.Fprintln(w, t.String())
}

func newArrangeCommand(c *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "arrange",
		Short: "Schedule today's remaining reminders, replacing earlier ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(setup{restore: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.svc.Replan(cmd.Context())
			if err != nil {
				return errNoProfile(rt.cfg.UserID, err)
			}
			printReport(cmd.OutOrStdout(), report, rt.svc.Pending())
			return nil
		},
	}
}

func printReport(w io.Writer, r reminder.Report, pending []store.TriggerRow) {
	fmt.Fprintf(w, "armed %d, skipped %d, denied %d, failed %d\n",
		len(r.Registered), len(r.Skipped), len(r.Denied), len(r.Failed))
	if len(r.Denied) > 0 {
		fmt.Fprintln(w, "exact alarms are off, turn them on in Settings to get reminders")
	}
	for _, row := range pending {
		if row.Slot == reminder.TestSlot {
			continue
		}
		fmt.Fprintf(w, "next reminder at %s\n", row.FireAt.Local().Format("15:04"))
		return
	}
	fmt.Fprintln(w, "no reminders left today")
}

func newCancelCommand(c *CLI) *cobra.Command {
	return &cobra.Command{
		Use:     "cancel",
		Aliases: []string{"logout"},
		Short:   "Remove every scheduled hydration reminder",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(setup{restore: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.svc.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all hydration reminders cancelled")
			return nil
		},
	}
}

func newTestNotifyCommand(c *CLI) *cobra.Command {
	var delay time.Duration
	var wait bool

	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test reminder after a short delay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fired := make(chan struct{}, 1)
			rt, err := c.open(setup{
				restore: true,
				dispatcher: func(cfg *config.Config, st *store.Store, logger *zap.SugaredLogger) reminder.Dispatcher {
					return notify.Multi{
						notifierFor(cfg, st, logger),
						reminder.DispatcherFunc(func(ctx context.Context, p reminder.Payload) error {
							if slot, _ := reminder.SlotFrom(ctx); slot == reminder.TestSlot {
								select {
								case fired <- struct{}{}:
								default:
								}
							}
							return nil
						}),
					}
				},
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			if delay <= 0 {
				delay = service.TestNotificationDelay
			}
			if err := rt.svc.TestNotification(delay); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "test reminder scheduled in %s\n", delay)
			if !wait {
				return nil
			}

			timeout := time.NewTimer(delay + 10*time.Second)
			defer timeout.Stop()
			select {
			case <-fired:
				fmt.Fprintln(out, "test reminder sent")
				return nil
			case <-timeout.C:
				return errors.New("test reminder did not fire")
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", service.TestNotificationDelay, "time until the reminder fires")
	cmd.Flags().BoolVar(&wait, "wait", true, "stay running until the reminder fires")
	return cmd
}

func newStatusCommand(c *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize today's water intake, reminders and workouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(setup{restore: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			today, err := rt.svc.Today()
			if err != nil {
				return err
			}
			printToday(cmd.OutOrStdout(), today)
			return nil
		},
	}
}

func printToday(w io.Writer, t *service.Today) {
	if t.Profile == nil {
		fmt.Fprintln(w, "No profile yet. Open the dashboard to create one.")
		return
	}
	p := t.Profile
	name := p.Name
	if name == "" {
		name = p.UserID
	}
	fmt.Fprintf(w, "%s, level %d (%d/%d XP)\n", name, p.Level, p.XP, fitness.XPForNextLevel(p.Level))
	fmt.Fprintf(w, "Water:    %d / %d ml\n", t.IntakeMl, t.Plan.Goal.DailyTargetMl)

	switch {
	case t.Next != nil:
		fmt.Fprintf(w, "Next:     %s (%d pending)\n", t.Next.FireAt.Local().Format("15:04"), len(t.Pending))
	case t.Planned:
		fmt.Fprintln(w, "Next:     none left today")
	default:
		fmt.Fprintln(w, "Next:     nothing to schedule")
	}

	fmt.Fprintf(w, "Workouts: %d / %d this week, %d day streak\n",
		t.Progress.WeekCount, t.Progress.WeeklyGoal, t.Progress.Streak)
	if p.HeightCm > 0 {
		bmi := fitness.BMI(p.WeightKg, p.HeightCm)
		fmt.Fprintf(w, "BMI:      %.1f (%s)\n", bmi, fitness.ClassifyBMI(bmi))
	}
}

func newCheckInCommand(c *CLI) *cobra.Command {
	var weight float64
	var height int

	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Record weight and height, then replan reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if weight <= 0 {
				return errors.New("--weight must be positive")
			}
			rt, err := c.open(setup{restore: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			if height <= 0 {
				p, err := rt.store.GetProfile(rt.cfg.UserID)
				if err != nil {
					return errNoProfile(rt.cfg.UserID, err)
				}
				height = p.HeightCm
			}
			checkIn, report, err := rt.svc.CheckIn(cmd.Context(), weight, height)
			if err != nil {
				return errNoProfile(rt.cfg.UserID, err)
			}
			out := cmd.OutOrStdout()
			if checkIn.BMI > 0 {
				fmt.Fprintf(out, "checked in %.1f kg, BMI %.1f (%s)\n", checkIn.WeightKg, checkIn.BMI, fitness.ClassifyBMI(checkIn.BMI))
			} else {
				fmt.Fprintf(out, "checked in %.1f kg\n", checkIn.WeightKg)
			}
			printReport(out, report, rt.svc.Pending())
			return nil
		},
	}
	cmd.Flags().Float64Var(&weight, "weight", 0, "body weight in kg")
	cmd.Flags().IntVar(&height, "height", 0, "height in cm (default: profile height)")
	return cmd
}

func newDrinkCommand(c *CLI) *cobra.Command {
	var ml int

	cmd := &cobra.Command{
		Use:   "drink",
		Short: "Log a glass of water",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(setup{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.svc.Drink(ml); err != nil {
				return err
			}
			today, err := rt.svc.Today()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if today.Profile == nil {
				fmt.Fprintf(out, "%d ml today\n", today.IntakeMl)
				return nil
			}
			fmt.Fprintf(out, "%d / %d ml today\n", today.IntakeMl, today.Plan.Goal.DailyTargetMl)
			return nil
		},
	}
	cmd.Flags().IntVar(&ml, "ml", hydration.ServingMl, "amount drunk in ml")
	return cmd
}

func newExportCommand(c *CLI) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write check-ins and water intake to a CSV or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q, want csv or json", format)
			}
			rt, err := c.open(setup{})
			if err != nil {
				return err
			}
			defer rt.Close()

			h, err := export.Load(rt.store, rt.cfg.UserID)
			if err != nil {
				return err
			}
			if out == "" {
				dir, err := os.Getwd()
				if err != nil {
					return err
				}
				out = filepath.Join(dir, export.FileName(format, time.Now()))
			}
			if format == "csv" {
				err = export.ToCSV(h, out)
			} else {
				err = export.ToJSON(h, out)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default ./gymbuddy-export-<date>.<format>)")
	return cmd
}
