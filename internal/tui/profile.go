package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/gymbuddy/internal/fitness"
	"github.com/sadopc/gymbuddy/internal/hydration"
	"github.com/sadopc/gymbuddy/internal/profile"
	"github.com/sadopc/gymbuddy/internal/service"
	"github.com/sadopc/gymbuddy/internal/store"
)

type profileForm int

const (
	formProfile profileForm = iota
	formCheckIn
	formObjectives
)

type profileModel struct {
	store  *store.Store
	svc    *service.Hydration
	width  int
	height int

	profile  *store.Profile
	checkIns []store.CheckIn // newest first
	cursor   int

	formActive bool
	form       *huh.Form
	formType   profileForm

	// Form field pointers (survive value copies)
	formName   *string
	formWeight *string
	formHeight *string
	formSex    *string
	formStart  *string
	formEnd    *string
	formWeekly *int
	formGoal   *string
}

func newProfileModel(s *store.Store, svc *service.Hydration) profileModel {
	name, weight, height, sex, start, end, goal := "", "", "", "", "", "", ""
	weekly := 3
	return profileModel{
		store:      s,
		svc:        svc,
		formName:   &name,
		formWeight: &weight,
		formHeight: &height,
		formSex:    &sex,
		formStart:  &start,
		formEnd:    &end,
		formWeekly: &weekly,
		formGoal:   &goal,
	}
}

func (p *profileModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type profileDataMsg struct {
	profile  *store.Profile
	checkIns []store.CheckIn
}

func (p profileModel) refresh() tea.Cmd {
	userID := p.svc.UserID()
	return func() tea.Msg {
		prof, err := p.store.GetProfile(userID)
		if err != nil {
			prof = nil
		}
		list, _ := p.store.ListCheckIns(userID)
		newest := make([]store.CheckIn, len(list))
		for i, c := range list {
			newest[len(list)-1-i] = c
		}
		return profileDataMsg{profile: prof, checkIns: newest}
	}
}

func (p profileModel) update(msg tea.Msg) (profileModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case profileDataMsg:
		p.profile = msg.profile
		p.checkIns = msg.checkIns
		if p.cursor >= len(p.checkIns) {
			p.cursor = max(0, len(p.checkIns)-1)
		}
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(p.checkIns)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.Enter):
			return p.showProfileForm()
		case key.Matches(msg, keys.New):
			if p.profile == nil {
				return p.showProfileForm()
			}
			return p.showCheckInForm()
		case key.Matches(msg, keys.Edit):
			if p.profile == nil {
				return p.showProfileForm()
			}
			return p.showObjectivesForm()
		}
	}
	return p, nil
}

func validateWeight(s string) error {
	kg, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || kg <= 0 || kg > 500 {
		return errors.New("enter a weight between 1 and 500 kg")
	}
	return nil
}

func validateHeight(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	cm, err := strconv.Atoi(s)
	if err != nil || cm < 0 || cm > 300 {
		return errors.New("enter a height in whole centimetres")
	}
	return nil
}

func validateClock(s string) error {
	if _, err := hydration.ParseClockStrict(strings.TrimSpace(s)); err != nil {
		return errors.New("use HH:MM, e.g. 08:00")
	}
	return nil
}

func weeklyOptions() []huh.Option[int] {
	opts := make([]huh.Option[int], 7)
	for i := range opts {
		opts[i] = huh.NewOption(fmt.Sprintf("%d per week", i+1), i+1)
	}
	return opts
}

func goalOptions() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption("Lose weight", profile.GoalLoseWeight),
		huh.NewOption("Gain weight", profile.GoalGainWeight),
	}
}

func (p profileModel) loadFields() {
	cur := p.profile
	if cur == nil {
		cur = &store.Profile{ActiveStart: "08:00", ActiveEnd: "22:00", WeeklyGoal: 3, GoalType: profile.GoalLoseWeight}
	}
	*p.formName = cur.Name
	*p.formWeight = ""
	if cur.WeightKg > 0 {
		*p.formWeight = strconv.FormatFloat(cur.WeightKg, 'f', -1, 64)
	}
	*p.formHeight = ""
	if cur.HeightCm > 0 {
		*p.formHeight = strconv.Itoa(cur.HeightCm)
	}
	*p.formSex = cur.Sex
	*p.formStart = cur.ActiveStart
	*p.formEnd = cur.ActiveEnd
	*p.formWeekly = cur.WeeklyGoal
	if *p.formWeekly < 1 {
		*p.formWeekly = 3
	}
	*p.formGoal = cur.GoalType
	if *p.formGoal == "" {
		*p.formGoal = profile.GoalLoseWeight
	}
}

func (p profileModel) showProfileForm() (profileModel, tea.Cmd) {
	p.loadFields()
	p.formType = formProfile

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(p.formName),
			huh.NewInput().Title("Weight (kg)").Validate(validateWeight).Value(p.formWeight),
			huh.NewInput().Title("Height (cm)").Validate(validateHeight).Value(p.formHeight),
			huh.NewSelect[string]().Title("Sex").
				Options(
					huh.NewOption("Prefer not to say", ""),
					huh.NewOption("Male", profile.SexMale),
					huh.NewOption("Female", profile.SexFemale),
				).Value(p.formSex),
		).Title("Body"),
		huh.NewGroup(
			huh.NewInput().Title("Active from").Placeholder("08:00").Validate(validateClock).Value(p.formStart),
			huh.NewInput().Title("Active until").Placeholder("22:00").Validate(validateClock).Value(p.formEnd),
			huh.NewSelect[int]().Title("Workouts").Options(weeklyOptions()...).Value(p.formWeekly),
			huh.NewSelect[string]().Title("Goal").Options(goalOptions()...).Value(p.formGoal),
		).Title("Routine"),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p profileModel) showCheckInForm() (profileModel, tea.Cmd) {
	p.loadFields()
	p.formType = formCheckIn

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Weight (kg)").Validate(validateWeight).Value(p.formWeight),
			huh.NewInput().Title("Height (cm)").Validate(validateHeight).Value(p.formHeight),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p profileModel) showObjectivesForm() (profileModel, tea.Cmd) {
	p.loadFields()
	p.formType = formObjectives

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().Title("Workouts").Options(weeklyOptions()...).Value(p.formWeekly),
			huh.NewSelect[string]().Title("Goal").Options(goalOptions()...).Value(p.formGoal),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p profileModel) updateForm(msg tea.Msg) (profileModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		return p, tea.Sequence(p.submit(), p.refresh())
	}

	return p, cmd
}

// submit saves the completed form and replans.
func (p profileModel) submit() tea.Cmd {
	weight, _ := strconv.ParseFloat(strings.TrimSpace(*p.formWeight), 64)
	height, _ := strconv.Atoi(strings.TrimSpace(*p.formHeight))
	svc := p.svc

	switch p.formType {
	case formCheckIn:
		return func() tea.Msg {
			c, report, err := svc.CheckIn(context.Background(), weight, height)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Check-in: %v", err), isError: true}
			}
			prefix := fmt.Sprintf("Checked in at %.1f kg", c.WeightKg)
			if c.BMI > 0 {
				prefix += fmt.Sprintf(" (BMI %.1f)", c.BMI)
			}
			return replannedMsg{report: report, prefix: prefix}
		}

	case formObjectives:
		weekly, goal := *p.formWeekly, *p.formGoal
		return func() tea.Msg {
			report, err := svc.SaveObjectives(context.Background(), weekly, goal)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Save objectives: %v", err), isError: true}
			}
			return replannedMsg{report: report, prefix: "Objectives saved"}
		}

	default:
		prof := &store.Profile{
			Name:        strings.TrimSpace(*p.formName),
			WeightKg:    weight,
			HeightCm:    height,
			Sex:         *p.formSex,
			ActiveStart: strings.TrimSpace(*p.formStart),
			ActiveEnd:   strings.TrimSpace(*p.formEnd),
			WeeklyGoal:  *p.formWeekly,
			GoalType:    *p.formGoal,
		}
		return func() tea.Msg {
			report, err := svc.SaveProfile(context.Background(), prof)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Save profile: %v", err), isError: true}
			}
			return replannedMsg{report: report, prefix: "Profile saved"}
		}
	}
}

func (p profileModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := "Edit Profile"
		switch p.formType {
		case formCheckIn:
			title = "New Check-in"
		case formObjectives:
			title = "Objectives"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", p.form.View())
		return panelStyle.Width(w).Render(content)
	}

	if p.profile == nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Profile"),
			"",
			mutedStyle.Render("No profile yet. Press enter to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		p.renderSummary(w),
		p.renderCheckIns(w),
	)
}

func (p profileModel) renderSummary(w int) string {
	pr := p.profile
	name := pr.Name
	if name == "" {
		name = p.svc.UserID()
	}

	label := func(s string) string { return lipgloss.NewStyle().Width(14).Render(s) }
	goal := "lose weight"
	if pr.GoalType == profile.GoalGainWeight {
		goal = "gain weight"
	}

	rows := []string{
		titleStyle.Render(name),
		"",
		label("Weight") + highlightStyle.Render(fmt.Sprintf("%.1f kg", pr.WeightKg)),
	}
	if pr.HeightCm > 0 {
		bmi := fitness.BMI(pr.WeightKg, pr.HeightCm)
		class := fitness.ClassifyBMI(bmi)
		rows = append(rows,
			label("Height")+highlightStyle.Render(fmt.Sprintf("%d cm", pr.HeightCm)),
			label("BMI")+fmt.Sprintf("%.1f ", bmi)+bmiStyle(class).Render(string(class)),
		)
	}
	rows = append(rows,
		label("Active hours")+highlightStyle.Render(pr.ActiveStart+" - "+pr.ActiveEnd),
		label("Water target")+highlightStyle.Render(formatMl(hydration.NewGoal(pr.WeightKg).DailyTargetMl)),
		label("Objectives")+fmt.Sprintf("%d workouts/week, %s", pr.WeeklyGoal, goal),
		"",
		mutedStyle.Render("  enter: edit profile  n: check-in  o: objectives"),
	)
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p profileModel) renderCheckIns(w int) string {
	title := titleStyle.Render("Check-ins")
	if len(p.checkIns) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No check-ins yet. Press n to record one."),
		))
	}

	rows := []string{
		title,
		mutedStyle.Render(fmt.Sprintf("  %-18s %8s %8s %6s  %s", "Date", "Weight", "Height", "BMI", "Class")),
	}

	visible := max(3, p.height-22)
	start := 0
	if p.cursor >= visible {
		start = p.cursor - visible + 1
	}
	end := min(len(p.checkIns), start+visible)

	for i := start; i < end; i++ {
		c := p.checkIns[i]
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		height, bmi, class := "-", "-", ""
		if c.HeightCm > 0 {
			height = fmt.Sprintf("%d cm", c.HeightCm)
		}
		if c.BMI > 0 {
			bmi = fmt.Sprintf("%.1f", c.BMI)
			class = string(fitness.ClassifyBMI(c.BMI))
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-18s %5.1f kg %8s %6s  %s",
			cursor, c.CreatedAt.Local().Format("2006-01-02 15:04"), c.WeightKg, height, bmi, class)))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
