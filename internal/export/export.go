// Package export writes a user's check-in and water history to CSV or JSON.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/sadopc/gymbuddy/internal/fitness"
	"github.com/sadopc/gymbuddy/internal/store"
)

// History is everything exported for one user.
type History struct {
	UserID   string
	CheckIns []store.CheckIn
	Intake   []store.Intake
}

// Load reads the full history of userID.
func Load(s *store.Store, userID string) (*History, error) {
	checkIns, err := s.ListCheckIns(userID)
	if err != nil {
		return nil, fmt.Errorf("load check-ins: %w", err)
	}
	intake, err := s.ListIntake(userID, time.Time{}, time.Now().AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load intake: %w", err)
	}
	return &History{UserID: userID, CheckIns: checkIns, Intake: intake}, nil
}

// FileName is the default export file name for a format on a given day.
func FileName(format string, day time.Time) string {
	return fmt.Sprintf("gymbuddy-export-%s.%s", day.Format("2006-01-02"), format)
}

type record struct {
	kind string
	id   int64
	at   time.Time
	c    *store.CheckIn
	ml   int
}

// records merges check-ins and intake into one time-ordered list.
func (h *History) records() []record {
	var out []record
	for i := range h.CheckIns {
		c := &h.CheckIns[i]
		out = append(out, record{kind: "check-in", id: c.ID, at: c.CreatedAt, c: c})
	}
	for _, in := range h.Intake {
		out = append(out, record{kind: "water", id: in.ID, at: in.CreatedAt, ml: in.AmountMl})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	return out
}

func (h *History) totalMl() int {
	total := 0
	for _, in := range h.Intake {
		total += in.AmountMl
	}
	return total
}

func bmiClass(bmi float64) string {
	if bmi <= 0 {
		return ""
	}
	return string(fitness.ClassifyBMI(bmi))
}
