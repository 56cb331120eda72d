// Package profile reads the user's body metrics and objectives from the
// local store or the remote user document, and validates edits to them.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sadopc/gymbuddy/internal/hydration"
	"github.com/sadopc/gymbuddy/internal/store"
)

const (
	SexMale   = "male"
	SexFemale = "female"

	GoalLoseWeight = "lose_weight"
	GoalGainWeight = "gain_weight"
)

// ErrNotFound is returned by a Source that has no profile for the user.
var ErrNotFound = errors.New("profile not found")

// Source provides a user's profile.
type Source interface {
	Fetch(ctx context.Context, userID string) (*store.Profile, error)
}

// Local reads profiles from the sqlite store.
type Local struct {
	Store *store.Store
}

func (l Local) Fetch(_ context.Context, userID string) (*store.Profile, error) {
	p, err := l.Store.GetProfile(userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("fetch %q: %w", userID, ErrNotFound)
	}
	return p, err
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := hydration.ParseClockStrict(fl.Field().String())
		return err == nil
	})
	return v
}

type fields struct {
	WeightKg    float64 `validate:"gt=0,lte=500"`
	HeightCm    int     `validate:"gte=0,lte=300"`
	Sex         string  `validate:"omitempty,oneof=male female"`
	ActiveStart string  `validate:"clock"`
	ActiveEnd   string  `validate:"clock"`
	WeeklyGoal  int     `validate:"gte=1,lte=7"`
	GoalType    string  `validate:"oneof=lose_weight gain_weight"`
}

// Validate checks a profile before it is saved. Window times must be strict
// "HH:MM"; an inverted window is allowed and simply plans nothing.
func Validate(p *store.Profile) error {
	err := validate.Struct(fields{
		WeightKg:    p.WeightKg,
		HeightCm:    p.HeightCm,
		Sex:         p.Sex,
		ActiveStart: p.ActiveStart,
		ActiveEnd:   p.ActiveEnd,
		WeeklyGoal:  p.WeeklyGoal,
		GoalType:    p.GoalType,
	})
	if err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	return nil
}

type checkInFields struct {
	WeightKg float64 `validate:"gt=0,lte=500"`
	HeightCm int     `validate:"gte=0,lte=300"`
}

// ValidateCheckIn applies the profile's weight and height limits to a check-in.
func ValidateCheckIn(weightKg float64, heightCm int) error {
	if err := validate.Struct(checkInFields{WeightKg: weightKg, HeightCm: heightCm}); err != nil {
		return fmt.Errorf("invalid check-in: %w", err)
	}
	return nil
}

// Sync copies the remote profile into the local store. Fields the remote
// document leaves empty keep their local value.
func Sync(ctx context.Context, remote Source, st *store.Store, userID string, logger *zap.SugaredLogger) (*store.Profile, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	rp, err := remote.Fetch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sync profile: %w", err)
	}

	merged := &store.Profile{
		UserID:      userID,
		ActiveStart: "08:00",
		ActiveEnd:   "22:00",
		WeeklyGoal:  3,
		GoalType:    GoalLoseWeight,
	}
	if local, err := st.GetProfile(userID); err == nil {
		merged = local
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("sync profile: %w", err)
	}
	merge(merged, rp)

	if err := Validate(merged); err != nil {
		return nil, fmt.Errorf("sync profile: %w", err)
	}
	if err := st.SaveProfile(merged); err != nil {
		return nil, fmt.Errorf("sync profile: %w", err)
	}
	logger.Infof("profile: synced %s (%.1f kg, %s-%s)", userID, merged.WeightKg, merged.ActiveStart, merged.ActiveEnd)
	return st.GetProfile(userID)
}

func merge(dst, src *store.Profile) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.WeightKg > 0 {
		dst.WeightKg = src.WeightKg
	}
	if src.HeightCm > 0 {
		dst.HeightCm = src.HeightCm
	}
	if src.Sex != "" {
		dst.Sex = src.Sex
	}
	if src.ActiveStart != "" {
		dst.ActiveStart = src.ActiveStart
	}
	if src.ActiveEnd != "" {
		dst.ActiveEnd = src.ActiveEnd
	}
	if src.WeeklyGoal > 0 {
		dst.WeeklyGoal = src.WeeklyGoal
	}
	if src.GoalType != "" {
		dst.GoalType = src.GoalType
	}
}
