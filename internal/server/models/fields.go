package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dailyagg/internal/common"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// Known reports whether t is one of the four meal types. Entries with an
// unknown or empty type still count toward day totals, just not subtotals.
func (t MealType) Known() bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

type WorkoutType string

const (
	WorkoutCardio      WorkoutType = "cardio"
	WorkoutStrength    WorkoutType = "strength"
	WorkoutFlexibility WorkoutType = "flexibility"
	WorkoutYoga        WorkoutType = "yoga"
	WorkoutPilates     WorkoutType = "pilates"
	WorkoutHIIT        WorkoutType = "hiit"
	WorkoutOther       WorkoutType = "other"
)

func (t WorkoutType) Known() bool {
	switch t {
	case WorkoutCardio, WorkoutStrength, WorkoutFlexibility, WorkoutYoga, WorkoutPilates, WorkoutHIIT, WorkoutOther:
		return true
	}
	return false
}

// MealFields is the payload of a meal entry. Macro grams left out are zero.
type MealFields struct {
	Name     string   `json:"name"`
	MealType MealType `json:"mealType,omitempty"`
	Calories int      `json:"calories"`
	Protein  float64  `json:"protein,omitempty"`
	Carbs    float64  `json:"carbs,omitempty"`
	Fat      float64  `json:"fat,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

func (m *MealFields) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: meal name is required", common.ErrValidation)
	}
	if m.MealType != "" && !m.MealType.Known() {
		return fmt.Errorf("%w: invalid meal type %q, must be breakfast, lunch, dinner or snack", common.ErrValidation, m.MealType)
	}
	if m.Calories < 0 || m.Protein < 0 || m.Carbs < 0 || m.Fat < 0 {
		return fmt.Errorf("%w: meal values must not be negative", common.ErrValidation)
	}
	return nil
}

// WorkoutFields is the payload of a workout entry.
type WorkoutFields struct {
	Name            string      `json:"name"`
	WorkoutType     WorkoutType `json:"workoutType,omitempty"`
	DurationMinutes int         `json:"durationMinutes,omitempty"`
	CaloriesBurned  int         `json:"caloriesBurned,omitempty"`
	Notes           string      `json:"notes,omitempty"`
}

func (w *WorkoutFields) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: workout name is required", common.ErrValidation)
	}
	if w.WorkoutType != "" && !w.WorkoutType.Known() {
		return fmt.Errorf("%w: invalid workout type %q", common.ErrValidation, w.WorkoutType)
	}
	if w.DurationMinutes < 0 || w.CaloriesBurned < 0 {
		return fmt.Errorf("%w: workout values must not be negative", common.ErrValidation)
	}
	return nil
}

// MetricsFields is one device sync for a day. A newer sync for the same day
// replaces the previous one wholesale.
type MetricsFields struct {
	Steps          int     `json:"steps"`
	CaloriesBurned int     `json:"caloriesBurned"`
	ActiveMinutes  int     `json:"activeMinutes"`
	DistanceMeters float64 `json:"distanceMeters"`
	Floors         int     `json:"floors"`
	HeartRateBpm   int     `json:"heartRateBpm"`
	SleepHours     float64 `json:"sleepHours"`
}

func (m *MetricsFields) Validate() error {
	if m.Steps < 0 || m.CaloriesBurned < 0 || m.ActiveMinutes < 0 || m.DistanceMeters < 0 ||
		m.Floors < 0 || m.HeartRateBpm < 0 || m.SleepHours < 0 {
		return fmt.Errorf("%w: device metrics must not be negative", common.ErrValidation)
	}
	return nil
}
