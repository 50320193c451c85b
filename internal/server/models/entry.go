// Package models defines the engine's data model: raw entries and the day
// summaries derived from them.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/common"
)

// EntryKind tags which variant of fields an Entry carries.
type EntryKind string

const (
	KindMeal          EntryKind = "meal"
	KindWorkout       EntryKind = "workout"
	KindDeviceMetrics EntryKind = "device_metrics"
)

// Valid reports whether k is one of the known kinds.
func (k EntryKind) Valid() bool {
	switch k {
	case KindMeal, KindWorkout, KindDeviceMetrics:
		return true
	}
	return false
}

// Entry is one immutable fact about a moment in a user's day.
//
// Exactly one of Meal, Workout and Metrics is set, matching Kind. DayKey is
// fixed when the entry is written, together with the Timezone that produced
// it, so an entry never moves to another day when the user later reads from
// a different timezone.
type Entry struct {
	ID         string
	UserID     string
	Kind       EntryKind
	OccurredAt time.Time
	DayKey     civil.Date
	Timezone   string

	Meal    *MealFields
	Workout *WorkoutFields
	Metrics *MetricsFields

	CreatedAt time.Time
}

// Validate checks that the variant matches Kind and that the fields are
// acceptable. Failures wrap common.ErrValidation.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: user id is required", common.ErrValidation)
	}

	set := 0
	for _, present := range []bool{e.Meal != nil, e.Workout != nil, e.Metrics != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: entry must carry exactly one kind of fields", common.ErrValidation)
	}

	switch e.Kind {
	case KindMeal:
		if e.Meal == nil {
			return fmt.Errorf("%w: meal entry without meal fields", common.ErrValidation)
		}
		return e.Meal.Validate()
	case KindWorkout:
		if e.Workout == nil {
			return fmt.Errorf("%w: workout entry without workout fields", common.ErrValidation)
		}
		return e.Workout.Validate()
	case KindDeviceMetrics:
		if e.Metrics == nil {
			return fmt.Errorf("%w: metrics entry without metrics fields", common.ErrValidation)
		}
		return e.Metrics.Validate()
	default:
		return fmt.Errorf("%w: unknown entry kind %q", common.ErrValidation, e.Kind)
	}
}

// Payload encodes the kind-specific fields for storage.
func (e *Entry) Payload() ([]byte, error) {
	var v any
	switch e.Kind {
	case KindMeal:
		v = e.Meal
	case KindWorkout:
		v = e.Workout
	case KindDeviceMetrics:
		v = e.Metrics
	default:
		return nil, fmt.Errorf("unknown entry kind %q", e.Kind)
	}
	return json.Marshal(v)
}

// SetPayload sets Kind and decodes stored fields into the matching variant.
func (e *Entry) SetPayload(kind EntryKind, payload []byte) error {
	e.Kind = kind
	e.Meal, e.Workout, e.Metrics = nil, nil, nil

	var err error
	switch kind {
	case KindMeal:
		e.Meal = &MealFields{}
		err = json.Unmarshal(payload, e.Meal)
	case KindWorkout:
		e.Workout = &WorkoutFields{}
		err = json.Unmarshal(payload, e.Workout)
	case KindDeviceMetrics:
		e.Metrics = &MetricsFields{}
		err = json.Unmarshal(payload, e.Metrics)
	default:
		return fmt.Errorf("unknown entry kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return nil
}
