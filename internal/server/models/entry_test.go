package models

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{
			name:  "meal ok",
			entry: Entry{UserID: "u1", Kind: KindMeal, Meal: &MealFields{Name: "oats", MealType: MealBreakfast, Calories: 300}},
		},
		{
			name:  "meal without type ok",
			entry: Entry{UserID: "u1", Kind: KindMeal, Meal: &MealFields{Name: "oats"}},
		},
		{
			name:    "meal empty name",
			entry:   Entry{UserID: "u1", Kind: KindMeal, Meal: &MealFields{Name: "  "}},
			wantErr: true,
		},
		{
			name:    "meal unknown type",
			entry:   Entry{UserID: "u1", Kind: KindMeal, Meal: &MealFields{Name: "oats", MealType: "brunch"}},
			wantErr: true,
		},
		{
			name:    "meal negative calories",
			entry:   Entry{UserID: "u1", Kind: KindMeal, Meal: &MealFields{Name: "oats", Calories: -1}},
			wantErr: true,
		},
		{
			name:    "kind mismatch",
			entry:   Entry{UserID: "u1", Kind: KindWorkout, Meal: &MealFields{Name: "oats"}},
			wantErr: true,
		},
		{
			name:    "two variants",
			entry:   Entry{UserID: "u1", Kind: KindMeal, Meal: &MealFields{Name: "oats"}, Metrics: &MetricsFields{}},
			wantErr: true,
		},
		{
			name:    "no user",
			entry:   Entry{Kind: KindMeal, Meal: &MealFields{Name: "oats"}},
			wantErr: true,
		},
		{
			name:  "workout ok",
			entry: Entry{UserID: "u1", Kind: KindWorkout, Workout: &WorkoutFields{Name: "run", WorkoutType: WorkoutCardio, DurationMinutes: 30}},
		},
		{
			name:    "workout unknown type",
			entry:   Entry{UserID: "u1", Kind: KindWorkout, Workout: &WorkoutFields{Name: "run", WorkoutType: "parkour"}},
			wantErr: true,
		},
		{
			name:  "metrics ok",
			entry: Entry{UserID: "u1", Kind: KindDeviceMetrics, Metrics: &MetricsFields{Steps: 100}},
		},
		{
			name:    "metrics negative",
			entry:   Entry{UserID: "u1", Kind: KindDeviceMetrics, Metrics: &MetricsFields{SleepHours: -2}},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			entry:   Entry{UserID: "u1", Kind: "mood", Meal: &MealFields{Name: "x"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEntry_PayloadRoundTrip(t *testing.T) {
	in := Entry{Kind: KindMeal, Meal: &MealFields{Name: "salad", MealType: MealLunch, Calories: 50, Protein: 2.5}}
	b, err := in.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"salad","mealType":"lunch","calories":50,"protein":2.5}`, string(b))

	var out Entry
	require.NoError(t, out.SetPayload(KindMeal, b))
	assert.Equal(t, in.Meal, out.Meal)
	assert.Nil(t, out.Workout)
	assert.Nil(t, out.Metrics)
}

func TestEntry_SetPayload_Errors(t *testing.T) {
	var e Entry
	assert.Error(t, e.SetPayload("mood", []byte(`{}`)))
	assert.Error(t, e.SetPayload(KindDeviceMetrics, []byte(`{"steps":"many"}`)))

	_, err := (&Entry{Kind: "mood"}).Payload()
	assert.Error(t, err)
}

func TestDaySummary_JSONShape(t *testing.T) {
	s := ZeroSummary("u1", civil.Date{Year: 2025, Month: time.March, Day: 10})
	s.TotalCalories = 300
	s.BreakfastCalories = 300
	s.UpdatedAt = time.Now()

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(b, &flat))

	assert.Equal(t, "2025-03-10", flat["dayKey"])
	assert.EqualValues(t, 300, flat["totalCalories"])
	assert.NotContains(t, flat, "UserID")
	assert.NotContains(t, flat, "UpdatedAt")
	for _, key := range []string{
		"totalProtein", "totalCarbs", "totalFat", "lunchCalories", "dinnerCalories", "snackCalories",
		"steps", "caloriesBurned", "activeMinutes", "distanceKm", "floorsClimbed", "heartRateBpm", "sleepHours",
	} {
		assert.Contains(t, flat, key)
	}
}
