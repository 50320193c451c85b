package aggregation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
	"github.com/dmitrijs2005/dailyagg/internal/server/repositories/entries"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, time.August, 1, 8, 0, 0, 0, time.UTC)

func meal(id string, mt models.MealType, cal int, p, c, f float64) *models.Entry {
	return &models.Entry{
		ID: id, UserID: "u1", Kind: models.KindMeal, DayKey: day, OccurredAt: base, Timezone: "UTC",
		Meal: &models.MealFields{Name: id, MealType: mt, Calories: cal, Protein: p, Carbs: c, Fat: f},
	}
}

func workout(id string, minutes, cal int) *models.Entry {
	return &models.Entry{
		ID: id, UserID: "u1", Kind: models.KindWorkout, DayKey: day, OccurredAt: base, Timezone: "UTC",
		Workout: &models.WorkoutFields{Name: id, DurationMinutes: minutes, CaloriesBurned: cal},
	}
}

func metrics(id string, steps int, at time.Time) *models.Entry {
	return &models.Entry{
		ID: id, UserID: "u1", Kind: models.KindDeviceMetrics, DayKey: day, OccurredAt: at, Timezone: "UTC",
		Metrics: &models.MetricsFields{Steps: steps, CaloriesBurned: 320, ActiveMinutes: 41, DistanceMeters: 5230,
			Floors: 7, HeartRateBpm: 64, SleepHours: 7.25},
	}
}

func TestFold(t *testing.T) {
	got := Fold("u1", day,
		[]*models.Entry{
			meal("m1", models.MealBreakfast, 300, 10, 40, 8),
			meal("m2", models.MealLunch, 600, 35, 60, 20),
			meal("m3", "", 150, 0, 0, 0),
			meal("m4", "brunch", 200, 5, 5, 5),
			meal("m5", models.MealSnack, 90, 1, 20, 0),
		},
		metrics("d1", 8000, base),
		[]*models.Entry{workout("w1", 30, 250), workout("w2", 45, 400)},
	)

	want := &models.DaySummary{
		UserID: "u1", DayKey: day,
		TotalCalories: 1340, TotalProtein: 51, TotalCarbs: 125, TotalFat: 33,
		BreakfastCalories: 300, LunchCalories: 600, SnackCalories: 90, MealCount: 5,
		Steps: 8000, CaloriesBurned: 320, ActiveMinutes: 41, DistanceKm: 5.23, FloorsClimbed: 7,
		HeartRateBpm: 64, SleepHours: 7.25,
		WorkoutCount: 2, WorkoutMinutes: 75, WorkoutCalories: 650,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Fold mismatch (-want +got):\n%s", diff)
	}
}

func TestFold_EmptyDayIsZero(t *testing.T) {
	got := Fold("u1", day, nil, nil, nil)
	if diff := cmp.Diff(models.ZeroSummary("u1", day), got); diff != "" {
		t.Fatalf("empty fold mismatch (-want +got):\n%s", diff)
	}
}

func TestRecompute_DeterministicJSON(t *testing.T) {
	ctx := context.Background()
	repo := entries.NewMemoryRepository()

	for i := 0; i < 20; i++ {
		e := meal(fmt.Sprintf("m%02d", i), models.MealDinner, 100+i, 0.1*float64(i), 0.3, 0.7)
		e.OccurredAt = base.Add(time.Duration(i%3) * time.Minute)
		_, err := repo.Put(ctx, e)
		require.NoError(t, err)
	}
	_, err := repo.UpsertLatestMetrics(ctx, metrics("d1", 1234, base))
	require.NoError(t, err)

	first, err := Recompute(ctx, repo, "u1", day)
	require.NoError(t, err)
	second, err := Recompute(ctx, repo, "u1", day)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, 20, first.MealCount)
	assert.Equal(t, 1234, first.Steps)
}

type failingEntries struct {
	entries.Repository
	failKind models.EntryKind
}

func (f failingEntries) ListByDay(ctx context.Context, userID string, d civil.Date, kind models.EntryKind) ([]*models.Entry, error) {
	if kind == f.failKind {
		return nil, fmt.Errorf("%w: select entries: %w", common.ErrStoreUnavailable, errors.New("conn refused"))
	}
	return f.Repository.ListByDay(ctx, userID, d, kind)
}

func TestRecompute_ReadFailureAbortsWholeRecompute(t *testing.T) {
	for _, kind := range []models.EntryKind{models.KindMeal, models.KindDeviceMetrics, models.KindWorkout} {
		t.Run(string(kind), func(t *testing.T) {
			repo := failingEntries{Repository: entries.NewMemoryRepository(), failKind: kind}

			s, err := Recompute(context.Background(), repo, "u1", day)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, common.ErrStoreUnavailable)
		})
	}
}
