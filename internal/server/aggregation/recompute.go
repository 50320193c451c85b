package aggregation

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
	"github.com/dmitrijs2005/dailyagg/internal/server/repositories/entries"
)

// Recompute rebuilds the summary for one user's day from the entry store.
// A failed meal read aborts the whole recompute; nothing partial is returned.
func Recompute(ctx context.Context, repo entries.Repository, userID string, day civil.Date) (*models.DaySummary, error) {
	meals, err := repo.ListByDay(ctx, userID, day, models.KindMeal)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	metrics, err := repo.ListByDay(ctx, userID, day, models.KindDeviceMetrics)
	if err != nil {
		return nil, fmt.Errorf("list device metrics: %w", err)
	}
	workouts, err := repo.ListByDay(ctx, userID, day, models.KindWorkout)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	var latest *models.Entry
	if n := len(metrics); n > 0 {
		latest = metrics[n-1]
	}
	return Fold(userID, day, meals, latest, workouts), nil
}

// Fold computes a summary from a day's entries. Entries must already be in
// store order so float sums come out identical on every call.
func Fold(userID string, day civil.Date, meals []*models.Entry, metrics *models.Entry, workouts []*models.Entry) *models.DaySummary {
	s := models.ZeroSummary(userID, day)

	for _, e := range meals {
		m := e.Meal
		if m == nil {
			continue
		}
		s.MealCount++
		s.TotalCalories += m.Calories
		s.TotalProtein += m.Protein
		s.TotalCarbs += m.Carbs
		s.TotalFat += m.Fat

		switch m.MealType {
		case models.MealBreakfast:
			s.BreakfastCalories += m.Calories
		case models.MealLunch:
			s.LunchCalories += m.Calories
		case models.MealDinner:
			s.DinnerCalories += m.Calories
		case models.MealSnack:
			s.SnackCalories += m.Calories
		}
	}

	if metrics != nil && metrics.Metrics != nil {
		m := metrics.Metrics
		s.Steps = m.Steps
		s.CaloriesBurned = m.CaloriesBurned
		s.ActiveMinutes = m.ActiveMinutes
		s.DistanceKm = m.DistanceMeters / 1000
		s.FloorsClimbed = m.Floors
		s.HeartRateBpm = m.HeartRateBpm
		s.SleepHours = m.SleepHours
	}

	for _, e := range workouts {
		w := e.Workout
		if w == nil {
			continue
		}
		s.WorkoutCount++
		s.WorkoutMinutes += w.DurationMinutes
		s.WorkoutCalories += w.CaloriesBurned
	}

	return s
}
