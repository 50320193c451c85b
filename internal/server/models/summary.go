package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// DaySummary is the canonical aggregate of one user's entries for one day.
// It is always rebuilt from the full entry set, never patched.
type DaySummary struct {
	UserID string     `json:"-"`
	DayKey civil.Date `json:"dayKey"`

	TotalCalories     int     `json:"totalCalories"`
	TotalProtein      float64 `json:"totalProtein"`
	TotalCarbs        float64 `json:"totalCarbs"`
	TotalFat          float64 `json:"totalFat"`
	BreakfastCalories int     `json:"breakfastCalories"`
	LunchCalories     int     `json:"lunchCalories"`
	DinnerCalories    int     `json:"dinnerCalories"`
	SnackCalories     int     `json:"snackCalories"`
	MealCount         int     `json:"mealCount"`

	Steps          int     `json:"steps"`
	CaloriesBurned int     `json:"caloriesBurned"`
	ActiveMinutes  int     `json:"activeMinutes"`
	DistanceKm     float64 `json:"distanceKm"`
	FloorsClimbed  int     `json:"floorsClimbed"`
	HeartRateBpm   int     `json:"heartRateBpm"`
	SleepHours     float64 `json:"sleepHours"`

	WorkoutCount    int `json:"workoutCount"`
	WorkoutMinutes  int `json:"workoutMinutes"`
	WorkoutCalories int `json:"workoutCalories"`

	// UpdatedAt is set by the summary store and is not part of the fold.
	UpdatedAt time.Time `json:"-"`
}

// ZeroSummary is what a day with no entries looks like.
func ZeroSummary(userID string, day civil.Date) *DaySummary {
	return &DaySummary{UserID: userID, DayKey: day}
}
