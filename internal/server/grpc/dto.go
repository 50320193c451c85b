package grpc

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
)

// MealRequest is the body of RecordMeal. Calories left out are estimated
// from the name.
type MealRequest struct {
	IdempotencyKey string     `json:"idempotencyKey,omitempty"`
	Name           string     `json:"name"`
	MealType       string     `json:"mealType,omitempty"`
	Calories       *int       `json:"calories,omitempty"`
	Protein        float64    `json:"protein,omitempty"`
	Carbs          float64    `json:"carbs,omitempty"`
	Fat            float64    `json:"fat,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	OccurredAt     *time.Time `json:"occurredAt,omitempty"`
	Timezone       string     `json:"timezone,omitempty"`
}

type WorkoutRequest struct {
	IdempotencyKey  string     `json:"idempotencyKey,omitempty"`
	Name            string     `json:"name"`
	WorkoutType     string     `json:"workoutType,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	CaloriesBurned  int        `json:"caloriesBurned,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	OccurredAt      *time.Time `json:"occurredAt,omitempty"`
	Timezone        string     `json:"timezone,omitempty"`
}

// UpdateWorkoutRequest replaces the fields of workout ID. A missing
// occurredAt or timezone keeps the stored value.
type UpdateWorkoutRequest struct {
	ID string `json:"id"`
	WorkoutRequest
}

type MetricsRequest struct {
	models.MetricsFields
	Timezone string `json:"timezone,omitempty"`
}

// IDRequest names one entry.
type IDRequest struct {
	ID string `json:"id"`
}

type DayRequest struct {
	Day civil.Date `json:"day"`
}

// TodayRequest asks for the current day in Timezone, or in the x-timezone
// header when it is empty.
type TodayRequest struct {
	Timezone string `json:"timezone,omitempty"`
}

type RangeRequest struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

type ListRequest struct {
	Day  civil.Date `json:"day"`
	Kind string     `json:"kind,omitempty"`
}

// EntryView is an entry as returned to clients.
type EntryView struct {
	ID         string                `json:"id"`
	Kind       models.EntryKind      `json:"kind"`
	OccurredAt time.Time             `json:"occurredAt"`
	DayKey     civil.Date            `json:"dayKey"`
	Timezone   string                `json:"timezone"`
	Meal       *models.MealFields    `json:"meal,omitempty"`
	Workout    *models.WorkoutFields `json:"workout,omitempty"`
	Metrics    *models.MetricsFields `json:"metrics,omitempty"`
}

func entryView(e *models.Entry) *EntryView {
	return &EntryView{
		ID:         e.ID,
		Kind:       e.Kind,
		OccurredAt: e.OccurredAt.UTC(),
		DayKey:     e.DayKey,
		Timezone:   e.Timezone,
		Meal:       e.Meal,
		Workout:    e.Workout,
		Metrics:    e.Metrics,
	}
}

type SummaryResponse struct {
	Summary *models.DaySummary `json:"summary"`
}

// RecordResponse carries the stored entry and the day it landed on.
type RecordResponse struct {
	Entry   *EntryView         `json:"entry"`
	Summary *models.DaySummary `json:"summary"`
}

type RangeResponse struct {
	Days []*models.DaySummary `json:"days"`
}

type EntriesResponse struct {
	Entries []*EntryView `json:"entries"`
}

type ExportResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Days      int       `json:"days"`
}

type PingResponse struct {
	Status string `json:"status"`
}
