// Package services contains the server-side use cases: recording and deleting
// entries, reading day summaries, exporting ranges and retention cleanup.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/dmitrijs2005/dailyagg/internal/dbx"
	"github.com/dmitrijs2005/dailyagg/internal/logging"
	"github.com/dmitrijs2005/dailyagg/internal/server/aggregation"
	"github.com/dmitrijs2005/dailyagg/internal/server/config"
	"github.com/dmitrijs2005/dailyagg/internal/server/daykey"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
	"github.com/dmitrijs2005/dailyagg/internal/server/nutrition"
	"github.com/dmitrijs2005/dailyagg/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// maxUpdateAttempts bounds the re-reads when an entry is moved by a
// concurrent update.
const maxUpdateAttempts = 3

// entryIDNamespace seeds the name-based ids derived from idempotency keys.
var entryIDNamespace = uuid.MustParse("6f1c8e7a-3a52-4f0e-9b1d-2c7d5e0a9b44")

// MealInput is a meal as submitted by a client. A nil Calories asks for a
// name-based estimate; a zero OccurredAt means now.
type MealInput struct {
	IdempotencyKey string
	Name           string
	MealType       models.MealType
	Calories       *int
	Protein        float64
	Carbs          float64
	Fat            float64
	Notes          string
	OccurredAt     time.Time
}

// WorkoutInput is a workout as submitted by a client.
type WorkoutInput struct {
	IdempotencyKey  string
	Name            string
	WorkoutType     models.WorkoutType
	DurationMinutes int
	CaloriesBurned  int
	Notes           string
	OccurredAt      time.Time
}

// AggregationService is the entry point for everything that reads or changes
// a user's days.
type AggregationService struct {
	conn         dbx.Conn
	repomanager  repomanager.RepositoryManager
	coordinator  *aggregation.Coordinator
	days         *daykey.Resolver
	maxRangeDays int
	logger       logging.Logger
}

func NewAggregationService(conn dbx.Conn, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *AggregationService {
	return &AggregationService{
		conn:         conn,
		repomanager:  m,
		coordinator:  aggregation.NewCoordinator(conn, m, logger),
		days:         daykey.NewResolver(),
		maxRangeDays: cfg.MaxRangeDays,
		logger:       logger.With("module", "services"),
	}
}

// RecordMeal stores a meal on the day its OccurredAt falls on in tz and
// returns the stored entry with the day's new summary. When the summary could
// not be rebuilt the entry is still returned along with the error.
func (s *AggregationService) RecordMeal(ctx context.Context, userID string, in MealInput, tz string) (*models.Entry, *models.DaySummary, error) {
	var calories int
	if in.Calories != nil {
		calories = *in.Calories
	} else {
		calories = nutrition.EstimateCalories(in.Name)
	}

	e := s.newEntry(ctx, userID, models.KindMeal, in.IdempotencyKey, in.OccurredAt, tz)
	e.Meal = &models.MealFields{
		Name:     strings.TrimSpace(in.Name),
		MealType: in.MealType,
		Calories: calories,
		Protein:  in.Protein,
		Carbs:    in.Carbs,
		Fat:      in.Fat,
		Notes:    in.Notes,
	}
	return s.addEntry(ctx, e, in.IdempotencyKey != "")
}

// RecordWorkout stores a workout the same way RecordMeal stores a meal.
func (s *AggregationService) RecordWorkout(ctx context.Context, userID string, in WorkoutInput, tz string) (*models.Entry, *models.DaySummary, error) {
	e := s.newEntry(ctx, userID, models.KindWorkout, in.IdempotencyKey, in.OccurredAt, tz)
	e.Workout = &models.WorkoutFields{
		Name:            strings.TrimSpace(in.Name),
		WorkoutType:     in.WorkoutType,
		DurationMinutes: in.DurationMinutes,
		CaloriesBurned:  in.CaloriesBurned,
		Notes:           in.Notes,
	}
	return s.addEntry(ctx, e, in.IdempotencyKey != "")
}

// DeleteMeal removes a meal from the day it was recorded on.
func (s *AggregationService) DeleteMeal(ctx context.Context, userID, mealID string) (*models.DaySummary, error) {
	return s.deleteEntry(ctx, userID, mealID, models.KindMeal)
}

// DeleteWorkout removes a workout from the day it was recorded on.
func (s *AggregationService) DeleteWorkout(ctx context.Context, userID, workoutID string) (*models.DaySummary, error) {
	return s.deleteEntry(ctx, userID, workoutID, models.KindWorkout)
}

// UpdateWorkout replaces the fields of a stored workout. A zero OccurredAt
// keeps the stored time and an empty tz keeps the stored zone.
//
// When the new time falls on another day the workout is moved in two steps,
// each under its own day's slot: the update rebuilds the old day, then the
// new day is rebuilt. The returned summary is the new day's.
func (s *AggregationService) UpdateWorkout(ctx context.Context, userID, workoutID string, in WorkoutInput, tz string) (*models.Entry, *models.DaySummary, error) {
	for attempt := 0; ; attempt++ {
		stored, err := s.ownedEntry(ctx, userID, workoutID, models.KindWorkout)
		if err != nil {
			return nil, nil, err
		}

		occurredAt := stored.OccurredAt
		if !in.OccurredAt.IsZero() {
			occurredAt = in.OccurredAt
		}
		zone := stored.Timezone
		if strings.TrimSpace(tz) != "" {
			zone = s.zone(ctx, tz)
		}

		updated := &models.Entry{
			ID:         stored.ID,
			UserID:     stored.UserID,
			Kind:       models.KindWorkout,
			OccurredAt: occurredAt.UTC(),
			DayKey:     daykey.Resolve(occurredAt, zone),
			Timezone:   zone,
			CreatedAt:  stored.CreatedAt,
			Workout: &models.WorkoutFields{
				Name:            strings.TrimSpace(in.Name),
				WorkoutType:     in.WorkoutType,
				DurationMinutes: in.DurationMinutes,
				CaloriesBurned:  in.CaloriesBurned,
				Notes:           in.Notes,
			},
		}
		if err := updated.Validate(); err != nil {
			return nil, nil, err
		}

		sum, err := s.coordinator.ApplyAndRecompute(ctx, userID, stored.DayKey, aggregation.UpdateEntry(stored.DayKey, updated))
		if errors.Is(err, aggregation.ErrEntryMoved) && attempt < maxUpdateAttempts {
			continue
		}
		if err != nil && !errors.Is(err, common.ErrSummaryStale) {
			return nil, nil, err
		}
		if updated.DayKey == stored.DayKey {
			if err != nil {
				return updated, nil, err
			}
			return updated, sum, nil
		}
		staleOld := err

		// the old day already lost the workout, the new day must follow
		sum, err = s.coordinator.Recompute(context.WithoutCancel(ctx), userID, updated.DayKey)
		if err != nil {
			if !errors.Is(err, common.ErrSummaryStale) {
				err = fmt.Errorf("%w: %s: %w", common.ErrSummaryStale, updated.DayKey, err)
			}
			return updated, nil, errors.Join(staleOld, err)
		}
		if staleOld != nil {
			return updated, nil, staleOld
		}
		return updated, sum, nil
	}
}

// SyncMetrics replaces today's device metrics, today being taken in tz.
func (s *AggregationService) SyncMetrics(ctx context.Context, userID string, m models.MetricsFields, tz string) (*models.DaySummary, error) {
	e := s.newEntry(ctx, userID, models.KindDeviceMetrics, "", time.Time{}, tz)
	e.Metrics = &m
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return s.coordinator.ApplyAndRecompute(ctx, userID, e.DayKey, aggregation.SyncMetrics(e))
}

// GetSummary returns the stored summary of a day, or a zero summary when the
// day has none.
func (s *AggregationService) GetSummary(ctx context.Context, userID string, day civil.Date) (*models.DaySummary, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := requireDay(day); err != nil {
		return nil, err
	}
	sum, err := s.repomanager.Summaries(s.conn.Handle()).Get(ctx, userID, day)
	if errors.Is(err, common.ErrNotFound) {
		return models.ZeroSummary(userID, day), nil
	}
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// GetToday is GetSummary for the current day in tz.
func (s *AggregationService) GetToday(ctx context.Context, userID, tz string) (*models.DaySummary, error) {
	return s.GetSummary(ctx, userID, s.today(ctx, tz))
}

// GetRange returns one summary per day from start to end inclusive,
// ascending, with zero summaries for days that have none.
func (s *AggregationService) GetRange(ctx context.Context, userID string, start, end civil.Date) ([]*models.DaySummary, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := requireDay(start); err != nil {
		return nil, err
	}
	if err := requireDay(end); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range end %s is before start %s", common.ErrValidation, end, start)
	}
	if n := end.DaysSince(start) + 1; n > s.maxRangeDays {
		return nil, fmt.Errorf("%w: range of %d days exceeds %d", common.ErrValidation, n, s.maxRangeDays)
	}

	stored, err := s.repomanager.Summaries(s.conn.Handle()).ListRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	byDay := make(map[civil.Date]*models.DaySummary, len(stored))
	for _, sum := range stored {
		byDay[sum.DayKey] = sum
	}

	days := daykey.Span(start, end)
	out := make([]*models.DaySummary, 0, len(days))
	for _, d := range days {
		if sum, ok := byDay[d]; ok {
			out = append(out, sum)
			continue
		}
		out = append(out, models.ZeroSummary(userID, d))
	}
	return out, nil
}

// ListEntries returns a day's entries, all kinds when kind is empty.
func (s *AggregationService) ListEntries(ctx context.Context, userID string, day civil.Date, kind models.EntryKind) ([]*models.Entry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := requireDay(day); err != nil {
		return nil, err
	}
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown entry kind %q", common.ErrValidation, kind)
	}
	return s.repomanager.Entries(s.conn.Handle()).ListByDay(ctx, userID, day, kind)
}

// Recompute rebuilds a day's summary without changing its entries.
func (s *AggregationService) Recompute(ctx context.Context, userID string, day civil.Date) (*models.DaySummary, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := requireDay(day); err != nil {
		return nil, err
	}
	return s.coordinator.Recompute(ctx, userID, day)
}

func (s *AggregationService) newEntry(ctx context.Context, userID string, kind models.EntryKind, idempotencyKey string, occurredAt time.Time, tz string) *models.Entry {
	if occurredAt.IsZero() {
		occurredAt = s.days.Now()
	}
	zone := s.zone(ctx, tz)
	return &models.Entry{
		ID:         entryID(userID, idempotencyKey),
		UserID:     userID,
		Kind:       kind,
		OccurredAt: occurredAt.UTC(),
		DayKey:     daykey.Resolve(occurredAt, zone),
		Timezone:   zone,
	}
}

// addEntry stores e unless its id already exists. A repeated add, such as a
// client retrying after ErrSummaryStale, is answered with the stored entry
// and rebuilds the day that entry lives on, not the day e resolves to now.
func (s *AggregationService) addEntry(ctx context.Context, e *models.Entry, idempotent bool) (*models.Entry, *models.DaySummary, error) {
	if err := e.Validate(); err != nil {
		return nil, nil, err
	}
	if idempotent {
		stored, err := s.repomanager.Entries(s.conn.Handle()).Get(ctx, e.UserID, e.ID)
		switch {
		case err == nil:
			return s.replay(ctx, e, stored)
		case !errors.Is(err, common.ErrNotFound):
			return nil, nil, err
		}
	}

	var created bool
	sum, err := s.coordinator.ApplyAndRecompute(ctx, e.UserID, e.DayKey, aggregation.AddEntry(e, &created))
	if err != nil && !errors.Is(err, common.ErrSummaryStale) {
		return nil, nil, err
	}
	if !created {
		// a concurrent add with the same key won
		stored, err := s.repomanager.Entries(s.conn.Handle()).Get(ctx, e.UserID, e.ID)
		if err != nil {
			return nil, nil, err
		}
		return s.replay(ctx, e, stored)
	}
	if err != nil {
		return e, nil, err
	}
	return e, sum, nil
}

func (s *AggregationService) replay(ctx context.Context, e, stored *models.Entry) (*models.Entry, *models.DaySummary, error) {
	if stored.Kind != e.Kind {
		return nil, nil, fmt.Errorf("%w: idempotency key already used for a %s entry", common.ErrValidation, stored.Kind)
	}
	s.logger.Debug(ctx, "repeated add, rebuilding stored day", "user_id", stored.UserID, "entry_id", stored.ID, "day", stored.DayKey.String())

	sum, err := s.coordinator.Recompute(ctx, stored.UserID, stored.DayKey)
	if err != nil {
		if errors.Is(err, common.ErrSummaryStale) {
			return stored, nil, err
		}
		return nil, nil, err
	}
	return stored, sum, nil
}

func (s *AggregationService) deleteEntry(ctx context.Context, userID, entryID string, kind models.EntryKind) (*models.DaySummary, error) {
	e, err := s.ownedEntry(ctx, userID, entryID, kind)
	if err != nil {
		return nil, err
	}
	return s.coordinator.ApplyAndRecompute(ctx, userID, e.DayKey, aggregation.DeleteEntry(userID, entryID))
}

// ownedEntry loads an entry of the given kind owned by userID.
func (s *AggregationService) ownedEntry(ctx context.Context, userID, entryID string, kind models.EntryKind) (*models.Entry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	// ids are UUIDs, anything else cannot exist
	if _, err := uuid.Parse(entryID); err != nil {
		return nil, common.ErrNotFound
	}

	e, err := s.repomanager.Entries(s.conn.Handle()).Get(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if e.Kind != kind {
		return nil, common.ErrNotFound
	}
	return e, nil
}

// zone normalizes tz, logging when a supplied zone is unusable.
func (s *AggregationService) zone(ctx context.Context, tz string) string {
	if _, ok := daykey.LoadLocation(tz); !ok && strings.TrimSpace(tz) != "" {
		s.logger.Warn(ctx, "unknown timezone, using UTC", "timezone", tz)
	}
	return daykey.Normalize(tz)
}

func (s *AggregationService) today(ctx context.Context, tz string) civil.Date {
	return s.days.Today(s.zone(ctx, tz))
}

func entryID(userID, idempotencyKey string) string {
	if idempotencyKey == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(entryIDNamespace, []byte(userID+"\x00"+idempotencyKey)).String()
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", common.ErrValidation)
	}
	return nil
}

func requireDay(day civil.Date) error {
	if !day.IsValid() {
		return fmt.Errorf("%w: invalid day %q", common.ErrValidation, day)
	}
	return nil
}
