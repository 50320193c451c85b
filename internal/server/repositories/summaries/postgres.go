// Package summaries stores the per-day aggregates derived from entries.
package summaries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/dmitrijs2005/dailyagg/internal/dbx"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
)

const summaryColumns = `user_id, day_key,
	total_calories, total_protein, total_carbs, total_fat,
	breakfast_calories, lunch_calories, dinner_calories, snack_calories, meal_count,
	steps, calories_burned, active_minutes, distance_km, floors_climbed, heart_rate_bpm, sleep_hours,
	workout_count, workout_minutes, workout_calories,
	updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, op, err)
}

func (r *PostgresRepository) Get(ctx context.Context, userID string, day civil.Date) (*models.DaySummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM day_summaries WHERE user_id = $1 AND day_key = $2`

	s, err := scanSummary(r.db.QueryRowContext(ctx, query, userID, day.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, storeErr("select summary", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListRange(ctx context.Context, userID string, start, end civil.Date) ([]*models.DaySummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM day_summaries
		WHERE user_id = $1 AND day_key BETWEEN $2 AND $3
		ORDER BY day_key
	`
	rows, err := r.db.QueryContext(ctx, query, userID, start.String(), end.String())
	if err != nil {
		return nil, storeErr("select summaries", err)
	}
	defer rows.Close()

	var result []*models.DaySummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, storeErr("scan summary", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate summaries", err)
	}
	return result, nil
}

func (r *PostgresRepository) Save(ctx context.Context, s *models.DaySummary) error {
	query := `
		INSERT INTO day_summaries (
			user_id, day_key,
			total_calories, total_protein, total_carbs, total_fat,
			breakfast_calories, lunch_calories, dinner_calories, snack_calories, meal_count,
			steps, calories_burned, active_minutes, distance_km, floors_climbed, heart_rate_bpm, sleep_hours,
			workout_count, workout_minutes, workout_calories,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, now())
		ON CONFLICT (user_id, day_key) DO UPDATE SET
			total_calories = EXCLUDED.total_calories,
			total_protein = EXCLUDED.total_protein,
			total_carbs = EXCLUDED.total_carbs,
			total_fat = EXCLUDED.total_fat,
			breakfast_calories = EXCLUDED.breakfast_calories,
			lunch_calories = EXCLUDED.lunch_calories,
			dinner_calories = EXCLUDED.dinner_calories,
			snack_calories = EXCLUDED.snack_calories,
			meal_count = EXCLUDED.meal_count,
			steps = EXCLUDED.steps,
			calories_burned = EXCLUDED.calories_burned,
			active_minutes = EXCLUDED.active_minutes,
			distance_km = EXCLUDED.distance_km,
			floors_climbed = EXCLUDED.floors_climbed,
			heart_rate_bpm = EXCLUDED.heart_rate_bpm,
			sleep_hours = EXCLUDED.sleep_hours,
			workout_count = EXCLUDED.workout_count,
			workout_minutes = EXCLUDED.workout_minutes,
			workout_calories = EXCLUDED.workout_calories,
			updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, query,
		s.UserID, s.DayKey.String(),
		s.TotalCalories, s.TotalProtein, s.TotalCarbs, s.TotalFat,
		s.BreakfastCalories, s.LunchCalories, s.DinnerCalories, s.SnackCalories, s.MealCount,
		s.Steps, s.CaloriesBurned, s.ActiveMinutes, s.DistanceKm, s.FloorsClimbed, s.HeartRateBpm, s.SleepHours,
		s.WorkoutCount, s.WorkoutMinutes, s.WorkoutCalories,
	)
	if err != nil {
		return storeErr("upsert summary", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteBefore(ctx context.Context, cutoff civil.Date) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM day_summaries WHERE day_key < $1`, cutoff.String())
	if err != nil {
		return 0, storeErr("delete old summaries", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("rows affected", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (*models.DaySummary, error) {
	var (
		s   models.DaySummary
		day time.Time
	)
	err := sc.Scan(
		&s.UserID, &day,
		&s.TotalCalories, &s.TotalProtein, &s.TotalCarbs, &s.TotalFat,
		&s.BreakfastCalories, &s.LunchCalories, &s.DinnerCalories, &s.SnackCalories, &s.MealCount,
		&s.Steps, &s.CaloriesBurned, &s.ActiveMinutes, &s.DistanceKm, &s.FloorsClimbed, &s.HeartRateBpm, &s.SleepHours,
		&s.WorkoutCount, &s.WorkoutMinutes, &s.WorkoutCalories,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.DayKey = civil.DateOf(day)
	return &s, nil
}
