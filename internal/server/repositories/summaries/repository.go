package summaries

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
)

// Repository stores the derived per-day summaries.
type Repository interface {
	// Get returns the stored summary or common.ErrNotFound.
	Get(ctx context.Context, userID string, day civil.Date) (*models.DaySummary, error)
	// ListRange returns stored summaries for start..end inclusive, ascending.
	// Days without a stored summary are absent from the result.
	ListRange(ctx context.Context, userID string, start, end civil.Date) ([]*models.DaySummary, error)
	// Save replaces the stored summary for (UserID, DayKey).
	Save(ctx context.Context, s *models.DaySummary) error
	DeleteBefore(ctx context.Context, cutoff civil.Date) (int64, error)
}
