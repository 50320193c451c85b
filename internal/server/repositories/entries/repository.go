package entries

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
)

// Repository is the durable store of raw entries. Implementations wrap I/O
// failures in common.ErrStoreUnavailable and report missing or foreign
// entries as common.ErrNotFound.
type Repository interface {
	// Put inserts entry. An entry with the same id already stored is left
	// untouched and created is false, which makes retried inserts harmless.
	Put(ctx context.Context, entry *models.Entry) (created bool, err error)
	// Update replaces the time, day and fields of an entry owned by
	// entry.UserID. The kind cannot change.
	Update(ctx context.Context, entry *models.Entry) error
	// Delete removes one entry owned by userID.
	Delete(ctx context.Context, userID, entryID string) error
	// Get returns one entry owned by userID.
	Get(ctx context.Context, userID, entryID string) (*models.Entry, error)
	// ListByDay returns the day's entries, optionally only of kind (empty
	// kind means all), ordered by occurred_at then id.
	ListByDay(ctx context.Context, userID string, day civil.Date, kind models.EntryKind) ([]*models.Entry, error)
	// UpsertLatestMetrics replaces the single device metrics entry of the
	// day and returns the stored entry.
	UpsertLatestMetrics(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	// DeleteBefore removes every entry whose day is before cutoff.
	DeleteBefore(ctx context.Context, cutoff civil.Date) (int64, error)
}
