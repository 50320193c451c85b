// Package aggregation keeps each user's day summary equal to the fold of that
// day's entries. Writes to one (user, day) are serialized through a slot;
// each write is followed by a full recompute saved in one transaction.
package aggregation

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/dmitrijs2005/dailyagg/internal/dbx"
	"github.com/dmitrijs2005/dailyagg/internal/logging"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
	"github.com/dmitrijs2005/dailyagg/internal/server/repositories/entries"
	"github.com/dmitrijs2005/dailyagg/internal/server/repositories/repomanager"
)

// Mutation changes the entry store for exactly one (user, day).
type Mutation func(ctx context.Context, repo entries.Repository) error

// AddEntry stores a meal or workout. Storing an id that already exists is
// not an error; created, when non-nil, reports whether e was new.
func AddEntry(e *models.Entry, created *bool) Mutation {
	return func(ctx context.Context, repo entries.Repository) error {
		ok, err := repo.Put(ctx, e)
		if created != nil {
			*created = ok
		}
		return err
	}
}

// ErrEntryMoved is returned by UpdateEntry when the stored entry no longer
// lives on the day whose slot is held. Re-read it and retry.
var ErrEntryMoved = errors.New("entry moved to another day")

// UpdateEntry rewrites the stored entry with e's fields. from is the day the
// caller expects the entry to be stored on, the day whose slot it runs under.
func UpdateEntry(from civil.Date, e *models.Entry) Mutation {
	return func(ctx context.Context, repo entries.Repository) error {
		cur, err := repo.Get(ctx, e.UserID, e.ID)
		if err != nil {
			return err
		}
		if cur.DayKey != from {
			return ErrEntryMoved
		}
		return repo.Update(ctx, e)
	}
}

// DeleteEntry removes one entry of the user.
func DeleteEntry(userID, entryID string) Mutation {
	return func(ctx context.Context, repo entries.Repository) error {
		return repo.Delete(ctx, userID, entryID)
	}
}

// SyncMetrics replaces the day's device metrics with e.
func SyncMetrics(e *models.Entry) Mutation {
	return func(ctx context.Context, repo entries.Repository) error {
		_, err := repo.UpsertLatestMetrics(ctx, e)
		return err
	}
}

type Coordinator struct {
	conn   dbx.Conn
	repos  repomanager.RepositoryManager
	slots  *Slots
	logger logging.Logger
}

func NewCoordinator(conn dbx.Conn, repos repomanager.RepositoryManager, logger logging.Logger) *Coordinator {
	return &Coordinator{
		conn:   conn,
		repos:  repos,
		slots:  NewSlots(),
		logger: logger.With("module", "aggregation"),
	}
}

// ApplyAndRecompute applies m and returns the day's rebuilt summary.
//
// Cancelling ctx only abandons the wait for the slot (common.ErrCancelled).
// Once the slot is held the work runs to completion regardless. If m fails
// its error is returned and nothing is recomputed; if m succeeds but the
// summary cannot be rebuilt or saved the error wraps common.ErrSummaryStale
// and m is not undone.
func (c *Coordinator) ApplyAndRecompute(ctx context.Context, userID string, day civil.Date, m Mutation) (*models.DaySummary, error) {
	key := SlotKey{UserID: userID, Day: day}

	release, err := c.slots.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx = context.WithoutCancel(ctx)

	if err := m(ctx, c.repos.Entries(c.conn.Handle())); err != nil {
		return nil, err
	}

	s, err := c.recomputeAndSave(ctx, userID, day)
	if err != nil {
		c.logger.Warn(ctx, "summary left stale", "user_id", userID, "day", day.String(), "error", err)
		return nil, fmt.Errorf("%w: %s: %w", common.ErrSummaryStale, key, err)
	}
	return s, nil
}

// Recompute rebuilds and saves the day's summary without changing entries.
// Callers use it to heal a day after common.ErrSummaryStale.
func (c *Coordinator) Recompute(ctx context.Context, userID string, day civil.Date) (*models.DaySummary, error) {
	return c.ApplyAndRecompute(ctx, userID, day, func(context.Context, entries.Repository) error { return nil })
}

func (c *Coordinator) recomputeAndSave(ctx context.Context, userID string, day civil.Date) (*models.DaySummary, error) {
	var out *models.DaySummary
	err := c.conn.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		s, err := Recompute(ctx, c.repos.Entries(tx), userID, day)
		if err != nil {
			return err
		}
		if err := c.repos.Summaries(tx).Save(ctx, s); err != nil {
			return fmt.Errorf("save summary: %w", err)
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
