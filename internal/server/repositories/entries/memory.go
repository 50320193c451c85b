package entries

import (
	"context"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
)

// MemoryRepository keeps entries in process memory. Returned entries are
// copies; callers may modify them freely.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*models.Entry
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]*models.Entry), now: time.Now}
}

func (r *MemoryRepository) Put(ctx context.Context, entry *models.Entry) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.ID]; ok {
		return false, nil
	}
	stored := cloneEntry(entry)
	stored.CreatedAt = r.now().UTC()
	r.entries[entry.ID] = stored
	return true, nil
}

func (r *MemoryRepository) Update(ctx context.Context, entry *models.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[entry.ID]
	if !ok || e.UserID != entry.UserID || e.Kind != entry.Kind {
		return common.ErrNotFound
	}
	stored := cloneEntry(entry)
	stored.CreatedAt = e.CreatedAt
	r.entries[entry.ID] = stored
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, userID, entryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[entryID]
	if !ok || e.UserID != userID {
		return common.ErrNotFound
	}
	delete(r.entries, entryID)
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, userID, entryID string) (*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[entryID]
	if !ok || e.UserID != userID {
		return nil, common.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (r *MemoryRepository) ListByDay(ctx context.Context, userID string, day civil.Date, kind models.EntryKind) ([]*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var result []*models.Entry
	for _, e := range r.entries {
		if e.UserID == userID && e.DayKey == day && (kind == "" || e.Kind == kind) {
			result = append(result, cloneEntry(e))
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].OccurredAt.Equal(result[j].OccurredAt) {
			return result[i].OccurredAt.Before(result[j].OccurredAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *MemoryRepository) UpsertLatestMetrics(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.UserID == entry.UserID && e.DayKey == entry.DayKey && e.Kind == models.KindDeviceMetrics {
			m := *entry.Metrics
			e.Metrics = &m
			e.OccurredAt = entry.OccurredAt
			e.Timezone = entry.Timezone
			return cloneEntry(e), nil
		}
	}

	stored := cloneEntry(entry)
	stored.Kind = models.KindDeviceMetrics
	stored.CreatedAt = r.now().UTC()
	r.entries[stored.ID] = stored
	return cloneEntry(stored), nil
}

func (r *MemoryRepository) DeleteBefore(ctx context.Context, cutoff civil.Date) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, e := range r.entries {
		if e.DayKey.Before(cutoff) {
			delete(r.entries, id)
			n++
		}
	}
	return n, nil
}

func cloneEntry(e *models.Entry) *models.Entry {
	c := *e
	if e.Meal != nil {
		m := *e.Meal
		c.Meal = &m
	}
	if e.Workout != nil {
		w := *e.Workout
		c.Workout = &w
	}
	if e.Metrics != nil {
		m := *e.Metrics
		c.Metrics = &m
	}
	return &c
}
