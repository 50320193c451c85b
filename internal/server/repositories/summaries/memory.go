package summaries

import (
	"context"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
)

type memoryKey struct {
	userID string
	day    civil.Date
}

// MemoryRepository keeps summaries in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[memoryKey]models.DaySummary
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[memoryKey]models.DaySummary), now: time.Now}
}

func (r *MemoryRepository) Get(ctx context.Context, userID string, day civil.Date) (*models.DaySummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.data[memoryKey{userID, day}]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) ListRange(ctx context.Context, userID string, start, end civil.Date) ([]*models.DaySummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.DaySummary
	for k, s := range r.data {
		if k.userID != userID || k.day.Before(start) || k.day.After(end) {
			continue
		}
		result = append(result, &s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DayKey.Before(result[j].DayKey) })
	return result, nil
}

func (r *MemoryRepository) Save(ctx context.Context, s *models.DaySummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *s
	stored.UpdatedAt = r.now().UTC()
	r.data[memoryKey{s.UserID, s.DayKey}] = stored
	return nil
}

func (r *MemoryRepository) DeleteBefore(ctx context.Context, cutoff civil.Date) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k := range r.data {
		if k.day.Before(cutoff) {
			delete(r.data, k)
			n++
		}
	}
	return n, nil
}
