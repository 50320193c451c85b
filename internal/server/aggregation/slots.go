package aggregation

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/common"
	"golang.org/x/sync/semaphore"
)

// SlotKey identifies one user's day.
type SlotKey struct {
	UserID string
	Day    civil.Date
}

func (k SlotKey) String() string {
	return k.UserID + "/" + k.Day.String()
}

type slot struct {
	sem  *semaphore.Weighted
	refs int
}

// Slots hands out one exclusive slot per key. Waiters on the same key are
// served in arrival order; different keys never wait on each other. A slot
// exists only while someone holds or waits for it.
type Slots struct {
	mu    sync.Mutex
	slots map[SlotKey]*slot
}

func NewSlots() *Slots {
	return &Slots{slots: make(map[SlotKey]*slot)}
}

// Acquire blocks until the slot for key is held or ctx is done. The returned
// release func must be called exactly once; further calls are no-ops.
func (s *Slots) Acquire(ctx context.Context, key SlotKey) (release func(), err error) {
	s.mu.Lock()
	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{sem: semaphore.NewWeighted(1)}
		s.slots[key] = sl
	}
	sl.refs++
	s.mu.Unlock()

	if err := sl.sem.Acquire(ctx, 1); err != nil {
		s.unref(key, sl)
		return nil, fmt.Errorf("%w: waiting for %s: %w", common.ErrCancelled, key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			sl.sem.Release(1)
			s.unref(key, sl)
		})
	}, nil
}

func (s *Slots) unref(key SlotKey, sl *slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl.refs--
	if sl.refs == 0 {
		delete(s.slots, key)
	}
}

// Len reports how many keys currently have a live slot.
func (s *Slots) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
