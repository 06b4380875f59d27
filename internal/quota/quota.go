// Package quota counts option generations per user per UTC day.
package quota

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrExceeded = errors.New("daily generation limit reached")

// Store consumes and reports usage. A limit of zero or less is unlimited.
type Store interface {
	Consume(ctx context.Context, userID uuid.UUID, limit int) (used int, err error)
	Used(ctx context.Context, userID uuid.UUID) (int, error)
}

func dayKey(t time.Time) string {
	return t.UTC().Format("20060102")
}

type memKey struct {
	user uuid.UUID
	day  string
}

// MemoryStore is a single-process Store.
type MemoryStore struct {
	mu     sync.Mutex
	now    func() time.Time
	counts map[memKey]int
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now, counts: map[memKey]int{}}
}

func (m *MemoryStore) Consume(ctx context.Context, userID uuid.UUID, limit int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := dayKey(m.now())
	k := memKey{user: userID, day: day}
	used := m.counts[k]
	if limit > 0 && used >= limit {
		return used, ErrExceeded
	}
	used++
	m.counts[k] = used
	for key := range m.counts {
		if key.day != day {
			delete(m.counts, key)
		}
	}
	return used, nil
}

func (m *MemoryStore) Used(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[memKey{user: userID, day: dayKey(m.now())}], nil
}
