package identity

import (
	"context"
	"sync"
	"time"
)

// MarkerStore remembers which subjects already have a local user record.
type MarkerStore interface {
	IsMarked(ctx context.Context, subject string) (bool, error)
	Mark(ctx context.Context, subject string, ttl time.Duration) error
	Unmark(ctx context.Context, subject string) error
}

// MemoryMarkers keeps markers in a sync.Map with per-entry expiry.
type MemoryMarkers struct {
	entries sync.Map
	now     func() time.Time
}

func NewMemoryMarkers() *MemoryMarkers {
	return &MemoryMarkers{now: time.Now}
}

func (m *MemoryMarkers) IsMarked(_ context.Context, subject string) (bool, error) {
	v, ok := m.entries.Load(subject)
	if !ok {
		return false, nil
	}
	if m.now().After(v.(time.Time)) {
		m.entries.Delete(subject)
		return false, nil
	}
	return true, nil
}

func (m *MemoryMarkers) Mark(_ context.Context, subject string, ttl time.Duration) error {
	m.entries.Store(subject, m.now().Add(ttl))
	return nil
}

func (m *MemoryMarkers) Unmark(_ context.Context, subject string) error {
	m.entries.Delete(subject)
	return nil
}

// Warm marks every id, typically all users already in the database.
func (m *MemoryMarkers) Warm(ids []string, ttl time.Duration) {
	until := m.now().Add(ttl)
	for _, id := range ids {
		m.entries.Store(id, until)
	}
}
