package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const markerNamespace = "user_synced"

// Markers stores sync markers as expiring Redis keys so that every API
// instance shares them.
type Markers struct {
	client redis.UniversalClient
}

func New(addr, password string, db int) *Markers {
	return &Markers{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func NewWithClient(client redis.UniversalClient) *Markers {
	return &Markers{client: client}
}

func key(subject string) string {
	return markerNamespace + ":" + subject
}

func (m *Markers) Ping(ctx context.Context) error {
	const op = "storage.redis.Ping"

	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (m *Markers) IsMarked(ctx context.Context, subject string) (bool, error) {
	const op = "storage.redis.IsMarked"

	err := m.client.Get(ctx, key(subject)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (m *Markers) Mark(ctx context.Context, subject string, ttl time.Duration) error {
	const op = "storage.redis.Mark"

	if err := m.client.Set(ctx, key(subject), "true", ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (m *Markers) Unmark(ctx context.Context, subject string) error {
	const op = "storage.redis.Unmark"

	if err := m.client.Del(ctx, key(subject)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (m *Markers) Close() error {
	return m.client.Close()
}
