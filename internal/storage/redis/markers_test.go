package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMarkers(t *testing.T) *Markers {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}

	m := New(addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, m.Ping(context.Background()))
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMarkers(t *testing.T) {
	m := newTestMarkers(t)
	ctx := context.Background()
	subject := uuid.NewString()

	marked, err := m.IsMarked(ctx, subject)
	require.NoError(t, err)
	assert.False(t, marked)

	require.NoError(t, m.Mark(ctx, subject, time.Minute))
	marked, err = m.IsMarked(ctx, subject)
	require.NoError(t, err)
	assert.True(t, marked)

	require.NoError(t, m.Unmark(ctx, subject))
	marked, err = m.IsMarked(ctx, subject)
	require.NoError(t, err)
	assert.False(t, marked)
}

func TestMarkersExpire(t *testing.T) {
	m := newTestMarkers(t)
	ctx := context.Background()
	subject := uuid.NewString()

	require.NoError(t, m.Mark(ctx, subject, 50*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	marked, err := m.IsMarked(ctx, subject)
	require.NoError(t, err)
	assert.False(t, marked)
}
