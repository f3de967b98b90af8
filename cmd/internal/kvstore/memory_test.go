package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T) *MemoryClient {
	t.Helper()
	m, err := NewMemoryClient(Config{MemoryMaxEntries: 1000})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemoryClient_SetGetDelete(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.EnsureConnected(ctx))

	_, found, err := m.Get(ctx, "session:1")
	require.NoError(t, err)
	require.False(t, found)

	wrote, err := m.SetWithExpiry(ctx, "session:1", "tok-a", 60)
	require.NoError(t, err)
	require.True(t, wrote)

	v, found, err := m.Get(ctx, "session:1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "tok-a", v)

	_, err = m.SetWithExpiry(ctx, "session:1", "tok-b", 60)
	require.NoError(t, err)
	v, _, _ = m.Get(ctx, "session:1")
	require.Equal(t, "tok-b", v)

	require.NoError(t, m.Delete(ctx, "session:1"))
	_, found, err = m.Get(ctx, "session:1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryClient_NonPositiveTTLDoesNotWrite(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	wrote, err := m.SetWithExpiry(ctx, "session:0", "tok", 0)
	require.NoError(t, err)
	require.False(t, wrote)

	_, found, err := m.Get(ctx, "session:0")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryClient_Expiry(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	_, err := m.SetWithExpiry(ctx, "session:1", "tok", 1)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, found, err := m.Get(ctx, "session:1")
		return err == nil && !found
	}, 3*time.Second, 50*time.Millisecond)
}

func TestMemoryClient_Closed(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Close())
	require.ErrorIs(t, m.EnsureConnected(ctx), ErrClosed)

	_, _, err := m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrClosed)
}
