package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "confirm_code:user@example.com", Key("confirm_code", "user@example.com"))
}

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	// Overwrite replaces the value
	require.NoError(t, m.Set(ctx, "k", "v2", time.Minute))
	got, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error
	assert.NoError(t, m.Delete(ctx, "k"))
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	base := time.Now()
	m.SetClock(func() time.Time { return base })

	require.NoError(t, m.Set(ctx, "k", "v", 5*time.Minute))

	m.SetClock(func() time.Time { return base.Add(4 * time.Minute) })
	_, err := m.Get(ctx, "k")
	assert.NoError(t, err)

	m.SetClock(func() time.Time { return base.Add(6 * time.Minute) })
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	base := time.Now()
	m.SetClock(func() time.Time { return base })
	require.NoError(t, m.Set(ctx, "k", "v", 0))

	m.SetClock(func() time.Time { return base.Add(1000 * time.Hour) })
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
