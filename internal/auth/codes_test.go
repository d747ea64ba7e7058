package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/taskrooms/internal/cache"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^\d{6}$`, code)
		seen[code] = true
	}
	// 50 draws from a million values colliding down to a handful would
	// indicate a broken generator
	assert.Greater(t, len(seen), 40)
}

func TestVerificationCodes(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	codes := NewVerificationCodes(store, 5*time.Minute)

	require.NoError(t, codes.Set(ctx, "user@example.com", "123456"))

	assert.NoError(t, codes.Check(ctx, "user@example.com", "123456"))
	assert.ErrorIs(t, codes.Check(ctx, "user@example.com", "654321"), ErrInvalidVerificationCode)
	assert.ErrorIs(t, codes.Check(ctx, "other@example.com", "123456"), ErrInvalidVerificationCode)

	require.NoError(t, codes.Delete(ctx, "user@example.com"))
	assert.ErrorIs(t, codes.Check(ctx, "user@example.com", "123456"), ErrInvalidVerificationCode)
}

func TestVerificationCodes_Expiry(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()

	base := time.Now()
	store.SetClock(func() time.Time { return base })

	codes := NewVerificationCodes(store, 5*time.Minute)
	require.NoError(t, codes.Set(ctx, "user@example.com", "123456"))

	store.SetClock(func() time.Time { return base.Add(4 * time.Minute) })
	assert.NoError(t, codes.Check(ctx, "user@example.com", "123456"))

	store.SetClock(func() time.Time { return base.Add(6 * time.Minute) })
	assert.ErrorIs(t, codes.Check(ctx, "user@example.com", "123456"), ErrInvalidVerificationCode)
}

func TestVerificationCodes_Overwrite(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	codes := NewVerificationCodes(store, 5*time.Minute)

	require.NoError(t, codes.Set(ctx, "user@example.com", "111111"))
	require.NoError(t, codes.Set(ctx, "user@example.com", "222222"))

	// A resend invalidates the previous code
	assert.ErrorIs(t, codes.Check(ctx, "user@example.com", "111111"), ErrInvalidVerificationCode)
	assert.NoError(t, codes.Check(ctx, "user@example.com", "222222"))
}

func TestResetCodes_StoredHashed(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	codes := NewResetCodes(store, 5*time.Minute)

	require.NoError(t, codes.Set(ctx, "user@example.com", "123456"))

	// The raw cache entry must be an argon2id digest, never the plaintext
	raw, err := store.Get(ctx, cache.Key("reset_code", "user@example.com"))
	require.NoError(t, err)
	assert.NotEqual(t, "123456", raw)
	assert.Contains(t, raw, "$argon2id$")
}

func TestResetCodes_Check(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	codes := NewResetCodes(store, 5*time.Minute)

	require.NoError(t, codes.Set(ctx, "user@example.com", "123456"))

	assert.NoError(t, codes.Check(ctx, "user@example.com", "123456"))
	assert.ErrorIs(t, codes.Check(ctx, "user@example.com", "000000"), ErrInvalidResetCode)
	assert.ErrorIs(t, codes.Check(ctx, "nobody@example.com", "123456"), ErrInvalidResetCode)

	require.NoError(t, codes.Delete(ctx, "user@example.com"))
	assert.ErrorIs(t, codes.Check(ctx, "user@example.com", "123456"), ErrInvalidResetCode)
}
