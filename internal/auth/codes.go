package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redmonkez12/taskrooms/internal/cache"
)

var (
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")
	ErrInvalidResetCode        = errors.New("invalid or expired reset code")
)

// Cache key namespaces. Verification and reset codes are keyed by email.
const (
	verificationCodeNamespace = "confirm_code"
	resetCodeNamespace        = "reset_code"
)

// GenerateCode returns a random six-digit numeric code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// VerificationCodes stores email verification codes in plaintext.
// Codes are short-lived and single-purpose, so hashing buys nothing here.
type VerificationCodes struct {
	store cache.Store
	ttl   time.Duration
}

func NewVerificationCodes(store cache.Store, ttl time.Duration) *VerificationCodes {
	return &VerificationCodes{store: store, ttl: ttl}
}

func (c *VerificationCodes) Set(ctx context.Context, email, code string) error {
	return c.store.Set(ctx, cache.Key(verificationCodeNamespace, email), code, c.ttl)
}

// Check compares the submitted code to the stored one. An absent (expired)
// entry and a mismatch are both reported as ErrInvalidVerificationCode.
func (c *VerificationCodes) Check(ctx context.Context, email, code string) error {
	stored, err := c.store.Get(ctx, cache.Key(verificationCodeNamespace, email))
	if errors.Is(err, cache.ErrNotFound) {
		return ErrInvalidVerificationCode
	}
	if err != nil {
		return fmt.Errorf("failed to read verification code: %w", err)
	}
	if stored != code {
		return ErrInvalidVerificationCode
	}
	return nil
}

// Delete consumes the code. Callers invoke this only after the user
// state update has committed; a stale entry is harmless, a verified
// user without the flag set is not.
func (c *VerificationCodes) Delete(ctx context.Context, email string) error {
	return c.store.Delete(ctx, cache.Key(verificationCodeNamespace, email))
}

// ResetCodes stores password reset codes as one-way argon2id hashes,
// limiting blast radius if the cache is compromised.
type ResetCodes struct {
	store cache.Store
	ttl   time.Duration
}

func NewResetCodes(store cache.Store, ttl time.Duration) *ResetCodes {
	return &ResetCodes{store: store, ttl: ttl}
}

func (c *ResetCodes) Set(ctx context.Context, email, code string) error {
	hashed, err := HashPassword(code)
	if err != nil {
		return fmt.Errorf("failed to hash reset code: %w", err)
	}
	return c.store.Set(ctx, cache.Key(resetCodeNamespace, email), hashed, c.ttl)
}

// Check hashes the submitted code and compares it to the stored hash.
func (c *ResetCodes) Check(ctx context.Context, email, code string) error {
	stored, err := c.store.Get(ctx, cache.Key(resetCodeNamespace, email))
	if errors.Is(err, cache.ErrNotFound) {
		return ErrInvalidResetCode
	}
	if err != nil {
		return fmt.Errorf("failed to read reset code: %w", err)
	}
	if !VerifyPassword(stored, code) {
		return ErrInvalidResetCode
	}
	return nil
}

func (c *ResetCodes) Delete(ctx context.Context, email string) error {
	return c.store.Delete(ctx, cache.Key(resetCodeNamespace, email))
}
