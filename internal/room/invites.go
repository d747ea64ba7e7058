package room

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/taskrooms/internal/cache"
)

var ErrInvalidInviteCode = errors.New("invalid or expired invite code")

// inviteCodeNamespace keys invite codes by room ID. One live code per
// room; issuing a new code replaces the previous one.
const inviteCodeNamespace = "invite_code"

// GenerateInviteCode generates a random invite code in the format XXXX-XXXX-XXXX
func GenerateInviteCode() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	hex := hex.EncodeToString(bytes)
	return fmt.Sprintf("%s-%s-%s",
		hex[0:4],
		hex[4:8],
		hex[8:12],
	), nil
}

// InviteCodes stores room invite codes in plaintext with a configurable
// TTL. Codes are multi-use: any number of users may join through one
// live code until it expires or is explicitly deleted.
type InviteCodes struct {
	store cache.Store
	ttl   time.Duration
}

func NewInviteCodes(store cache.Store, ttl time.Duration) *InviteCodes {
	return &InviteCodes{store: store, ttl: ttl}
}

func (c *InviteCodes) Set(ctx context.Context, roomID uuid.UUID, code string) error {
	return c.store.Set(ctx, cache.Key(inviteCodeNamespace, roomID.String()), code, c.ttl)
}

// Check compares the submitted code to the live one. Absent (expired or
// revoked) and mismatched codes both report ErrInvalidInviteCode.
func (c *InviteCodes) Check(ctx context.Context, roomID uuid.UUID, code string) error {
	stored, err := c.store.Get(ctx, cache.Key(inviteCodeNamespace, roomID.String()))
	if errors.Is(err, cache.ErrNotFound) {
		return ErrInvalidInviteCode
	}
	if err != nil {
		return fmt.Errorf("failed to read invite code: %w", err)
	}
	if stored != code {
		return ErrInvalidInviteCode
	}
	return nil
}

func (c *InviteCodes) Delete(ctx context.Context, roomID uuid.UUID) error {
	return c.store.Delete(ctx, cache.Key(inviteCodeNamespace, roomID.String()))
}
