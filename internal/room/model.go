package room

import (
	"time"

	"github.com/google/uuid"
)

// Role is the membership role inside a room.
type Role string

const (
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
	RoleMember  Role = "member"
)

// Room is a shared task-list container with role-gated membership.
type Room struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership ties a user to a room with a role.
// Exactly one creator membership exists per room, created atomically
// with the room itself.
type Membership struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	RoomID   uuid.UUID `json:"room_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
