package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database row for a registered account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsVerified   bool      `bun:"is_verified,notnull,default:false"`
	IsActive     bool      `bun:"is_active,notnull,default:true"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Room is a shared task container owned by its creator.
type Room struct {
	bun.BaseModel `bun:"table:rooms,alias:r"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name      string    `bun:"name,notnull"`
	CreatedBy uuid.UUID `bun:"created_by,notnull,type:uuid"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// RoomMember links a user to a room with a role.
// One row per (user, room) pair; exactly one creator row per room.
type RoomMember struct {
	bun.BaseModel `bun:"table:room_members,alias:rm"`

	ID       uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID   uuid.UUID `bun:"user_id,notnull,type:uuid"`
	RoomID   uuid.UUID `bun:"room_id,notnull,type:uuid"`
	Role     string    `bun:"role,notnull"`
	JoinedAt time.Time `bun:"joined_at,notnull,default:current_timestamp"`
}

// Task is either personal (room_id NULL) or room-owned (room_id set).
// user_id is the creator for room tasks and the owner for personal tasks.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Title       string     `bun:"title,notnull"`
	Description string     `bun:"description,notnull,default:''"`
	OwnerType   string     `bun:"owner_type,notnull"`
	UserID      uuid.UUID  `bun:"user_id,notnull,type:uuid"`
	RoomID      *uuid.UUID `bun:"room_id,type:uuid"`
	AssignedID  *uuid.UUID `bun:"assigned_id,type:uuid"`
	Completed   bool       `bun:"completed,notnull,default:false"`
	CompletedAt *time.Time `bun:"completed_at"`
	DueAt       time.Time  `bun:"due_at,notnull"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}
