package task

import (
	"time"

	"github.com/google/uuid"
)

// OwnerType tags who a task belongs to.
type OwnerType string

const (
	OwnerTypeUser OwnerType = "user"
	OwnerTypeRoom OwnerType = "room"
)

// Owner is a tagged variant: a task is either personal or room-owned.
// For personal tasks UserID is the owner; for room tasks RoomID is set
// and UserID is the creating user.
type Owner struct {
	Type   OwnerType  `json:"type"`
	UserID uuid.UUID  `json:"user_id"`
	RoomID *uuid.UUID `json:"room_id,omitempty"`
}

// PersonalOwner builds the owner tag for a personal task
func PersonalOwner(userID uuid.UUID) Owner {
	return Owner{Type: OwnerTypeUser, UserID: userID}
}

// RoomOwner builds the owner tag for a room task created by a user
func RoomOwner(roomID, creatorID uuid.UUID) Owner {
	return Owner{Type: OwnerTypeRoom, UserID: creatorID, RoomID: &roomID}
}

type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Owner       Owner      `json:"owner"`
	AssignedID  *uuid.UUID `json:"assigned_id,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DueAt       time.Time  `json:"due_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Patch carries the optional fields of a partial update. Only fields
// explicitly present in the request are non-nil and applied.
type Patch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Completed   *bool      `json:"completed"`
	DueAt       *time.Time `json:"due_at"`
}

// Apply merges the set fields into the task. When completed changes,
// completed_at is derived as a named post-merge step: now on true,
// cleared on false. Callers can never set completed_at directly.
func (p Patch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueAt != nil {
		t.DueAt = *p.DueAt
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
		deriveCompletedAt(t, now)
	}
}

func deriveCompletedAt(t *Task, now time.Time) {
	if t.Completed {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
}
