package room

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/taskrooms/internal/database"
)

var (
	ErrNotFound      = errors.New("room not found")
	ErrNotMember     = errors.New("user is not a member of the room")
	ErrAlreadyMember = errors.New("user is already a member of the room")
)

// Repository handles room and membership persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithCreator creates the room and its creator membership in one
// transaction. Either both rows exist afterwards or neither does.
func (r *Repository) CreateWithCreator(ctx context.Context, name string, creatorID uuid.UUID) (*Room, error) {
	dbRoom := &database.Room{
		Name:      name,
		CreatedBy: creatorID,
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(dbRoom).
			Returning("*").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert room: %w", err)
		}

		member := &database.RoomMember{
			UserID: creatorID,
			RoomID: dbRoom.ID,
			Role:   string(RoleCreator),
		}
		if _, err := tx.NewInsert().
			Model(member).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert creator membership: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return mapDBRoomToModel(dbRoom), nil
}

// GetByID retrieves a room by ID
func (r *Repository) GetByID(ctx context.Context, roomID uuid.UUID) (*Room, error) {
	dbRoom := new(database.Room)
	err := r.db.NewSelect().
		Model(dbRoom).
		Where("id = ?", roomID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return mapDBRoomToModel(dbRoom), nil
}

// MembershipOf looks up the membership of a user in a room.
// Pure lookup, no creation side effect.
func (r *Repository) MembershipOf(ctx context.Context, userID, roomID uuid.UUID) (*Membership, error) {
	dbMember := new(database.RoomMember)
	err := r.db.NewSelect().
		Model(dbMember).
		Where("user_id = ?", userID).
		Where("room_id = ?", roomID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return mapDBMemberToModel(dbMember), nil
}

// AddMember inserts a membership row with the given role.
// The unique (user, room) constraint turns duplicates into ErrAlreadyMember.
func (r *Repository) AddMember(ctx context.Context, userID, roomID uuid.UUID, role Role) (*Membership, error) {
	dbMember := &database.RoomMember{
		UserID: userID,
		RoomID: roomID,
		Role:   string(role),
	}

	_, err := r.db.NewInsert().
		Model(dbMember).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return mapDBMemberToModel(dbMember), nil
}

func mapDBRoomToModel(dbr *database.Room) *Room {
	return &Room{
		ID:        dbr.ID,
		Name:      dbr.Name,
		CreatedBy: dbr.CreatedBy,
		CreatedAt: dbr.CreatedAt,
	}
}

func mapDBMemberToModel(dbm *database.RoomMember) *Membership {
	return &Membership{
		ID:       dbm.ID,
		UserID:   dbm.UserID,
		RoomID:   dbm.RoomID,
		Role:     Role(dbm.Role),
		JoinedAt: dbm.JoinedAt,
	}
}
