package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/redmonkez12/taskrooms/internal/logging"
)

var (
	ErrForbidden    = errors.New("insufficient role for this action")
	ErrNameRequired = errors.New("room name is required")
)

// RoomRepository is the persistence contract consumed by the service.
// The bun implementation is Repository.
type RoomRepository interface {
	CreateWithCreator(ctx context.Context, name string, creatorID uuid.UUID) (*Room, error)
	GetByID(ctx context.Context, roomID uuid.UUID) (*Room, error)
	MembershipOf(ctx context.Context, userID, roomID uuid.UUID) (*Membership, error)
	AddMember(ctx context.Context, userID, roomID uuid.UUID, role Role) (*Membership, error)
}

// Service handles room, membership and invite business logic
type Service struct {
	repo    RoomRepository
	invites *InviteCodes
	logger  *logging.Logger
}

func NewService(repo RoomRepository, invites *InviteCodes, logger *logging.Logger) *Service {
	return &Service{
		repo:    repo,
		invites: invites,
		logger:  logger,
	}
}

// CreateRoom creates a room owned by the user. The creator membership
// is written atomically with the room.
func (s *Service) CreateRoom(ctx context.Context, userID uuid.UUID, name string) (*Room, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.repo.CreateWithCreator(ctx, name, userID)
}

// MembershipOf resolves the caller's membership in a room.
// Non-members get ErrNotMember; every room-scoped operation starts here.
func (s *Service) MembershipOf(ctx context.Context, userID, roomID uuid.UUID) (*Membership, error) {
	return s.repo.MembershipOf(ctx, userID, roomID)
}

// CreateInviteLink issues a fresh invite code for the room.
// Restricted to creator and admin roles.
func (s *Service) CreateInviteLink(ctx context.Context, member *Membership) (string, error) {
	if !member.Role.Can(ActionManageInvite) {
		return "", ErrForbidden
	}

	code, err := GenerateInviteCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	if err := s.invites.Set(ctx, member.RoomID, code); err != nil {
		return "", fmt.Errorf("failed to store invite code: %w", err)
	}

	s.logger.Info("invite code created", "room_id", member.RoomID, "user_id", member.UserID)

	return code, nil
}

// DeleteInviteLink revokes the room's live invite code.
// Restricted to creator and admin roles.
func (s *Service) DeleteInviteLink(ctx context.Context, member *Membership) error {
	if !member.Role.Can(ActionManageInvite) {
		return ErrForbidden
	}

	if err := s.invites.Delete(ctx, member.RoomID); err != nil {
		return fmt.Errorf("failed to delete invite code: %w", err)
	}

	s.logger.Info("invite code deleted", "room_id", member.RoomID, "user_id", member.UserID)

	return nil
}

// Join adds the user to a room as a member when the invite code matches.
// The code stays live afterwards; joining does not consume it.
func (s *Service) Join(ctx context.Context, userID, roomID uuid.UUID, code string) (*Membership, error) {
	if _, err := s.repo.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, ErrNotFound) {
			// A missing room and a bad code look the same to the caller
			return nil, ErrInvalidInviteCode
		}
		return nil, err
	}

	if err := s.invites.Check(ctx, roomID, code); err != nil {
		return nil, err
	}

	member, err := s.repo.AddMember(ctx, userID, roomID, RoleMember)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user joined room", "room_id", roomID, "user_id", userID)

	return member, nil
}
