package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/taskrooms/internal/logging"
	"github.com/redmonkez12/taskrooms/internal/room"
)

var (
	ErrTitleRequired = errors.New("task title is required")
	ErrDueAtRequired = errors.New("task due date is required")
)

// TaskRepository is the persistence contract consumed by the service.
// The bun implementation is Repository.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) (*Task, error)
	ListPersonal(ctx context.Context, userID uuid.UUID, ord Ordering) ([]Task, error)
	ListRoom(ctx context.Context, roomID uuid.UUID, ord Ordering) ([]Task, error)
	GetPersonal(ctx context.Context, userID, taskID uuid.UUID) (*Task, error)
	GetRoom(ctx context.Context, roomID, taskID uuid.UUID) (*Task, error)
	Update(ctx context.Context, task *Task) (*Task, error)
	Delete(ctx context.Context, taskID uuid.UUID) error
	Assign(ctx context.Context, taskID, userID uuid.UUID) error
}

type CreateInput struct {
	Title       string
	Description string
	DueAt       time.Time
}

// Service handles personal and room task business logic. Personal
// tasks are scoped purely by ownership; room tasks additionally go
// through the role authority of the caller's membership.
type Service struct {
	repo   TaskRepository
	logger *logging.Logger
	now    func() time.Time
}

func NewService(repo TaskRepository, logger *logging.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) validateCreate(input CreateInput) error {
	if input.Title == "" {
		return ErrTitleRequired
	}
	if input.DueAt.IsZero() {
		return ErrDueAtRequired
	}
	return nil
}

// CreatePersonal creates a task owned by the user directly.
func (s *Service) CreatePersonal(ctx context.Context, userID uuid.UUID, input CreateInput) (*Task, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &Task{
		Title:       input.Title,
		Description: input.Description,
		Owner:       PersonalOwner(userID),
		DueAt:       input.DueAt,
	})
}

// CreateInRoom creates a task owned by the member's room.
// Members cannot create tasks; creators and admins can.
func (s *Service) CreateInRoom(ctx context.Context, member *room.Membership, input CreateInput) (*Task, error) {
	if !member.Role.Can(room.ActionCreateTask) {
		return nil, room.ErrForbidden
	}
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &Task{
		Title:       input.Title,
		Description: input.Description,
		Owner:       RoomOwner(member.RoomID, member.UserID),
		DueAt:       input.DueAt,
	})
}

// ListPersonal lists the user's personal tasks ordered by orderBy.
func (s *Service) ListPersonal(ctx context.Context, userID uuid.UUID, orderBy string) ([]Task, error) {
	ord, err := ParseOrdering(orderBy)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPersonal(ctx, userID, ord)
}

// ListRoom lists all tasks of the member's room. Every role may list.
func (s *Service) ListRoom(ctx context.Context, member *room.Membership, orderBy string) ([]Task, error) {
	ord, err := ParseOrdering(orderBy)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRoom(ctx, member.RoomID, ord)
}

func (s *Service) GetPersonal(ctx context.Context, userID, taskID uuid.UUID) (*Task, error) {
	return s.repo.GetPersonal(ctx, userID, taskID)
}

func (s *Service) GetRoom(ctx context.Context, member *room.Membership, taskID uuid.UUID) (*Task, error) {
	return s.repo.GetRoom(ctx, member.RoomID, taskID)
}

// PatchPersonal applies a partial update to a personal task.
func (s *Service) PatchPersonal(ctx context.Context, userID, taskID uuid.UUID, patch Patch) (*Task, error) {
	task, err := s.repo.GetPersonal(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	patch.Apply(task, s.now())
	if task.Title == "" {
		return nil, ErrTitleRequired
	}

	return s.repo.Update(ctx, task)
}

// PatchRoom applies a partial update to a room task. General edits
// require the edit action; a patch that only toggles completed falls
// back to the complete path so members can finish their own work.
func (s *Service) PatchRoom(ctx context.Context, member *room.Membership, taskID uuid.UUID, patch Patch) (*Task, error) {
	task, err := s.repo.GetRoom(ctx, member.RoomID, taskID)
	if err != nil {
		return nil, err
	}

	if !member.Role.Can(room.ActionEditTask) {
		if !isCompletionOnly(patch) || !s.mayCompleteAssigned(member, task) {
			return nil, room.ErrForbidden
		}
	}

	patch.Apply(task, s.now())
	if task.Title == "" {
		return nil, ErrTitleRequired
	}

	return s.repo.Update(ctx, task)
}

// CompletePersonal marks a personal task complete. Completing an
// already-complete task re-stamps completed_at.
func (s *Service) CompletePersonal(ctx context.Context, userID, taskID uuid.UUID) (*Task, error) {
	task, err := s.repo.GetPersonal(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	task.Completed = true
	deriveCompletedAt(task, s.now())

	return s.repo.Update(ctx, task)
}

// CompleteRoom marks a room task complete. Creators and admins may
// complete any task; members only tasks assigned to them.
func (s *Service) CompleteRoom(ctx context.Context, member *room.Membership, taskID uuid.UUID) (*Task, error) {
	task, err := s.repo.GetRoom(ctx, member.RoomID, taskID)
	if err != nil {
		return nil, err
	}

	if !member.Role.Can(room.ActionEditTask) && !s.mayCompleteAssigned(member, task) {
		return nil, room.ErrForbidden
	}

	task.Completed = true
	deriveCompletedAt(task, s.now())

	return s.repo.Update(ctx, task)
}

// DeletePersonal deletes a personal task owned by the user.
func (s *Service) DeletePersonal(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.repo.GetPersonal(ctx, userID, taskID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, task.ID)
}

// DeleteRoom deletes a room task. Restricted to creator and admin.
func (s *Service) DeleteRoom(ctx context.Context, member *room.Membership, taskID uuid.UUID) error {
	task, err := s.repo.GetRoom(ctx, member.RoomID, taskID)
	if err != nil {
		return err
	}
	if !member.Role.Can(room.ActionDeleteTask) {
		return room.ErrForbidden
	}
	return s.repo.Delete(ctx, task.ID)
}

// Accept claims an unassigned room task for the caller. Assignment is
// first-come-first-served: a concurrent claimer losing the conditional
// update gets ErrConflict, including when the task is already theirs.
func (s *Service) Accept(ctx context.Context, member *room.Membership, taskID uuid.UUID) (*Task, error) {
	task, err := s.repo.GetRoom(ctx, member.RoomID, taskID)
	if err != nil {
		return nil, err
	}
	if !member.Role.Can(room.ActionAcceptTask) {
		return nil, room.ErrForbidden
	}

	if err := s.repo.Assign(ctx, task.ID, member.UserID); err != nil {
		return nil, err
	}

	return s.repo.GetRoom(ctx, member.RoomID, taskID)
}

func (s *Service) mayCompleteAssigned(member *room.Membership, task *Task) bool {
	if !member.Role.Can(room.ActionCompleteAssigned) {
		return false
	}
	return task.AssignedID != nil && *task.AssignedID == member.UserID
}

// isCompletionOnly reports whether the patch does nothing but mark the task
// complete. Clearing the flag is an edit, not a completion, so it does not
// qualify.
func isCompletionOnly(p Patch) bool {
	return p.Completed != nil && *p.Completed &&
		p.Title == nil && p.Description == nil && p.DueAt == nil
}
