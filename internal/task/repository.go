package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/taskrooms/internal/database"
)

var (
	ErrNotFound = errors.New("task not found")
	ErrConflict = errors.New("task is already assigned")
)

// Repository handles task persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, task *Task) (*Task, error) {
	dbTask := mapModelToDBTask(task)

	_, err := r.db.NewInsert().
		Model(dbTask).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	return mapDBTaskToModel(dbTask), nil
}

// ListPersonal returns the personal tasks of a user in the requested order.
func (r *Repository) ListPersonal(ctx context.Context, userID uuid.UUID, ord Ordering) ([]Task, error) {
	var dbTasks []database.Task
	err := r.db.NewSelect().
		Model(&dbTasks).
		Where("owner_type = ?", string(OwnerTypeUser)).
		Where("user_id = ?", userID).
		OrderExpr(ord.SQL()).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return mapDBTasksToModels(dbTasks), nil
}

// ListRoom returns all tasks of a room in the requested order.
func (r *Repository) ListRoom(ctx context.Context, roomID uuid.UUID, ord Ordering) ([]Task, error) {
	var dbTasks []database.Task
	err := r.db.NewSelect().
		Model(&dbTasks).
		Where("owner_type = ?", string(OwnerTypeRoom)).
		Where("room_id = ?", roomID).
		OrderExpr(ord.SQL()).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list room tasks: %w", err)
	}

	return mapDBTasksToModels(dbTasks), nil
}

// GetPersonal retrieves a personal task scoped to its owner. Tasks
// outside the scope are indistinguishable from missing ones.
func (r *Repository) GetPersonal(ctx context.Context, userID, taskID uuid.UUID) (*Task, error) {
	dbTask := new(database.Task)
	err := r.db.NewSelect().
		Model(dbTask).
		Where("id = ?", taskID).
		Where("owner_type = ?", string(OwnerTypeUser)).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return mapDBTaskToModel(dbTask), nil
}

// GetRoom retrieves a room task scoped to its room.
func (r *Repository) GetRoom(ctx context.Context, roomID, taskID uuid.UUID) (*Task, error) {
	dbTask := new(database.Task)
	err := r.db.NewSelect().
		Model(dbTask).
		Where("id = ?", taskID).
		Where("owner_type = ?", string(OwnerTypeRoom)).
		Where("room_id = ?", roomID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room task: %w", err)
	}

	return mapDBTaskToModel(dbTask), nil
}

// Update persists the mutable fields of a task. assigned_id is deliberately
// absent from the column list: assignment only ever changes through Assign,
// and writing back a stale value here would erase a concurrent assignment.
func (r *Repository) Update(ctx context.Context, task *Task) (*Task, error) {
	dbTask := mapModelToDBTask(task)
	dbTask.UpdatedAt = time.Now().UTC()

	res, err := r.db.NewUpdate().
		Model(dbTask).
		Column("title", "description", "completed", "completed_at", "due_at", "updated_at").
		WherePK().
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBTaskToModel(dbTask), nil
}

func (r *Repository) Delete(ctx context.Context, taskID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*database.Task)(nil)).
		Where("id = ?", taskID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Assign claims an unassigned task for a user. The single conditional
// UPDATE is the whole race: of two concurrent claimers exactly one
// matches the assigned_id IS NULL predicate, the other gets ErrConflict.
func (r *Repository) Assign(ctx context.Context, taskID, userID uuid.UUID) error {
	res, err := r.db.NewUpdate().
		Model((*database.Task)(nil)).
		Set("assigned_id = ?", userID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", taskID).
		Where("assigned_id IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to assign task: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrConflict
	}

	return nil
}

func mapModelToDBTask(t *Task) *database.Task {
	dbTask := &database.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		OwnerType:   string(t.Owner.Type),
		UserID:      t.Owner.UserID,
		RoomID:      t.Owner.RoomID,
		AssignedID:  t.AssignedID,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		DueAt:       t.DueAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	return dbTask
}

func mapDBTaskToModel(dbt *database.Task) *Task {
	owner := Owner{
		Type:   OwnerType(dbt.OwnerType),
		UserID: dbt.UserID,
		RoomID: dbt.RoomID,
	}
	return &Task{
		ID:          dbt.ID,
		Title:       dbt.Title,
		Description: dbt.Description,
		Owner:       owner,
		AssignedID:  dbt.AssignedID,
		Completed:   dbt.Completed,
		CompletedAt: dbt.CompletedAt,
		DueAt:       dbt.DueAt,
		CreatedAt:   dbt.CreatedAt,
		UpdatedAt:   dbt.UpdatedAt,
	}
}

func mapDBTasksToModels(dbTasks []database.Task) []Task {
	tasks := make([]Task, 0, len(dbTasks))
	for i := range dbTasks {
		tasks = append(tasks, *mapDBTaskToModel(&dbTasks[i]))
	}
	return tasks
}
