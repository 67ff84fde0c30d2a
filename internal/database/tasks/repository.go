// Package tasks provides database operations for task management.
//
// Every mutation is scoped to the owning user: a task id belonging to
// another user behaves exactly like a missing id. Listing and search share
// one ordering contract, newest first.
//
// # Usage
//
//	repo := tasks.NewRepository(db)
//	items, err := repo.ListForOwner(ownerID, tasks.StatusActive)
package tasks

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taskorbit/taskorbit/internal/database"
	"github.com/taskorbit/taskorbit/internal/entities"
)

// StatusFilter narrows listings by completion state.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"
)

// Update carries the mutable task fields. Nil fields are left untouched.
type Update struct {
	Title       *string
	Description *string
	DueAt       *time.Time
}

// Repository handles all task database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tasks repository over a database handle or a
// unit-of-work transaction.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new task owned by ownerID. The title must be non-empty;
// the owner must exist, so orphaned tasks are never persisted.
func (r *Repository) Create(ownerID uuid.UUID, title, description string) (*entities.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", database.ErrInvalidInput)
	}

	var owner entities.User
	if err := r.db.Where("id = ?", ownerID).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}

	task := &entities.Task{
		UserID:      ownerID,
		Title:       title,
		Description: description,
	}
	if err := r.db.Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// ListForOwner returns the owner's tasks, optionally narrowed by status,
// ordered by creation time descending. The ordering is a user-facing
// contract: most recent tasks come first.
func (r *Repository) ListForOwner(ownerID uuid.UUID, filter StatusFilter) ([]entities.Task, error) {
	var items []entities.Task
	err := r.withStatus(filter).
		Where("user_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

// Get returns a single task if it exists and is owned by ownerID.
func (r *Repository) Get(taskID, ownerID uuid.UUID) (*entities.Task, error) {
	var task entities.Task
	err := r.db.Where("id = ? AND user_id = ?", taskID, ownerID).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// Apply mutates only the fields set in upd. A task that is absent or owned
// by someone else yields ErrNotFound.
func (r *Repository) Apply(taskID, ownerID uuid.UUID, upd Update) (*entities.Task, error) {
	task, err := r.Get(taskID, ownerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, fmt.Errorf("%w: title must not be empty", database.ErrInvalidInput)
		}
		updates["title"] = *upd.Title
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.DueAt != nil {
		updates["due_at"] = *upd.DueAt
	}
	if len(updates) == 0 {
		return task, nil
	}

	if err := r.db.Model(task).Updates(updates).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// Toggle flips the task's completion state: an active task gets its
// completion timestamp set, a completed one has it cleared.
func (r *Repository) Toggle(taskID, ownerID uuid.UUID) (*entities.Task, error) {
	task, err := r.Get(taskID, ownerID)
	if err != nil {
		return nil, err
	}

	var stamp *time.Time
	if task.CompletedAt == nil {
		now := time.Now().UTC()
		stamp = &now
	}

	if err := r.db.Model(task).Update("completed_at", stamp).Error; err != nil {
		return nil, err
	}
	task.CompletedAt = stamp
	return task, nil
}

// Delete removes the task if it exists and is owned by ownerID. Deleting
// an absent id is not an error, which keeps retries simple.
func (r *Repository) Delete(taskID, ownerID uuid.UUID) error {
	return r.db.Where("id = ? AND user_id = ?", taskID, ownerID).
		Delete(&entities.Task{}).Error
}

// Search returns the owner's tasks whose title or description contains the
// text, case-insensitively, with the same ordering as ListForOwner.
func (r *Repository) Search(ownerID uuid.UUID, text string) ([]entities.Task, error) {
	pattern := "%" + text + "%"
	var items []entities.Task
	err := r.db.
		Where("user_id = ?", ownerID).
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

// CountForOwner returns how many tasks match the filter.
func (r *Repository) CountForOwner(ownerID uuid.UUID, filter StatusFilter) (int64, error) {
	var count int64
	err := r.withStatus(filter).
		Model(&entities.Task{}).
		Where("user_id = ?", ownerID).
		Count(&count).Error
	return count, err
}

// PurgeCompletedBefore hard-deletes tasks completed before the cutoff,
// across all users. Used by the retention scheduler.
func (r *Repository) PurgeCompletedBefore(cutoff time.Time) (int64, error) {
	res := r.db.Where("completed_at IS NOT NULL AND completed_at < ?", cutoff).
		Delete(&entities.Task{})
	return res.RowsAffected, res.Error
}

func (r *Repository) withStatus(filter StatusFilter) *gorm.DB {
	switch filter {
	case StatusActive:
		return r.db.Where("completed_at IS NULL")
	case StatusCompleted:
		return r.db.Where("completed_at IS NOT NULL")
	default:
		return r.db
	}
}
