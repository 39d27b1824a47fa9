package domain

import (
	"context"
	"time"
)

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Status      string
	Priority    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	TaskStatusPending  = "pending"
	TaskPriorityMedium = "medium"
)

// TaskRepository defines persistence operations for tasks. Every read is
// scoped to an owner.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, userID, id int64) (*Task, error)
	ListByUser(ctx context.Context, userID int64) ([]Task, error)
}
