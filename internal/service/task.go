package service

import (
	"context"
	"fmt"

	"github.com/msomdec/task-tracker/internal/domain"
)

// TaskService manages a user's tasks. Every call takes the authenticated
// owner explicitly; there is no way to reach another user's rows.
type TaskService struct {
	tasks domain.TaskRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(tasks domain.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks}
}

// CreateTaskInput holds the caller supplied fields of a new task. Empty
// Status and Priority fall back to their defaults.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
}

// Create stores a new task for userID and returns it as persisted.
func (s *TaskService) Create(ctx context.Context, userID int64, in CreateTaskInput) (*domain.Task, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	task := &domain.Task{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = domain.TaskPriorityMedium
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	stored, err := s.tasks.GetByID(ctx, userID, task.ID)
	if err != nil {
		return nil, fmt.Errorf("reload task: %w", err)
	}
	return stored, nil
}

// List returns all of userID's tasks, newest first.
func (s *TaskService) List(ctx context.Context, userID int64) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}
