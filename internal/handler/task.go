package handler

import (
	"errors"
	"net/http"

	"github.com/msomdec/task-tracker/internal/domain"
	"github.com/msomdec/task-tracker/internal/service"
)

// TaskHandler serves the authenticated task endpoints.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

// HandleList returns the principal's tasks, newest first.
// GET /tasks
// Response: 200 {"success":true,"tasks":[...],"count":N}
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Token is missing")
		return
	}

	tasks, err := h.tasks.List(r.Context(), userID)
	if err != nil {
		LoggerFromContext(r.Context()).Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"tasks":   toTaskDTOs(tasks),
		"count":   len(tasks),
	})
}

// HandleCreate stores a new task for the principal.
// POST /tasks
// Request:  {"title":"...","description":"...","status":"...","priority":"..."}
// Response: 201 {"success":true,"message":"...","task":{...}}
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Token is missing")
		return
	}

	var req createTaskRequest
	if err := readJSON(w, r, &req); err != nil || validate.Struct(req) != nil {
		writeMessage(w, http.StatusBadRequest, "Title is required")
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeMessage(w, http.StatusBadRequest, "Title is required")
			return
		}
		LoggerFromContext(r.Context()).Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Task created successfully",
		"task":    toTaskDTO(task),
	})
}
