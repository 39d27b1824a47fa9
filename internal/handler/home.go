package handler

import "net/http"

// APIVersion is reported by the root endpoint.
const APIVersion = "1.0.0"

// HandleHome describes the API.
func HandleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Task Management API",
		"version": APIVersion,
		"status":  "running",
		"endpoints": map[string]string{
			"health": "/health",
			"auth":   "/auth",
			"tasks":  "/tasks",
		},
	})
}
