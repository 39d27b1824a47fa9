package handler

import (
	"net/http"

	"github.com/msomdec/task-tracker/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. authLimiter may be
// nil to disable rate limiting of the credential endpoints.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, tasks *service.TaskService, db Pinger, authLimiter *service.TokenBucket) {
	authHandler := NewAuthHandler(auth)
	taskHandler := NewTaskHandler(tasks)
	healthHandler := NewHealthHandler(db)

	mux.HandleFunc("GET /{$}", HandleHome)
	mux.HandleFunc("GET /health", healthHandler.HandleHealth)

	mux.Handle("POST /auth/register", RateLimit(authLimiter, http.HandlerFunc(authHandler.HandleRegister)))
	mux.Handle("POST /auth/login", RateLimit(authLimiter, http.HandlerFunc(authHandler.HandleLogin)))
	mux.Handle("GET /auth/me", RequireAuth(auth, http.HandlerFunc(authHandler.HandleMe)))

	mux.Handle("GET /tasks", RequireAuth(auth, http.HandlerFunc(taskHandler.HandleList)))
	mux.Handle("POST /tasks", RequireAuth(auth, http.HandlerFunc(taskHandler.HandleCreate)))
}
