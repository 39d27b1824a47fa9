package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/msomdec/task-tracker/internal/domain"
	"github.com/msomdec/task-tracker/internal/service"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister processes a JSON registration request.
// POST /auth/register
// Request:  {"username":"...","email":"...","password":"..."}
// Response: 201 {"message":"...","token":"...","user":{...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(w, r, &req); err != nil || validate.Struct(req) != nil {
		writeMessage(w, http.StatusBadRequest, "Username, email and password required")
		return
	}

	res, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateUser):
			writeMessage(w, http.StatusBadRequest, "Username or email already exists")
		case errors.Is(err, domain.ErrInvalidInput):
			writeMessage(w, http.StatusBadRequest, "Username, email and password required")
		default:
			LoggerFromContext(r.Context()).Error("register user", "error", err)
			writeMessage(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "User created successfully",
		Token:   res.Token,
		User:    toUserDTO(res.User),
	})
}

// HandleLogin processes a JSON login request.
// POST /auth/login
// Request:  {"email":"...","password":"..."}
// Response: 200 {"message":"...","token":"...","user":{...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil || validate.Struct(req) != nil {
		writeMessage(w, http.StatusBadRequest, "Email and password required")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, domain.ErrInvalidInput):
			writeMessage(w, http.StatusBadRequest, "Email and password required")
		default:
			LoggerFromContext(r.Context()).Error("login user", "error", err)
			writeMessage(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		}
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    toUserDTO(res.User),
	})
}

// HandleMe returns the currently authenticated user.
// GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Token is missing")
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		LoggerFromContext(r.Context()).Error("get current user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}
