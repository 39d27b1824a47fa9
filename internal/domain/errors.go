package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateUser = errors.New("username or email already exists")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidInput  = errors.New("invalid input")
)
