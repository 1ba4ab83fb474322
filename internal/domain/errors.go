package domain

import "errors"

var (
	// ErrNotFound is returned when a resource does not exist or is inactive
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when the caller is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller's role does not permit the operation
	ErrForbidden = errors.New("forbidden")

	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
