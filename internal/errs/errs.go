// Package errs holds the sentinel errors shared across the service layers.
// Callers wrap them with fmt.Errorf("...: %w", errs.ErrX) and test with errors.Is.
package errs

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("invalid credentials")
)
