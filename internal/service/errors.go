package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no server has the requested uuid.
var ErrNotFound = errors.New("server not found")

// ValidationError rejects a request before it reaches storage.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError is returned when creating a uuid that is already stored.
type ConflictError struct {
	UUID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("server %s already exists", e.UUID)
}
