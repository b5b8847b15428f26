package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed input. Nothing is written
// when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports an operation targeting an id that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ProtectedEntityError reports an attempt to remove an entity the system
// depends on, such as the seed location.
type ProtectedEntityError struct {
	Entity string
	ID     string
}

func (e *ProtectedEntityError) Error() string {
	return fmt.Sprintf("%s %s is protected and cannot be deleted", e.Entity, e.ID)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsProtected(err error) bool {
	var target *ProtectedEntityError
	return errors.As(err, &target)
}
