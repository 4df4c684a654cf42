package services

import (
	"errors"
	"fmt"
)

var (
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	ErrStatusConflict       = errors.New("status was changed by another request")
	ErrModuleClosed         = errors.New("module is not open for this project status")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAttachmentsDisabled  = errors.New("attachments are not configured")
)

// ValidationError reports bad input. It is returned before any store call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// TransitionError names the rejected move. It matches ErrTransitionNotAllowed.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot move from %q to %q", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrTransitionNotAllowed }

// ModuleClosedError names the module and the project status that locks it.
type ModuleClosedError struct {
	Module        string
	ProjectStatus string
}

func (e *ModuleClosedError) Error() string {
	return fmt.Sprintf("%s is not available while the project is %q", e.Module, e.ProjectStatus)
}

func (e *ModuleClosedError) Unwrap() error { return ErrModuleClosed }
