package domain

import (
	"errors"
	"fmt"
)

// Business-rule violations. Services detect these before any write is attempted.
var (
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrUnauthorized            = errors.New("actor is not authorized for this operation")
	ErrAlreadyAssigned         = errors.New("already assigned to another staff member")
	ErrMissingFinalizationData = errors.New("approval requires deal amount, advance and final deadline")
	ErrLeadAlreadyConverted    = errors.New("lead already converted")
	ErrIncompleteDealTerms     = errors.New("deal terms are incomplete")
	ErrInsufficientBalance     = errors.New("insufficient commission balance")
	ErrBelowMinimumPayout      = errors.New("amount is below the minimum payout")
	ErrTaskAlreadyActive       = errors.New("project already has an active task")
	ErrNotFound                = errors.New("not found")
	ErrValidation              = errors.New("validation error")
)

// ErrPermissionDenied is raised by the store's own authorization layer, as opposed to
// ErrUnauthorized which is checked in-process before the store is consulted.
var ErrPermissionDenied = errors.New("permission denied by store")

// PermissionDeniedError carries the context an operator needs to diagnose a store rejection.
type PermissionDeniedError struct {
	Collection string
	Operation  string
	Payload    any
	Err        error
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("%s %s: %v (payload=%+v)", e.Operation, e.Collection, ErrPermissionDenied, e.Payload)
}

func (e *PermissionDeniedError) Unwrap() error { return e.Err }

func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}
