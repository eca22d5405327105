package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrDuplicateBusiness is returned when a registration shares business
	// name, address and postcode with an existing account.
	ErrDuplicateBusiness = errors.New("a business with this name and address already exists")

	// ErrDuplicateEmail is returned when a registration reuses an email.
	ErrDuplicateEmail = errors.New("an account with this email already exists")

	// ErrInvalidStateTransition is returned when a lifecycle precondition fails.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrInvalidAmount is returned for non-positive subscription amounts.
	ErrInvalidAmount = errors.New("invalid subscription amount")

	// ErrValidationFailed is returned for incomplete input, e.g. an invoice
	// draft without a customer.
	ErrValidationFailed = errors.New("validation failed")

	ErrNotFound = errors.New("record not found")

	// ErrConcurrentUpdate is returned when a record changed between read and write.
	ErrConcurrentUpdate = errors.New("record was modified concurrently")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPendingApproval    = errors.New("your account is pending approval")
	ErrSessionNotFound    = errors.New("session not found")
	ErrTooManyAttempts    = errors.New("too many attempts, try again later")
)

// TransitionError describes a rejected lifecycle action.
type TransitionError struct {
	Action string
	From   SubscriptionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an account in %q state", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

// ValidationError collects per-field problems.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = reason
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
