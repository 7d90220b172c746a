// Package apperrors defines the failure taxonomy shared by the storefront
// services and handlers. Every failure degrades to a user-visible state;
// none of them is fatal to the process.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNetwork marks a backend request that was rejected or timed out.
	ErrNetwork = errors.New("network failure")
	// ErrValidation marks input rejected before any request is sent.
	ErrValidation = errors.New("validation failure")
	// ErrDuplicateItem is the soft signal for adding a product already in the cart.
	ErrDuplicateItem = errors.New("already present in the cart")
	// ErrNotFound marks a detail lookup for an id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks rejected credentials or a missing session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSuperseded is returned for a response that arrived after a newer
	// request for the same logical list was issued.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// ValidationError carries per-field messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failure: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match a *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NotFound wraps ErrNotFound with the resource and id.
func NotFound(resource, id string) error {
	return fmt.Errorf("%s with ID %s %w", resource, id, ErrNotFound)
}

// Network wraps cause as a network failure.
func Network(op string, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrNetwork, cause)
}
