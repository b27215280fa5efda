package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrRemoteUnavailable is returned when the remote API cannot be reached or
// answers with a non-success status. Callers substitute a cached value.
type ErrRemoteUnavailable struct {
	Endpoint string
	Err      error
}

func (e *ErrRemoteUnavailable) Error() string {
	return fmt.Sprintf("remote unavailable: %s: %v", e.Endpoint, e.Err)
}

func (e *ErrRemoteUnavailable) Unwrap() error {
	return e.Err
}

// ErrValidation blocks a form transition. Field names the first invalid input.
type ErrValidation struct {
	Step    string
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrNotFound represents a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrOutOfStock is returned when adding an unavailable product to the cart
type ErrOutOfStock struct {
	ProductID int64
	Name      string
}

func (e *ErrOutOfStock) Error() string {
	return fmt.Sprintf("product %d (%s) is out of stock", e.ProductID, e.Name)
}

// ErrInvalidStateTransition represents an invalid checkout step change
type ErrInvalidStateTransition struct {
	From string
	To   string
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrUnauthorized represents a missing or rejected login
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// IsRemoteUnavailable reports whether err wraps an ErrRemoteUnavailable.
func IsRemoteUnavailable(err error) bool {
	var target *ErrRemoteUnavailable
	return stderrors.As(err, &target)
}

// AsValidation extracts an ErrValidation from err.
func AsValidation(err error) (*ErrValidation, bool) {
	var target *ErrValidation
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// AsNotFound extracts an ErrNotFound from err.
func AsNotFound(err error) (*ErrNotFound, bool) {
	var target *ErrNotFound
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// AsOutOfStock extracts an ErrOutOfStock from err.
func AsOutOfStock(err error) (*ErrOutOfStock, bool) {
	var target *ErrOutOfStock
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// AsUnauthorized extracts an ErrUnauthorized from err.
func AsUnauthorized(err error) (*ErrUnauthorized, bool) {
	var target *ErrUnauthorized
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// AsInvalidStateTransition extracts an ErrInvalidStateTransition from err.
func AsInvalidStateTransition(err error) (*ErrInvalidStateTransition, bool) {
	var target *ErrInvalidStateTransition
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}
