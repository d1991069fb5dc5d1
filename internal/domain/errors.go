// Package domain defines the resource kinds, typed records, outcome contract,
// and error taxonomy shared by the reconciliation engine and its collaborators.
package domain

import (
	"errors"
	"fmt"
)

// ResolutionError indicates a tenant name did not match any child account.
type ResolutionError struct {
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not find child account %q", e.Name)
}

// TransportError wraps any failure reported by the remote API client.
type TransportError struct {
	Op    string
	Scope TenantScope
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s (scope %s): %v", e.Op, e.Scope, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError indicates a caller-supplied value outside the accepted domain.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Step names the engine stage a terminal error came from.
type Step string

// Engine steps.
const (
	StepValidate Step = "validate"
	StepResolve  Step = "resolve"
	StepFetch    Step = "fetch"
	StepMutate   Step = "mutate"
)

// ReconcileError is the terminal error of a reconciliation. It carries the
// Outcome assembled up to the failing step.
type ReconcileError struct {
	Step    Step
	Kind    Kind
	Scope   TenantScope
	Outcome Outcome
	Err     error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconcile %s: %s: %v", e.Kind, e.Step, e.Err)
}

func (e *ReconcileError) Unwrap() error { return e.Err }

// ErrResolution creates a ResolutionError for the given tenant name.
func ErrResolution(name string) *ResolutionError {
	return &ResolutionError{Name: name}
}

// ErrTransport wraps err as a TransportError for operation op.
func ErrTransport(op string, scope TenantScope, err error) *TransportError {
	return &TransportError{Op: op, Scope: scope, Err: err}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsResolution reports whether err is or wraps a ResolutionError.
func IsResolution(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
