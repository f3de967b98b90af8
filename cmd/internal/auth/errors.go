package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrConflict is the kind behind ConflictError.
	ErrConflict = errors.New("conflict")

	// ErrRegistrationFailed hides any non-conflict registration failure.
	ErrRegistrationFailed = errors.New("registration failed")

	// ErrInvalidInput is the kind behind ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownIdentity is returned when a token's subject no longer exists.
	ErrUnknownIdentity = errors.New("unknown identity")

	// ErrUnavailable is returned when the credential directory cannot be consulted.
	ErrUnavailable = errors.New("temporarily unavailable")
)

// ConflictError names the field that is already taken ("email" or "username").
type ConflictError struct {
	Field string
}

func (e ConflictError) Error() string {
	if e.Field == "" {
		return ErrConflict.Error()
	}
	return fmt.Sprintf("%s: %s already taken", ErrConflict, e.Field)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e ValidationError) Unwrap() error { return ErrInvalidInput }
