package authctx

import (
	"errors"

	apperrors "techlam/internal/errors"
)

// ErrorKind classifies sign-in and sign-up failures for display.
type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindEmailNotVerified   ErrorKind = "email_not_verified"
	KindAlreadyRegistered  ErrorKind = "already_registered"
	KindOther              ErrorKind = "other"
)

// AuthError is returned by SignIn and SignUp.
type AuthError struct {
	Kind ErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func signInError(err error) error {
	kind := KindOther
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		kind = KindInvalidCredentials
	case errors.Is(err, apperrors.ErrEmailNotVerified):
		kind = KindEmailNotVerified
	}
	return &AuthError{Kind: kind, Err: err}
}

func signUpError(err error) error {
	kind := KindOther
	if errors.Is(err, apperrors.ErrAlreadyRegistered) {
		kind = KindAlreadyRegistered
	}
	return &AuthError{Kind: kind, Err: err}
}

// KindOf returns the classification of err, or KindOther.
func KindOf(err error) ErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindOther
}
