package admin

import (
	"errors"

	"techlam/internal/authctx"
	"techlam/internal/client"
	apperrors "techlam/internal/errors"
)

const (
	MsgInvalidCredentials = "Invalid email or password. Please try again."
	MsgEmailNotVerified   = "Please verify your email address before signing in."
	MsgAlreadyRegistered  = "An account with this email already exists. Please sign in instead."
	MsgTitleRequired      = "Please enter a project title"
	MsgForbidden          = "You do not have permission to make this change."
	MsgSessionExpired     = "Your session has expired. Please sign in again."
	MsgProjectNotFound    = "This project no longer exists."
	MsgUsersUnavailable   = "User management is not available yet."
	MsgGeneric            = "Something went wrong. Please try again."
)

// Message turns err into text for the person at the keyboard. Errors without a known kind get
// the generic phrase followed by the raw detail.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch authctx.KindOf(err) {
	case authctx.KindInvalidCredentials:
		return MsgInvalidCredentials
	case authctx.KindEmailNotVerified:
		return MsgEmailNotVerified
	case authctx.KindAlreadyRegistered:
		return MsgAlreadyRegistered
	}

	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, apperrors.ErrEmailNotVerified):
		return MsgEmailNotVerified
	case errors.Is(err, apperrors.ErrAlreadyRegistered):
		return MsgAlreadyRegistered
	case errors.Is(err, apperrors.ErrTitleRequired):
		return MsgTitleRequired
	case errors.Is(err, apperrors.ErrForbidden):
		return MsgForbidden
	case errors.Is(err, apperrors.ErrUnauthenticated), errors.Is(err, apperrors.ErrInvalidRefreshToken):
		return MsgSessionExpired
	case errors.Is(err, apperrors.ErrProjectNotFound):
		return MsgProjectNotFound
	case errors.Is(err, apperrors.ErrNotImplemented):
		return MsgUsersUnavailable
	case errors.Is(err, apperrors.ErrValidation):
		return "Please check the form: " + validationDetail(err)
	}
	return MsgGeneric + " (" + err.Error() + ")"
}

func validationDetail(err error) string {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if apiErr, ok := client.AsAPIError(err); ok {
		if apiErr.Field != "" {
			return apiErr.Field + ": " + apiErr.Message
		}
		return apiErr.Message
	}
	return err.Error()
}
