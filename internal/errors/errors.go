package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrTitleRequired is returned when a project is submitted without a title.
	ErrTitleRequired = NewValidationError("title", "title is required")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrEmailNotVerified is returned on sign-in before the email address is confirmed.
	ErrEmailNotVerified = errors.New("email not confirmed")
	// ErrAlreadyRegistered is returned when signing up with an email that already has an account.
	ErrAlreadyRegistered = errors.New("user already registered")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid, revoked or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrInvalidVerificationToken is returned when an email verification token is unknown or used.
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
	// ErrUnauthenticated is returned when an operation needs a session and there is none.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller's role is insufficient.
	ErrForbidden = errors.New("insufficient role")
	// ErrProjectNotFound is returned when a project id does not match a stored row.
	ErrProjectNotFound = errors.New("project not found")
	// ErrContactInfoNotFound is returned when the contact info singleton has not been created yet.
	ErrContactInfoNotFound = errors.New("contact info not found")
	// ErrImageTooLarge is returned when an upload exceeds the configured size limit.
	ErrImageTooLarge = errors.New("image too large")
	// ErrUnsupportedImage is returned when an upload is empty or not an accepted image type.
	ErrUnsupportedImage = errors.New("unsupported image")
	// ErrNotImplemented is returned by surfaces that are listed but not available yet.
	ErrNotImplemented = errors.New("not available yet")
)

// Error codes shared by the API and its clients.
const (
	CodeValidation               = "VALIDATION_ERROR"
	CodeInvalidCredentials       = "INVALID_CREDENTIALS"
	CodeEmailNotVerified         = "EMAIL_NOT_VERIFIED"
	CodeAlreadyRegistered        = "ALREADY_REGISTERED"
	CodeInvalidRefreshToken      = "INVALID_REFRESH_TOKEN"
	CodeInvalidVerificationToken = "INVALID_VERIFICATION_TOKEN"
	CodeUnauthenticated          = "UNAUTHENTICATED"
	CodeForbidden                = "FORBIDDEN"
	CodeProjectNotFound          = "PROJECT_NOT_FOUND"
	CodeContactInfoNotFound      = "CONTACT_INFO_NOT_FOUND"
	CodeImageTooLarge            = "IMAGE_TOO_LARGE"
	CodeUnsupportedImage         = "UNSUPPORTED_IMAGE"
	CodeNotImplemented           = "NOT_IMPLEMENTED"
	CodeRateLimited              = "RATE_LIMITED"
	CodeInternal                 = "INTERNAL_ERROR"
)

// ValidationError reports a caller-correctable problem with one input field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Field      string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
		Field: e.Field,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpErr := NewHTTPError(http.StatusBadRequest, verr.Message, CodeValidation)
		httpErr.Field = verr.Field
		return httpErr
	}

	switch {
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), CodeValidation)
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), CodeInvalidCredentials)
	case errors.Is(err, ErrEmailNotVerified):
		return NewHTTPError(http.StatusForbidden, ErrEmailNotVerified.Error(), CodeEmailNotVerified)
	case errors.Is(err, ErrAlreadyRegistered):
		return NewHTTPError(http.StatusConflict, ErrAlreadyRegistered.Error(), CodeAlreadyRegistered)
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidRefreshToken.Error(), CodeInvalidRefreshToken)
	case errors.Is(err, ErrInvalidVerificationToken):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidVerificationToken.Error(), CodeInvalidVerificationToken)
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error(), CodeUnauthenticated)
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), CodeForbidden)
	case errors.Is(err, ErrProjectNotFound):
		return NewHTTPError(http.StatusNotFound, ErrProjectNotFound.Error(), CodeProjectNotFound)
	case errors.Is(err, ErrContactInfoNotFound):
		return NewHTTPError(http.StatusNotFound, ErrContactInfoNotFound.Error(), CodeContactInfoNotFound)
	case errors.Is(err, ErrImageTooLarge):
		return NewHTTPError(http.StatusRequestEntityTooLarge, err.Error(), CodeImageTooLarge)
	case errors.Is(err, ErrUnsupportedImage):
		return NewHTTPError(http.StatusBadRequest, err.Error(), CodeUnsupportedImage)
	case errors.Is(err, ErrNotImplemented):
		return NewHTTPError(http.StatusNotImplemented, "user management is not available yet", CodeNotImplemented)
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", CodeInternal)
	}
}

// FromCode returns the sentinel error for an API error code, or nil when the code has none.
// Clients use it so that errors.Is works the same on both sides of the wire.
func FromCode(code string) error {
	switch code {
	case CodeValidation:
		return ErrValidation
	case CodeInvalidCredentials:
		return ErrInvalidCredentials
	case CodeEmailNotVerified:
		return ErrEmailNotVerified
	case CodeAlreadyRegistered:
		return ErrAlreadyRegistered
	case CodeInvalidRefreshToken:
		return ErrInvalidRefreshToken
	case CodeInvalidVerificationToken:
		return ErrInvalidVerificationToken
	case CodeUnauthenticated:
		return ErrUnauthenticated
	case CodeForbidden:
		return ErrForbidden
	case CodeProjectNotFound:
		return ErrProjectNotFound
	case CodeContactInfoNotFound:
		return ErrContactInfoNotFound
	case CodeImageTooLarge:
		return ErrImageTooLarge
	case CodeUnsupportedImage:
		return ErrUnsupportedImage
	case CodeNotImplemented:
		return ErrNotImplemented
	default:
		return nil
	}
}
