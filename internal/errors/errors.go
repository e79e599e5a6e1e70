package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind is the closed set of failure categories surfaced by the service.
type Kind string

const (
	// The identifier is malformed; no lookup was attempted.
	KindValidation Kind = "ValidationError"
	// The identifier is well formed but nothing matched it.
	KindDataNotFound Kind = "DataNotFoundError"
	// Any other storage failure.
	KindDatabase Kind = "DatabaseError"
	// Failure in a surrounding integration (clients, tooling).
	KindRuntime Kind = "RuntimeError"
)

// AppError is the single error type returned by the store, the engine and
// the client.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError of the same kind, which lets the sentinels
// below be used with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is checks.
var (
	ErrValidation   = &AppError{Kind: KindValidation}
	ErrDataNotFound = &AppError{Kind: KindDataNotFound}
	ErrDatabase     = &AppError{Kind: KindDatabase}
	ErrRuntime      = &AppError{Kind: KindRuntime}
)

// New returns an error of the given kind with a fixed message.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Validation reports a malformed request, such as a bad id or empty message.
func Validation(format string, args ...any) *AppError {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// DataNotFound reports an id or bulk selector that matched no task.
func DataNotFound(format string, args ...any) *AppError {
	return New(KindDataNotFound, fmt.Sprintf(format, args...))
}

// Database wraps a storage failure. The cause is kept for logging and
// errors.As but its text is appended to the message.
func Database(cause error, format string, args ...any) *AppError {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &AppError{Kind: KindDatabase, Message: msg, Err: cause}
}

// Runtime reports an unexpected failure outside the store.
func Runtime(format string, args ...any) *AppError {
	return New(KindRuntime, fmt.Sprintf(format, args...))
}

// KindOf returns the taxonomy tag of err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// APIError is the JSON body of every failure response. Error is omitted for
// failures outside the taxonomy.
type APIError struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// ContextKeyErrorKind is where responders leave the tag for request logging.
const ContextKeyErrorKind = "error_kind"

// RespondWithError maps err to a status code: taxonomy members are 400,
// anything else is 500 with only a message.
func RespondWithError(c *gin.Context, err error) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		c.Set(ContextKeyErrorKind, string(appErr.Kind))
		c.JSON(http.StatusBadRequest, APIError{
			Error:   string(appErr.Kind),
			Message: appErr.Message,
		})
		return
	}
	InternalError(c, "")
}

// BadRequest sends a 400 ValidationError response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, Validation("%s", message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	c.JSON(http.StatusInternalServerError, APIError{Message: message})
}
