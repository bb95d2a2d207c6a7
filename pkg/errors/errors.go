package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Setup errors abort the scenario step that raised them: a missing template
// or an unresolved placeholder means the test itself is broken, not the
// tracking. Validation outcomes are never represented as errors.
var (
	ErrConfigNotFound        = NewError("CONFIG_NOT_FOUND", "module template not found", http.StatusNotFound)
	ErrPlaceholderUnresolved = NewError("PLACEHOLDER_UNRESOLVED", "template placeholder has no runtime value", http.StatusUnprocessableEntity)
	ErrTemplateInvalid       = NewError("TEMPLATE_INVALID", "module template failed schema validation", http.StatusUnprocessableEntity)
	ErrCaptureNotRunning     = NewError("CAPTURE_NOT_RUNNING", "tracker is not capturing", http.StatusConflict)
	ErrSessionFailed         = NewError("SESSION_FAILED", "browser session error", http.StatusBadGateway)
	ErrNotFound              = NewError("NOT_FOUND", "resource not found", http.StatusNotFound)
	ErrInternal              = NewError("INTERNAL_ERROR", "internal error", http.StatusInternalServerError)
)

type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Cause   error
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		if detailMsg, ok := e.Details["message"].(string); ok && detailMsg != "" {
			msg = detailMsg
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match any instance derived from the same sentinel.
func (e *Error) Is(target error) bool {
	var appErr *Error
	if errors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	if err.Details == nil {
		err.Details = make(map[string]interface{})
	}
	err.Details[key] = value
	return &err
}

func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	err := *e
	err.Message = fmt.Sprintf(format, args...)
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

func IsConfigNotFound(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == ErrConfigNotFound.Code
	}
	return false
}

func IsPlaceholderUnresolved(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == ErrPlaceholderUnresolved.Code
	}
	return false
}

func ToHTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

func ToErrorResponse(err error) map[string]interface{} {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal.WithCause(err)
	}

	response := map[string]interface{}{
		"error":      appErr.Message,
		"error_code": appErr.Code,
	}

	if len(appErr.Details) > 0 {
		response["details"] = appErr.Details
	}

	return response
}
