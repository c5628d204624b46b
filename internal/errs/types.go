package errs

import (
	"net/http"
)

func newError(status int, message string, override bool, code *string) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(status))
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   status,
		Override: override,
	}
}

func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	err := newError(http.StatusBadRequest, message, override, code)
	err.Errors = errors
	err.Action = action
	return err
}

func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	return newError(http.StatusNotFound, message, override, code)
}

// NewTooManyRequestsError is returned by the rate limiter.
func NewTooManyRequestsError(message string) *HTTPError {
	return newError(http.StatusTooManyRequests, message, true, nil)
}

// NewServiceUnavailableError reports a dependency (database, redis, blob
// store) that could not serve the request.
func NewServiceUnavailableError(message string) *HTTPError {
	return newError(http.StatusServiceUnavailable, message, true, nil)
}

func NewInternalServerError() *HTTPError {
	return newError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), false, nil)
}

func ValidationError(err error) *HTTPError {
	return NewBadRequestError("Validation failed: "+err.Error(), false, nil, nil, nil)
}
