package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPErrorConstructors(t *testing.T) {
	code := "CUSTOM"
	bad := NewBadRequestError("condition is required", true, &code, []FieldError{{Field: "condition", Error: "is required"}}, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Status)
	assert.Equal(t, "CUSTOM", bad.Code)
	assert.Len(t, bad.Errors, 1)

	notFound := NewNotFoundError("File not found", true, nil)
	assert.Equal(t, "NOT_FOUND", notFound.Code)

	unavailable := NewServiceUnavailableError("down")
	assert.Equal(t, "SERVICE_UNAVAILABLE", unavailable.Code)
	assert.True(t, unavailable.Override)

	internal := NewInternalServerError()
	assert.Equal(t, "Internal Server Error", internal.Message)
	assert.False(t, internal.Override)
}

func TestHTTPErrorIsAndWithMessage(t *testing.T) {
	base := NewNotFoundError("File not found", true, nil)
	wrapped := fmt.Errorf("open export: %w", base)

	var target *HTTPError
	assert.True(t, errors.As(wrapped, &target))
	assert.True(t, errors.Is(wrapped, &HTTPError{}))

	changed := base.WithMessage("Export not found")
	assert.Equal(t, "Export not found", changed.Message)
	assert.Equal(t, "File not found", base.Message)
	assert.Equal(t, base.Status, changed.Status)
}
