package most

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForCode(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{CodeBadRequest, http.StatusBadRequest},
		{CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{CodeInternalServerError, http.StatusInternalServerError},
		{CodeClientClosedRequest, 499},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeConflict, http.StatusConflict},
		{CodeTooManyRequests, http.StatusTooManyRequests},
		{Code("SOMETHING_CUSTOM"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, StatusForCode(tc.code), "code %s", tc.code)
	}
}

func TestAsError_TypedPassthrough(t *testing.T) {
	typed := NewError(CodeConflict, "already exists")

	assert.Same(t, typed, AsError(typed))
	assert.Same(t, typed, AsError(fmt.Errorf("wrapped: %w", typed)))
}

func TestAsError_MaxBytes(t *testing.T) {
	err := AsError(&http.MaxBytesError{Limit: 10})

	assert.Equal(t, CodePayloadTooLarge, err.Code)
	assert.Equal(t, string(CodePayloadTooLarge), err.Message)
}

func TestAsError_Generic(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := AsError(cause)

	assert.Equal(t, CodeInternalServerError, err.Code)
	assert.Equal(t, "boom", err.Message)
	require.ErrorIs(t, err, cause)
}

func TestError_MessageFallsBackToCode(t *testing.T) {
	err := NewError(CodeTimeout, "")

	assert.Equal(t, "TIMEOUT", err.Error())
	assert.Equal(t, http.StatusRequestTimeout, err.Status())
}
