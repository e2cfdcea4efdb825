package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "integrity error type", errType: ErrTypeIntegrity, expected: "INTEGRITY"},
		{name: "parsing error type", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "missing input error type", errType: ErrTypeMissingInput, expected: "MISSING_INPUT"},
		{name: "storage error type", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation error type", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "not found error type", errType: ErrTypeNotFound, expected: "NOT_FOUND"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NewAppValidationError("window is empty")
		assert.Equal(t, "[VALIDATION] window is empty", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		err := NewStorageError("write panel", errors.New("disk full"))
		assert.Equal(t, "[STORAGE] write panel: disk full", err.Error())
	})

	t.Run("context keys are sorted", func(t *testing.T) {
		err := NewIntegrityError("malformed spell", nil).
			WithContext("start_year", 1990).
			WithContext("end_year", 1980)
		assert.Equal(t, "[INTEGRITY] malformed spell (end_year=1980, start_year=1990)", err.Error())
	})
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewParsingError("bad row", cause)

	assert.True(t, errors.Is(err, cause))

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("load: %w", err), &appErr))
	assert.Equal(t, ErrTypeParsing, appErr.Type)
}

func TestIsType(t *testing.T) {
	integrity := NewIntegrityError("duplicate directed key", nil)

	tests := []struct {
		name      string
		err       error
		integrity bool
		missing   bool
	}{
		{name: "nil", err: nil},
		{name: "plain error", err: errors.New("boom")},
		{name: "integrity", err: integrity, integrity: true},
		{name: "wrapped integrity", err: fmt.Errorf("assemble: %w", integrity), integrity: true},
		{name: "integrity under parsing", err: NewParsingError("row 3", integrity), integrity: true},
		{name: "missing input", err: NewMissingInputError("trade"), missing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.integrity, IsIntegrity(tt.err))
			assert.Equal(t, tt.missing, IsMissingInput(tt.err))
		})
	}
}
