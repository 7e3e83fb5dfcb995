package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("NewError", func(t *testing.T) {
		t.Parallel()

		err1 := errors.New("error 1")
		err2 := errors.New("error 2")
		e := NewError("base message", err1, nil, err2)

		assert.Equal(t, "base message", e.Message)
		assert.Equal(t, []string{"error 1", "error 2"}, e.Messages())
	})

	t.Run("Error method", func(t *testing.T) {
		t.Parallel()

		got := NewError("test", errors.New("internal")).Error()
		assert.JSONEq(t, `{"message":"test","err":["internal"]}`, got)
	})

	t.Run("Unwrap", func(t *testing.T) {
		t.Parallel()

		unwrapped := NewError("base", errors.New("error 1"), errors.New("error 2")).Unwrap()
		require.Error(t, unwrapped)
		assert.Contains(t, unwrapped.Error(), "error 1")
		assert.Contains(t, unwrapped.Error(), "error 2")
	})

	t.Run("Unwrap nil or empty", func(t *testing.T) {
		t.Parallel()

		var e *Error
		require.NoError(t, e.Unwrap())
		require.NoError(t, (&Error{Message: "no errors"}).Unwrap())
	})
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	var err error = NewValidationError("date", "is required")

	assert.Equal(t, "date: is required", err.Error())
	require.ErrorIs(t, err, ErrInvalidInput)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)

	assert.Equal(t, "bad", NewValidationError("", "bad").Error())
}

func TestBackendError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewBackendError("list_organizations", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "backend list_organizations failed: connection refused", err.Error())
}
