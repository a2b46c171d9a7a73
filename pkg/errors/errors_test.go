package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", ErrNoGrades)
	got := FromError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, "NO_GRADES", got.Code)
	assert.Equal(t, http.StatusNotFound, got.Status)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("boom")
	got := FromError(cause)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.ErrorIs(t, got, cause)
	assert.Nil(t, FromError(nil))
}

func TestCloneOverridesMessage(t *testing.T) {
	clone := Clone(ErrValidation, "invalid term_id")
	assert.Equal(t, "invalid term_id", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Equal(t, ErrValidation.Message, Clone(ErrValidation, "").Message)
}

func TestWrapMessage(t *testing.T) {
	err := Wrap(errors.New("conn refused"), ErrInternal.Code, ErrInternal.Status, "failed to load grades")
	assert.Equal(t, "failed to load grades: conn refused", err.Error())
}
