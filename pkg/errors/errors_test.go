package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(fmt.Errorf("disk full"))

	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.EqualError(t, err, "internal server error: disk full")
}

func TestCloneMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("lookup: %w", Clone(ErrNotFound, "student not found"))

	assert.True(t, stdErrors.Is(err, ErrNotFound))
	assert.False(t, stdErrors.Is(err, ErrConflict))
	assert.Equal(t, "student not found", FromError(err).Message)
}
