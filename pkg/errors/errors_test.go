package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrNotFound, "student not found"))
	got := FromError(wrapped)
	assert.Equal(t, "NOT_FOUND", got.Code)
	assert.Equal(t, "student not found", got.Message)
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	got := FromError(stdErrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Nil(t, FromError(nil))
}

func TestClonedErrorsMatchSentinel(t *testing.T) {
	err := Wrap(stdErrors.New("dial tcp"), ErrBackupFailed.Code, ErrBackupFailed.Status, "upload failed")
	assert.True(t, stdErrors.Is(err, ErrBackupFailed))
	assert.False(t, stdErrors.Is(err, ErrBackupDisabled))
	assert.Equal(t, "upload failed: dial tcp", err.Error())
}
