package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errGone = New(http.StatusNotFound, "thing not found")

func TestWithCauseKeepsSentinelIdentity(t *testing.T) {
	cause := errors.New("fk violation")
	err := fmt.Errorf("lookup: %w", errGone.WithCause(cause))

	assert.ErrorIs(t, err, errGone)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusNotFound, Status(err))
	assert.Equal(t, "lookup: thing not found: fk violation", err.Error())
	assert.Nil(t, errGone.Err)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, Status(New(http.StatusConflict, "taken")))
	assert.Equal(t, http.StatusInternalServerError, Status(errors.New("boom")))
	assert.False(t, errors.Is(New(http.StatusConflict, "taken"), errGone))
}
