package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Newf(CodeStaleWrite, "document %s moved on", "doc-1")

	assert.ErrorIs(t, err, ErrStaleWrite)
	assert.NotErrorIs(t, err, ErrInvalidChange)
	assert.Equal(t, "document doc-1 moved on", err.Error())
}

func TestWrappedErrorKeepsCodeAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("save: %w", Wrap(CodeNotFound, "document missing", cause))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeAlreadyMember, CodeOf(ErrAlreadyMember))
}

func TestMalformedNamesField(t *testing.T) {
	err := Malformed("changes.0.timestamp", "is not an ISO-8601 timestamp")

	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.Equal(t, "changes.0.timestamp", Field(err))
	assert.Contains(t, err.Error(), `"changes.0.timestamp"`)
	assert.Equal(t, "", Field(ErrStaleWrite))
}
