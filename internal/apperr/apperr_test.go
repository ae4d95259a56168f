package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayoisaiah/steadfast/internal/apperr"
)

var errTemplate = &apperr.Error{Message: "session %s not found"}

func TestFmtMatchesTemplate(t *testing.T) {
	err := errTemplate.Fmt("abc")

	assert.Equal(t, "session abc not found", err.Error())
	assert.ErrorIs(t, err, errTemplate)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := errTemplate.Fmt("abc").Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, errTemplate)
	assert.Equal(t, "session abc not found: disk full", err.Error())

	wrapped := fmt.Errorf("pause: %w", err)
	assert.ErrorIs(t, wrapped, errTemplate)
}

func TestDistinctTemplatesDoNotMatch(t *testing.T) {
	other := &apperr.Error{Message: "session %s not found"}

	assert.NotErrorIs(t, errTemplate.Fmt("x"), other)
}
