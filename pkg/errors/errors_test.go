package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrOutOfRange, "50m_run value 99 outside [5, 30]")
	assert.True(t, stdErrors.Is(err, ErrOutOfRange))
	assert.False(t, stdErrors.Is(err, ErrMissingDependency))
	assert.Equal(t, "50m_run value 99 outside [5, 30]", err.Error())
}

func TestWrappedErrorStillMatches(t *testing.T) {
	err := fmt.Errorf("score item: %w", Clonef(ErrMissingDependency, "bmi requires %s", "height"))
	assert.True(t, stdErrors.Is(err, ErrMissingDependency))
	assert.Equal(t, ErrMissingDependency.Code, FromError(err).Code)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(stdErrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, ErrInternal.Status, appErr.Status)
	assert.Nil(t, FromError(nil))
}
