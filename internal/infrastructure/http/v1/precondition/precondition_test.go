package precondition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventorycore/internal/core/apperror"
)

func TestParseVersionEmptyIsNilNoError(t *testing.T) {
	v, err := ParseVersion("")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestParseVersionStrongETag(t *testing.T) {
	v, err := ParseVersion(`"3"`)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 3, *v)
}

func TestParseVersionWeakETag(t *testing.T) {
	v, err := ParseVersion(`W/"7"`)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 7, *v)
}

func TestParseVersionUnquoted(t *testing.T) {
	v, err := ParseVersion("4")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 4, *v)
}

func TestParseVersionRejectsNonPositive(t *testing.T) {
	for _, in := range []string{"0", "-1", `"0"`, `"-5"`} {
		_, err := ParseVersion(in)
		require.Error(t, err, "expected rejection for %q", in)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok, "expected an *apperror.AppError for %q", in)
		assert.Equal(t, apperror.CodeInvalidIfMatch, appErr.Code)
	}
}

func TestParseVersionRejectsMalformed(t *testing.T) {
	_, err := ParseVersion(`"abc"`)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidIfMatch, appErr.Code)
}

func TestFormatRendersStrongETag(t *testing.T) {
	assert.Equal(t, `"5"`, Format(5))
}
