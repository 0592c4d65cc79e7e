package errs

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicErrorMessages(t *testing.T) {
	cause := errors.Wrap(NotFound, "no rows for property 42")

	err := NewPublicErrorFrom(cause, "property not found")
	var public *PublicError
	require.True(t, errors.As(err, &public))
	assert.Equal(t, "property not found", public.Message())
	assert.ErrorIs(t, err, NotFound)

	err = WithPublicMessage(errors.New("'title' is required"), "validation error")
	require.True(t, errors.As(err, &public))
	assert.Equal(t, "validation error: 'title' is required", public.Message())

	assert.NoError(t, NewPublicErrorFrom(nil, "unused"))
	assert.NoError(t, WithPublicMessage(nil, "unused"))
}
