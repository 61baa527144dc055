package stack_error

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBase = errors.New("base")

func TestTrackErrorStack(t *testing.T) {
	assert.Nil(t, TrackErrorStack(nil))

	te := TrackErrorStack(errBase).AddContext("docId", "1")
	te.AddContext("docId", "2")
	again := TrackErrorStack(te)

	require.Same(t, te, again)
	assert.Len(t, again.ErrStack, 2)
	assert.Equal(t, "1", again.Context["docId"])
	assert.ErrorIs(t, again, errBase)
	assert.Equal(t, "base", again.Error())
}
