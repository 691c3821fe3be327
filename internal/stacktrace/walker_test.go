package stacktrace

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallers(t *testing.T) {
	frames := Callers(0, 0)

	require.NotEmpty(t, frames)

	// The first frame is the caller of Callers, namely this test.
	assert.Contains(t, frames[0].Method, "TestCallers")
	assert.True(t, strings.HasSuffix(frames[0].Module, "walker_test.go"),
		"first frame module = %q, want this test file", frames[0].Module)
	assert.Greater(t, frames[0].Line, 0)
}

func TestCallers_Limit(t *testing.T) {
	unbounded := Callers(0, 0)
	require.Greater(t, len(unbounded), 1)

	limited := Callers(0, 1)
	require.Len(t, limited, 1)
	assert.Contains(t, limited[0].Method, "TestCallers_Limit")
}

func TestCallers_Skip(t *testing.T) {
	frames := Callers(1, 0)

	require.NotEmpty(t, frames)
	assert.NotContains(t, frames[0].Method, "TestCallers_Skip")
}

// newWrappedError exists to pin a recognizable function name into the
// recorded stack.
func newWrappedError() error {
	return errors.New("boom")
}

func TestFromError(t *testing.T) {
	err := newWrappedError()

	frames, ok := FromError(err, 0)

	require.True(t, ok)
	require.NotEmpty(t, frames)
	assert.Contains(t, frames[0].Method, "newWrappedError")
}

func TestFromError_DeepestStackWins(t *testing.T) {
	inner := newWrappedError()
	outer := errors.Wrap(inner, "request failed")

	frames, ok := FromError(outer, 0)

	require.True(t, ok)
	require.NotEmpty(t, frames)
	// Wrap records its own stack too; the one closest to the root cause is
	// the one reported.
	assert.Contains(t, frames[0].Method, "newWrappedError")
}

func TestFromError_PlainErrors(t *testing.T) {
	for _, err := range []error{
		stderrors.New("plain"),
		fmt.Errorf("wrapped: %w", stderrors.New("plain")),
	} {
		_, ok := FromError(err, 0)
		assert.False(t, ok, "error %v should carry no stack", err)
	}
}

func TestFromError_Limit(t *testing.T) {
	frames, ok := FromError(newWrappedError(), 1)

	require.True(t, ok)
	require.Len(t, frames, 1)
	assert.Contains(t, frames[0].Method, "newWrappedError")
}
