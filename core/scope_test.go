package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeVariants(t *testing.T) {
	assert.True(t, NoScope().IsNone())
	assert.Nil(t, NoScope().Ranges())

	single := SingleScope(NewRange(1, 0, 2, 3))
	assert.Equal(t, ScopeSingle, single.Kind())
	require.Len(t, single.Ranges(), 1)

	multi := MultiScope([]Range{NewRange(0, 0, 0, 5), NewRange(2, 0, 2, 5)})
	assert.Equal(t, ScopeMulti, multi.Kind())
	assert.Len(t, multi.Ranges(), 2)

	// An empty set degrades to the whole document.
	assert.True(t, MultiScope(nil).IsNone())
}

func TestNormalizeScopeSnapsLineStartBoundary(t *testing.T) {
	buffer := NewTextBufferFromString("line1\nline2\nline3\nline4\nline5")

	// A scope ending exactly at a line start must not pull in the
	// trailing empty line: it is shortened by one line and snapped to
	// that line's last column.
	scope := SingleScope(NewRange(1, 0, 4, 0))
	normalized := normalizeScope(buffer, scope)

	require.Len(t, normalized, 1)
	assert.Equal(t, NewRange(1, 0, 3, 5), normalized[0])
}

func TestNormalizeScopeLeavesMidLineBoundaryAlone(t *testing.T) {
	buffer := NewTextBufferFromString("line1\nline2\nline3")

	scope := SingleScope(NewRange(0, 2, 2, 3))
	normalized := normalizeScope(buffer, scope)

	require.Len(t, normalized, 1)
	assert.Equal(t, NewRange(0, 2, 2, 3), normalized[0])
}

func TestNormalizeScopeSingleLineRange(t *testing.T) {
	buffer := NewTextBufferFromString("hello world")

	// Single-line ranges are untouched even with end column 0.
	scope := SingleScope(NewRange(0, 0, 0, 0))
	normalized := normalizeScope(buffer, scope)

	require.Len(t, normalized, 1)
	assert.Equal(t, NewRange(0, 0, 0, 0), normalized[0])
}

func TestNormalizeScopeNoScope(t *testing.T) {
	buffer := NewTextBufferFromString("abc")
	assert.Nil(t, normalizeScope(buffer, NoScope()))
}
