package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionCompare(t *testing.T) {
	assert.Equal(t, 0, Position{Row: 1, Col: 2}.Compare(Position{Row: 1, Col: 2}))
	assert.True(t, Position{Row: 1, Col: 2}.Before(Position{Row: 1, Col: 3}))
	assert.True(t, Position{Row: 1, Col: 2}.Before(Position{Row: 2, Col: 0}))
	assert.True(t, Position{Row: 2, Col: 0}.After(Position{Row: 1, Col: 9}))
	assert.True(t, Position{Row: 1, Col: 2}.BeforeOrEqual(Position{Row: 1, Col: 2}))
}

func TestRangeContainsPosition(t *testing.T) {
	r := NewRange(1, 2, 3, 4)

	assert.True(t, r.ContainsPosition(Position{Row: 1, Col: 2}))
	assert.True(t, r.ContainsPosition(Position{Row: 2, Col: 0}))
	assert.False(t, r.ContainsPosition(Position{Row: 3, Col: 4}), "end is exclusive")
	assert.False(t, r.ContainsPosition(Position{Row: 3, Col: 5}))
	assert.False(t, r.ContainsPosition(Position{Row: 1, Col: 1}))
}

func TestRangeContainsRange(t *testing.T) {
	outer := NewRange(1, 0, 4, 0)

	assert.True(t, outer.ContainsRange(NewRange(1, 0, 4, 0)))
	assert.True(t, outer.ContainsRange(NewRange(2, 1, 2, 5)))
	assert.False(t, outer.ContainsRange(NewRange(0, 9, 2, 0)))
	assert.False(t, outer.ContainsRange(NewRange(3, 0, 4, 1)))
}

func TestRangeOverlaps(t *testing.T) {
	a := NewRange(0, 0, 0, 5)

	assert.True(t, a.Overlaps(NewRange(0, 4, 0, 9)))
	assert.False(t, a.Overlaps(NewRange(0, 5, 0, 9)), "touching ranges do not overlap")
	assert.False(t, a.Overlaps(NewRange(1, 0, 1, 3)))
}

func TestRangeIsEmpty(t *testing.T) {
	assert.True(t, NewRange(2, 3, 2, 3).IsEmpty())
	assert.False(t, NewRange(2, 3, 2, 4).IsEmpty())
}
