package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func trackerWith(ranges ...Range) *matchTracker {
	matches := make([]Match, len(ranges))
	for i, r := range ranges {
		matches[i] = Match{Range: r}
	}
	t := &matchTracker{}
	t.setMatches(matches, nil, nil, false)
	return t
}

func TestTrackerPositionFromAnchor(t *testing.T) {
	tr := trackerWith(
		NewRange(0, 0, 0, 3),
		NewRange(1, 2, 1, 5),
		NewRange(4, 0, 4, 3),
	)

	tr.setAnchor(Position{})
	assert.Equal(t, 1, tr.position())

	tr.setAnchor(Position{Row: 1, Col: 0})
	assert.Equal(t, 2, tr.position())

	tr.setAnchor(Position{Row: 1, Col: 2})
	assert.Equal(t, 2, tr.position(), "anchor exactly on a match start counts that match")

	// Past the last match the reported position wraps to the count.
	tr.setAnchor(Position{Row: 9, Col: 0})
	assert.Equal(t, 3, tr.position())
}

func TestTrackerPositionEmpty(t *testing.T) {
	tr := &matchTracker{}
	tr.setAnchor(Position{Row: 3, Col: 3})
	assert.Zero(t, tr.position())
}

func TestTrackerNextAfterPrevBefore(t *testing.T) {
	tr := trackerWith(
		NewRange(0, 0, 0, 3),
		NewRange(2, 0, 2, 3),
	)

	next, ok := tr.nextAfter(Position{Row: 0, Col: 1})
	assert.True(t, ok)
	assert.Equal(t, NewRange(2, 0, 2, 3), next)

	_, ok = tr.nextAfter(Position{Row: 2, Col: 1})
	assert.False(t, ok)

	prev, ok := tr.prevBefore(Position{Row: 2, Col: 0})
	assert.True(t, ok)
	assert.Equal(t, NewRange(0, 0, 0, 3), prev)

	_, ok = tr.prevBefore(Position{})
	assert.False(t, ok)
}

func TestTrackerIndexOf(t *testing.T) {
	tr := trackerWith(
		NewRange(0, 0, 0, 3),
		NewRange(2, 0, 2, 3),
	)

	assert.Equal(t, 2, tr.indexOf(NewRange(2, 0, 2, 3)))
	assert.Zero(t, tr.indexOf(NewRange(1, 0, 1, 3)), "unknown range reports no index")
}

func TestTrackerReset(t *testing.T) {
	tr := trackerWith(NewRange(0, 0, 0, 1))
	tr.capped = true

	tr.reset()
	assert.Zero(t, tr.count())
	assert.Zero(t, tr.swapCount())
	assert.False(t, tr.capped)
}
