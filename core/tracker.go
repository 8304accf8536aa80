package core

import "sort"

// matchTracker owns the current match lists for the primary and swap
// patterns, the caret anchor used to recompute the reported position, and
// the resolved scope in effect. Both lists are always computed over the
// identical normalized ranges; every re-search replaces them atomically.
type matchTracker struct {
	primary []Range
	swap    []Range

	anchor Position
	scopes []Range // nil = whole document
	capped bool
}

// setMatches atomically replaces both lists and the resolved scope.
func (t *matchTracker) setMatches(primary, swap []Match, scopes []Range, capped bool) {
	t.primary = matchRanges(primary)
	t.swap = matchRanges(swap)
	t.scopes = scopes
	t.capped = capped
}

func matchRanges(matches []Match) []Range {
	if len(matches) == 0 {
		return nil
	}
	ranges := make([]Range, len(matches))
	for i, m := range matches {
		ranges[i] = m.Range
	}
	return ranges
}

// reset discards all cached match state (model flush).
func (t *matchTracker) reset() {
	t.primary = nil
	t.swap = nil
	t.capped = false
}

func (t *matchTracker) count() int {
	return len(t.primary)
}

func (t *matchTracker) swapCount() int {
	return len(t.swap)
}

func (t *matchTracker) setAnchor(pos Position) {
	t.anchor = pos
}

// position returns the 1-based index of the first match whose start is
// not before the anchor. When the anchor is past every match, the
// position wraps to the last match (index == count).
func (t *matchTracker) position() int {
	if len(t.primary) == 0 {
		return 0
	}
	idx := sort.Search(len(t.primary), func(i int) bool {
		return !t.primary[i].Start.Before(t.anchor)
	})
	if idx == len(t.primary) {
		return len(t.primary)
	}
	return idx + 1
}

// indexOf returns the 1-based index of the match with the given range,
// or 0 when it is not in the cached list.
func (t *matchTracker) indexOf(r Range) int {
	idx := sort.Search(len(t.primary), func(i int) bool {
		return !t.primary[i].Start.Before(r.Start)
	})
	for ; idx < len(t.primary) && t.primary[idx].Start.Equal(r.Start); idx++ {
		if t.primary[idx].Equal(r) {
			return idx + 1
		}
	}
	return 0
}

// nextAfter returns the first match whose start is at or after pos.
func (t *matchTracker) nextAfter(pos Position) (Range, bool) {
	idx := sort.Search(len(t.primary), func(i int) bool {
		return !t.primary[i].Start.Before(pos)
	})
	if idx == len(t.primary) {
		return Range{}, false
	}
	return t.primary[idx], true
}

// prevBefore returns the last match whose start is strictly before pos.
func (t *matchTracker) prevBefore(pos Position) (Range, bool) {
	idx := sort.Search(len(t.primary), func(i int) bool {
		return !t.primary[i].Start.Before(pos)
	})
	if idx == 0 {
		return Range{}, false
	}
	return t.primary[idx-1], true
}

func (t *matchTracker) first() (Range, bool) {
	if len(t.primary) == 0 {
		return Range{}, false
	}
	return t.primary[0], true
}

func (t *matchTracker) last() (Range, bool) {
	if len(t.primary) == 0 {
		return Range{}, false
	}
	return t.primary[len(t.primary)-1], true
}
