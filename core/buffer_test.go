package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rangesOf(t *testing.T, matches []Match) []Range {
	t.Helper()
	out := make([]Range, len(matches))
	for i, m := range matches {
		out[i] = m.Range
	}
	return out
}

func TestBufferContentAccess(t *testing.T) {
	b := NewTextBufferFromString("héllo\nworld\n")

	assert.Equal(t, 3, b.LineCount(), "trailing newline produces an empty last line")
	assert.Equal(t, 5, b.LineRuneCount(0))
	assert.Equal(t, 0, b.LineRuneCount(2))
	assert.Equal(t, "héllo\nworld\n", b.GetCurrentContent())
	assert.Equal(t, NewRange(0, 0, 2, 0), b.FullRange())
	assert.Equal(t, "llo\nwor", b.TextIn(NewRange(0, 2, 1, 3)))
}

func TestFindMatchesDocumentOrder(t *testing.T) {
	b := NewTextBufferFromString("abc abc\nabc")

	matches := b.FindMatches(SearchQuery{Pattern: "abc", MatchCase: true}, nil, false, 0)

	assert.Equal(t, []Range{
		NewRange(0, 0, 0, 3),
		NewRange(0, 4, 0, 7),
		NewRange(1, 0, 1, 3),
	}, rangesOf(t, matches))
}

func TestFindMatchesLimit(t *testing.T) {
	b := NewTextBufferFromString("a a a a a")

	matches := b.FindMatches(SearchQuery{Pattern: "a"}, nil, false, 3)
	assert.Len(t, matches, 3)
}

func TestFindMatchesRestrictedToRanges(t *testing.T) {
	b := NewTextBufferFromString("foo\nfoo\nfoo\nfoo")

	matches := b.FindMatches(SearchQuery{Pattern: "foo", MatchCase: true},
		[]Range{NewRange(1, 0, 2, 3)}, false, 0)

	assert.Equal(t, []Range{
		NewRange(1, 0, 1, 3),
		NewRange(2, 0, 2, 3),
	}, rangesOf(t, matches))
}

func TestFindMatchesAnchorsInsideRange(t *testing.T) {
	b := NewTextBufferFromString("xbar\nbar\nbar")

	// ^ must anchor to line starts even when the range begins mid-document.
	matches := b.FindMatches(SearchQuery{Pattern: "^bar", IsRegex: true, MatchCase: true},
		[]Range{NewRange(1, 0, 2, 3)}, false, 0)

	assert.Equal(t, []Range{
		NewRange(1, 0, 1, 3),
		NewRange(2, 0, 2, 3),
	}, rangesOf(t, matches))
}

func TestFindMatchesStraddlingRangeExcluded(t *testing.T) {
	b := NewTextBufferFromString("abcdef")

	matches := b.FindMatches(SearchQuery{Pattern: "cde", MatchCase: true},
		[]Range{NewRange(0, 0, 0, 4)}, false, 0)

	assert.Empty(t, matches, "a match reaching past the range end does not count")
}

func TestFindMatchesCaptures(t *testing.T) {
	b := NewTextBufferFromString("key=value")

	matches := b.FindMatches(SearchQuery{Pattern: `(\w+)=(\w+)`, IsRegex: true}, nil, true, 0)

	require.Len(t, matches, 1)
	assert.Equal(t, []string{"key=value", "key", "value"}, matches[0].Captures)
}

func TestFindMatchesMultiLineLiteral(t *testing.T) {
	b := NewTextBufferFromString("one\ntwo\nthree")

	matches := b.FindMatches(SearchQuery{Pattern: "one\ntwo", MatchCase: true}, nil, false, 0)

	assert.Equal(t, []Range{NewRange(0, 0, 1, 3)}, rangesOf(t, matches))
}

func TestFindMatchesUnicodeColumns(t *testing.T) {
	b := NewTextBufferFromString("héllo wörld")

	matches := b.FindMatches(SearchQuery{Pattern: "wörld", MatchCase: true}, nil, false, 0)

	// Columns count runes, not bytes.
	assert.Equal(t, []Range{NewRange(0, 6, 0, 11)}, rangesOf(t, matches))
}

func TestFindNextAndPrevMatch(t *testing.T) {
	b := NewTextBufferFromString("foo bar foo")
	q := SearchQuery{Pattern: "foo", MatchCase: true}

	next, ok := b.FindNextMatch(q, Position{Row: 0, Col: 1}, false)
	require.True(t, ok)
	assert.Equal(t, NewRange(0, 8, 0, 11), next.Range)

	prev, ok := b.FindPrevMatch(q, Position{Row: 0, Col: 8}, false)
	require.True(t, ok)
	assert.Equal(t, NewRange(0, 0, 0, 3), prev.Range)

	_, ok = b.FindPrevMatch(q, Position{Row: 0, Col: 2}, false)
	assert.False(t, ok, "partially covered match before the position does not count")
}

func TestApplyEditsSingle(t *testing.T) {
	b := NewTextBufferFromString("foo bar foo")

	err := b.ApplyEdits([]Edit{{Range: NewRange(0, 8, 0, 11), Text: "BAZ"}}, EditOptions{})
	require.NoError(t, err)
	assert.Equal(t, "foo bar BAZ", b.GetCurrentContent())
}

func TestApplyEditsBatchAndUndoBoundary(t *testing.T) {
	b := NewTextBufferFromString("a,a,a")

	edits := []Edit{
		{Range: NewRange(0, 0, 0, 1), Text: "b"},
		{Range: NewRange(0, 2, 0, 3), Text: "b"},
		{Range: NewRange(0, 4, 0, 5), Text: "b"},
	}
	require.NoError(t, b.ApplyEdits(edits, EditOptions{}))
	assert.Equal(t, "b,b,b", b.GetCurrentContent())

	// The whole batch is one undo boundary.
	require.NoError(t, b.Undo())
	assert.Equal(t, "a,a,a", b.GetCurrentContent())

	require.NoError(t, b.Redo())
	assert.Equal(t, "b,b,b", b.GetCurrentContent())
}

func TestApplyEditsDifferentLengths(t *testing.T) {
	b := NewTextBufferFromString("cat dog cat")

	edits := []Edit{
		{Range: NewRange(0, 0, 0, 3), Text: "horse"},
		{Range: NewRange(0, 8, 0, 11), Text: "ox"},
	}
	require.NoError(t, b.ApplyEdits(edits, EditOptions{}))
	assert.Equal(t, "horse dog ox", b.GetCurrentContent())
}

func TestApplyEditsOverlapRejected(t *testing.T) {
	b := NewTextBufferFromString("abcdef")

	edits := []Edit{
		{Range: NewRange(0, 0, 0, 3), Text: "x"},
		{Range: NewRange(0, 2, 0, 5), Text: "y"},
	}
	err := b.ApplyEdits(edits, EditOptions{})
	assert.ErrorIs(t, err, ErrOverlappingEdits)
	assert.Equal(t, "abcdef", b.GetCurrentContent(), "failed batch leaves the buffer untouched")
}

func TestApplyEditsOutOfBoundsRejected(t *testing.T) {
	b := NewTextBufferFromString("abc")

	err := b.ApplyEdits([]Edit{{Range: NewRange(0, 0, 5, 0), Text: "x"}}, EditOptions{})
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestApplyEditsPreservesSelection(t *testing.T) {
	b := NewTextBufferFromString("aaa bbb ccc")
	b.SetSelection(NewRange(0, 8, 0, 11), CursorExplicit)

	// Replacing earlier text shifts the selection by the length delta.
	require.NoError(t, b.ApplyEdits(
		[]Edit{{Range: NewRange(0, 0, 0, 3), Text: "x"}},
		EditOptions{PreserveSelection: true}))

	assert.Equal(t, "x bbb ccc", b.GetCurrentContent())
	assert.Equal(t, NewRange(0, 6, 0, 9), b.Selection())
}

func TestApplyEditsSelectionAfter(t *testing.T) {
	b := NewTextBufferFromString("hello")

	after := NewRange(0, 2, 0, 2)
	require.NoError(t, b.ApplyEdits(
		[]Edit{{Range: NewRange(0, 0, 0, 5), Text: "hi"}},
		EditOptions{SelectionAfter: &after}))

	assert.Equal(t, after, b.Selection())
}

func TestApplyEditsNotifications(t *testing.T) {
	b := NewTextBufferFromString("abc")

	var contentChanges []ContentChange
	var selectionChanges []SelectionChange
	b.OnContentChanged(func(c ContentChange) { contentChanges = append(contentChanges, c) })
	b.OnSelectionChanged(func(s SelectionChange) { selectionChanges = append(selectionChanges, s) })

	require.NoError(t, b.ApplyEdits([]Edit{{Range: NewRange(0, 0, 0, 1), Text: "x"}}, EditOptions{}))

	require.Len(t, contentChanges, 1)
	assert.False(t, contentChanges[0].IsFlush)
	require.Len(t, selectionChanges, 1)
	assert.Equal(t, CursorProgrammatic, selectionChanges[0].Reason)
}

func TestUndoNotifiesFlush(t *testing.T) {
	b := NewTextBufferFromString("abc")
	require.NoError(t, b.ApplyEdits([]Edit{{Range: NewRange(0, 0, 0, 1), Text: "x"}}, EditOptions{}))

	var changes []ContentChange
	b.OnContentChanged(func(c ContentChange) { changes = append(changes, c) })

	require.NoError(t, b.Undo())
	require.Len(t, changes, 1)
	assert.True(t, changes[0].IsFlush)
}

func TestUndoRedoLimits(t *testing.T) {
	b := NewTextBufferFromString("abc")

	assert.ErrorIs(t, b.Undo(), ErrNothingToUndo)
	assert.ErrorIs(t, b.Redo(), ErrNothingToRedo)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	b := NewTextBufferFromString("abc")

	calls := 0
	unsubscribe := b.OnContentChanged(func(ContentChange) { calls++ })
	unsubscribe()

	b.SetContent([]byte("def"))
	assert.Zero(t, calls)
}

func TestSetContentClampsSelection(t *testing.T) {
	b := NewTextBufferFromString("hello world")
	b.SetSelection(NewRange(0, 6, 0, 11), CursorExplicit)

	b.SetContent([]byte("hi"))
	assert.Equal(t, NewRange(0, 2, 0, 2), b.Selection())
}

// Searches run on timer goroutines while the host mutates content, so
// the buffer must tolerate concurrent readers and writers. Run with
// -race to verify.
func TestBufferConcurrentSearchAndMutation(t *testing.T) {
	b := NewTextBufferFromString("foo bar\nfoo baz")
	query := SearchQuery{Pattern: "foo"}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			b.SetContent([]byte(fmt.Sprintf("foo %d\nbar foo", i)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			b.FindMatches(query, nil, false, 0)
			b.FullRange()
			b.GetCurrentContent()
		}
	}()
	wg.Wait()

	assert.Len(t, b.FindMatches(query, nil, false, 0), 2)
}
