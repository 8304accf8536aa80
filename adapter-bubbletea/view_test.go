package bubble_adapter

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	find "github.com/ionut-t/gofind/core"
	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long t…", truncate("long text here", 7))
	assert.Equal(t, "日本…", truncate("日本語テキスト", 5), "wide runes count as two cells")
}

func TestLineSpansProjection(t *testing.T) {
	m := New(80, 24)
	style := lipgloss.NewStyle()

	ranges := []find.Range{
		find.NewRange(0, 2, 0, 5),
		find.NewRange(1, 0, 2, 3),
		find.NewRange(4, 1, 4, 2),
	}

	spans := m.lineSpans(0, 10, ranges, style, nil)
	assert.Len(t, spans, 1)
	assert.Equal(t, 2, spans[0].startCol)
	assert.Equal(t, 5, spans[0].endCol)

	// A multi-line range covers the middle row entirely.
	spans = m.lineSpans(2, 7, ranges, style, nil)
	assert.Len(t, spans, 1)
	assert.Equal(t, 0, spans[0].startCol)
	assert.Equal(t, 3, spans[0].endCol)

	spans = m.lineSpans(3, 7, ranges, style, nil)
	assert.Empty(t, spans)
}

func TestSyncStatePushesInputsIntoState(t *testing.T) {
	m := New(80, 24)
	m.SetContent([]byte("foo bar foo"))
	m.searchInput.SetValue("foo")

	m.syncState()

	assert.Equal(t, "foo", m.state.SearchString())
	assert.Equal(t, 2, m.state.MatchesCount())
}
