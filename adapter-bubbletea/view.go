package bubble_adapter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	find "github.com/ionut-t/gofind/core"
	"github.com/rivo/uniseg"
)

// span is a styled rune-column interval within one rendered line.
type span struct {
	startCol int
	endCol   int
	style    lipgloss.Style
}

// renderDocument rebuilds the viewport content with match highlighting.
func (m *Model) renderDocument() {
	lineCount := m.buffer.LineCount()
	primary := m.model.Matches()
	swap := m.model.SwapMatches()
	selection := m.buffer.Selection()

	if m.syntax != nil {
		// Retokenize only when the document actually changed.
		if content := m.buffer.GetCurrentContent(); content != m.tokenizedText {
			m.syntax.Tokenize(content)
			m.tokenizedText = content
		}
	}

	var sb strings.Builder
	for row := 0; row < lineCount; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		if m.showLineNumbers {
			sb.WriteString(m.theme.LineNumberStyle.Render(fmt.Sprintf("%d", row+1)))
			sb.WriteByte(' ')
		}
		sb.WriteString(m.renderLine(row, primary, swap, selection))
	}

	m.viewport.SetContent(sb.String())
}

func (m *Model) renderLine(row int, primary, swap []find.Range, selection find.Range) string {
	line := m.buffer.GetLineRunes(row)

	spans := m.lineSpans(row, len(line), swap, m.theme.SwapMatchStyle, nil)
	spans = m.lineSpans(row, len(line), primary, m.theme.MatchStyle, spans)

	// The match under the selection renders as the current one.
	for i := range spans {
		r := find.Range{
			Start: find.Position{Row: row, Col: spans[i].startCol},
			End:   find.Position{Row: row, Col: spans[i].endCol},
		}
		if selection.ContainsRange(r) && !selection.IsEmpty() {
			spans[i].style = m.theme.CurrentMatchStyle
		}
	}

	if len(spans) == 0 {
		if m.syntax != nil {
			return m.syntax.StyledLine(row, string(line))
		}
		return string(line)
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].startCol < spans[j].startCol })

	var sb strings.Builder
	col := 0
	for _, s := range spans {
		if s.startCol < col {
			continue
		}
		sb.WriteString(string(line[col:s.startCol]))
		sb.WriteString(s.style.Render(string(line[s.startCol:s.endCol])))
		col = s.endCol
	}
	sb.WriteString(string(line[col:]))
	return sb.String()
}

// lineSpans projects the parts of each range that fall on row into styled
// column intervals. Ranges are in document order, so a binary search finds
// the first candidate touching the row.
func (m *Model) lineSpans(row, lineLen int, ranges []find.Range, style lipgloss.Style, spans []span) []span {
	idx := sort.Search(len(ranges), func(i int) bool {
		return ranges[i].End.Row >= row
	})

	for ; idx < len(ranges); idx++ {
		r := ranges[idx]
		if r.Start.Row > row {
			break
		}

		startCol := 0
		if r.Start.Row == row {
			startCol = r.Start.Col
		}
		endCol := lineLen
		if r.End.Row == row {
			endCol = r.End.Col
		}
		if endCol < startCol {
			continue
		}
		spans = append(spans, span{startCol: startCol, endCol: endCol, style: style})
	}
	return spans
}

// statusLine renders the match counter, the option flags and a preview of
// the currently selected match.
func (m *Model) statusLine() string {
	counter := " No results "
	if m.state.MatchesCount() > 0 {
		counter = fmt.Sprintf(" %d/%d ", m.state.CurrentMatchPosition(), m.state.MatchesCount())
	}
	if m.state.SearchString() == "" {
		counter = " Find "
	}

	flag := func(on bool, label string) string {
		if on {
			return m.theme.FlagOnStyle.Render(label)
		}
		return m.theme.FlagOffStyle.Render(label)
	}

	flags := strings.Join([]string{
		flag(m.state.IsRegex(), ".*"),
		flag(m.state.MatchCase(), "Aa"),
		flag(m.state.WholeWord(), "W"),
		flag(m.state.PreserveCase(), "AB"),
		flag(m.state.Loop(), "↻"),
		flag(!m.state.SearchScope().IsNone(), "[]"),
	}, m.theme.StatusLineStyle.Render(" "))

	left := m.theme.CounterStyle.Render(counter) + m.theme.StatusLineStyle.Render(" ") + flags

	preview := m.matchPreview()
	available := m.width - lipgloss.Width(left) - 1
	if available > 0 && preview != "" {
		preview = truncate(preview, available)
	} else {
		preview = ""
	}

	line := left + m.theme.StatusLineStyle.Render(" "+preview)
	pad := m.width - lipgloss.Width(line)
	if pad > 0 {
		line += m.theme.StatusLineStyle.Render(strings.Repeat(" ", pad))
	}
	return line
}

// matchPreview is the text of the selected match, newlines flattened.
func (m *Model) matchPreview() string {
	sel := m.buffer.Selection()
	if sel.IsEmpty() {
		return ""
	}
	text := m.buffer.TextIn(sel)
	return strings.ReplaceAll(text, "\n", "⏎")
}

// truncate cuts a string to maxWidth terminal cells on a grapheme
// boundary, appending an ellipsis when something was dropped.
func truncate(s string, maxWidth int) string {
	if uniseg.StringWidth(s) <= maxWidth {
		return s
	}

	var sb strings.Builder
	width := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if width+w > maxWidth-1 {
			break
		}
		sb.WriteString(g.Str())
		width += w
	}
	sb.WriteString("…")
	return sb.String()
}

func (m *Model) inputLine() string {
	label := func(text string, focused bool) string {
		if focused {
			return m.theme.InputLabelStyle.Render(text)
		}
		return text
	}

	return strings.Join([]string{
		label(" find:", m.focus == focusSearch) + " " + m.searchInput.View(),
		label("replace:", m.focus == focusReplace) + " " + m.replaceInput.View(),
		label("swap:", m.focus == focusSwap) + " " + m.swapInput.View(),
	}, "  ")
}
