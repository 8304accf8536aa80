package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Match is a located occurrence of a pattern: a range plus, when
// requested, the captured subgroup texts (Captures[0] is the full match).
type Match struct {
	Range    Range
	Captures []string
}

// Edit replaces one range with literal text. Ranges are interpreted
// against the pre-mutation document.
type Edit struct {
	Range Range
	Text  string
}

// EditOptions controls how a batch of edits is applied.
type EditOptions struct {
	// PreserveSelection keeps the selection's relative position across
	// the mutation.
	PreserveSelection bool
	// SelectionAfter, when set, pins the selection explicitly.
	SelectionAfter *Range
}

// TextBuffer is the editor-host surface the find engine is bound to:
// content access, match finding, selection and viewport control,
// transactional mutation with a single undo boundary per call, and
// change notifications. Implementations must be safe for concurrent use;
// the find engine reads from a timer goroutine.
type TextBuffer interface {
	// Content access
	LineCount() int
	LineRuneCount(row int) int
	GetLineRunes(row int) []rune
	GetCurrentContent() string
	TextIn(r Range) string
	FullRange() Range
	SetContent(content []byte)

	// Match finding. Matches come back in document order; limit <= 0
	// means uncapped. ^ and $ anchor to line boundaries.
	FindMatches(q SearchQuery, ranges []Range, captures bool, limit int) []Match
	FindNextMatch(q SearchQuery, from Position, captures bool) (Match, bool)
	FindPrevMatch(q SearchQuery, from Position, captures bool) (Match, bool)

	// Selection/caret. A zero-width selection is a bare caret.
	Selection() Range
	SetSelection(r Range, reason CursorChangeReason)
	SetSelections(rs []Range, reason CursorChangeReason)
	RevealRange(r Range)

	// Mutation. All edits are computed against the pre-mutation document
	// and applied as one transaction emitting exactly one undo boundary.
	ApplyEdits(edits []Edit, opts EditOptions) error
	Undo() error
	Redo() error

	// Change notifications. The returned function unsubscribes.
	OnContentChanged(fn func(ContentChange)) func()
	OnSelectionChanged(fn func(SelectionChange)) func()
}

// historyEntry is one undo boundary: a content snapshot plus the
// selection at that point.
type historyEntry struct {
	content   string
	selection Range
}

// textBuffer implementation using rune lines for unicode handling.
// All exported methods take mu; notifications are emitted after it is
// released so observers may call back into the buffer.
type textBuffer struct {
	mu         sync.RWMutex
	lines      [][]rune
	selections []Range // Primary selection first

	history    []historyEntry
	historyPos int
	maxHistory int

	topLine        int
	viewportHeight int

	contentObs   observerSet[ContentChange]
	selectionObs observerSet[SelectionChange]
}

// NewTextBuffer creates a new empty buffer.
func NewTextBuffer() TextBuffer {
	b := &textBuffer{
		lines:          [][]rune{{}},
		selections:     []Range{{}},
		historyPos:     -1,
		maxHistory:     1000,
		viewportHeight: 24,
	}
	b.saveHistory()
	return b
}

// NewTextBufferFromString creates a buffer holding the given text.
func NewTextBufferFromString(content string) TextBuffer {
	b := &textBuffer{
		selections:     []Range{{}},
		historyPos:     -1,
		maxHistory:     1000,
		viewportHeight: 24,
	}
	b.setLines(content)
	b.saveHistory()
	return b
}

func (b *textBuffer) setLines(content string) {
	parts := strings.Split(content, "\n")
	lines := make([][]rune, len(parts))
	for i, p := range parts {
		lines[i] = []rune(p)
	}
	b.lines = lines
}

func (b *textBuffer) SetContent(content []byte) {
	b.mu.Lock()
	b.setLines(string(content))
	b.clampSelections()
	b.saveHistory()
	b.mu.Unlock()

	b.contentObs.notify(ContentChange{IsFlush: true})
}

func (b *textBuffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

func (b *textBuffer) LineRuneCount(row int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if row < 0 || row >= len(b.lines) {
		return 0
	}
	return len(b.lines[row])
}

func (b *textBuffer) GetLineRunes(row int) []rune {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if row < 0 || row >= len(b.lines) {
		return nil
	}
	line := make([]rune, len(b.lines[row]))
	copy(line, b.lines[row])
	return line
}

func (b *textBuffer) GetCurrentContent() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.contentLocked()
}

func (b *textBuffer) contentLocked() string {
	linesStr := make([]string, len(b.lines))
	for i, r := range b.lines {
		linesStr[i] = string(r)
	}
	return strings.Join(linesStr, "\n")
}

func (b *textBuffer) FullRange() Range {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fullRangeLocked()
}

func (b *textBuffer) fullRangeLocked() Range {
	lastRow := len(b.lines) - 1
	return Range{
		Start: Position{Row: 0, Col: 0},
		End:   Position{Row: lastRow, Col: len(b.lines[lastRow])},
	}
}

func (b *textBuffer) TextIn(r Range) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.textInLocked(r)
}

func (b *textBuffer) textInLocked(r Range) string {
	r = b.clampRange(r)
	if r.Start.Row == r.End.Row {
		line := b.lines[r.Start.Row]
		return string(line[r.Start.Col:r.End.Col])
	}

	var sb strings.Builder
	sb.WriteString(string(b.lines[r.Start.Row][r.Start.Col:]))
	for row := r.Start.Row + 1; row < r.End.Row; row++ {
		sb.WriteRune('\n')
		sb.WriteString(string(b.lines[row]))
	}
	sb.WriteRune('\n')
	sb.WriteString(string(b.lines[r.End.Row][:r.End.Col]))
	return sb.String()
}

func (b *textBuffer) clampPosition(pos Position) Position {
	if pos.Row < 0 {
		return Position{}
	}
	if pos.Row >= len(b.lines) {
		lastRow := len(b.lines) - 1
		return Position{Row: lastRow, Col: len(b.lines[lastRow])}
	}
	if pos.Col < 0 {
		pos.Col = 0
	} else if pos.Col > len(b.lines[pos.Row]) {
		pos.Col = len(b.lines[pos.Row])
	}
	return pos
}

func (b *textBuffer) clampRange(r Range) Range {
	r.Start = b.clampPosition(r.Start)
	r.End = b.clampPosition(r.End)
	if r.End.Before(r.Start) {
		r.End = r.Start
	}
	return r
}

// --- Rune offsets ---
// Offsets count runes over the joined document, newlines included.

func (b *textBuffer) offsetAt(pos Position) int {
	pos = b.clampPosition(pos)
	offset := 0
	for row := 0; row < pos.Row; row++ {
		offset += len(b.lines[row]) + 1
	}
	return offset + pos.Col
}

func (b *textBuffer) positionAt(offset int) Position {
	if offset < 0 {
		return Position{}
	}
	for row := 0; row < len(b.lines); row++ {
		lineLen := len(b.lines[row])
		if offset <= lineLen {
			return Position{Row: row, Col: offset}
		}
		offset -= lineLen + 1
	}
	lastRow := len(b.lines) - 1
	return Position{Row: lastRow, Col: len(b.lines[lastRow])}
}

// --- Match finding ---

func (b *textBuffer) FindMatches(q SearchQuery, ranges []Range, captures bool, limit int) []Match {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.findMatchesLocked(q, ranges, captures, limit)
}

func (b *textBuffer) findMatchesLocked(q SearchQuery, ranges []Range, captures bool, limit int) []Match {
	compiled, err := q.Compile()
	if err != nil {
		return nil
	}
	if ranges == nil {
		ranges = []Range{b.fullRangeLocked()}
	}

	var out []Match
	for _, r := range ranges {
		r = b.clampRange(r)

		// Search over whole lines covering the range so that ^, $ and \b
		// behave at the range boundary, then keep only matches inside it.
		searchBase := Position{Row: r.Start.Row, Col: 0}
		searchRange := Range{
			Start: searchBase,
			End:   Position{Row: r.End.Row, Col: len(b.lines[r.End.Row])},
		}
		text := b.textInLocked(searchRange)

		if limit > 0 && len(out) >= limit {
			break
		}

		var locs [][]int
		if captures {
			locs = compiled.re.FindAllStringSubmatchIndex(text, -1)
		} else {
			locs = compiled.re.FindAllStringIndex(text, -1)
		}

		resolver := newOffsetResolver(text, searchBase)
		for _, loc := range locs {
			start := resolver.position(loc[0])
			end := resolver.position(loc[1])
			matchRange := Range{Start: start, End: end}
			if !r.ContainsRange(matchRange) {
				continue
			}

			m := Match{Range: matchRange}
			if captures {
				groups := make([]string, len(loc)/2)
				for g := 0; g < len(loc)/2; g++ {
					if loc[2*g] >= 0 {
						groups[g] = text[loc[2*g]:loc[2*g+1]]
					}
				}
				m.Captures = groups
			}
			out = append(out, m)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

func (b *textBuffer) FindNextMatch(q SearchQuery, from Position, captures bool) (Match, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	from = b.clampPosition(from)
	full := b.fullRangeLocked()
	matches := b.findMatchesLocked(q, []Range{{Start: from, End: full.End}}, captures, 1)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}

func (b *textBuffer) FindPrevMatch(q SearchQuery, from Position, captures bool) (Match, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	from = b.clampPosition(from)
	matches := b.findMatchesLocked(q, []Range{{Start: Position{}, End: from}}, captures, 0)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[len(matches)-1], true
}

// offsetResolver converts monotonically increasing byte offsets within a
// search text to document positions in a single pass.
type offsetResolver struct {
	text    string
	byteIdx int
	pos     Position
}

func newOffsetResolver(text string, base Position) *offsetResolver {
	return &offsetResolver{text: text, pos: base}
}

func (o *offsetResolver) position(byteOffset int) Position {
	for o.byteIdx < byteOffset && o.byteIdx < len(o.text) {
		if o.text[o.byteIdx] == '\n' {
			o.pos.Row++
			o.pos.Col = 0
			o.byteIdx++
			continue
		}
		// Advance one rune; skip UTF-8 continuation bytes.
		o.byteIdx++
		for o.byteIdx < len(o.text) && o.text[o.byteIdx]&0xC0 == 0x80 {
			o.byteIdx++
		}
		o.pos.Col++
	}
	return o.pos
}

// --- Selection ---

func (b *textBuffer) Selection() Range {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selections[0]
}

func (b *textBuffer) SetSelection(r Range, reason CursorChangeReason) {
	b.SetSelections([]Range{r}, reason)
}

func (b *textBuffer) SetSelections(rs []Range, reason CursorChangeReason) {
	if len(rs) == 0 {
		rs = []Range{{}}
	}

	b.mu.Lock()
	clamped := make([]Range, len(rs))
	for i, r := range rs {
		clamped[i] = b.clampRange(r)
	}
	b.selections = clamped
	b.mu.Unlock()

	b.selectionObs.notify(SelectionChange{Selection: clamped[0], Reason: reason})
}

func (b *textBuffer) clampSelections() {
	for i, r := range b.selections {
		b.selections[i] = b.clampRange(r)
	}
}

// RevealRange scrolls the viewport so the range start is visible.
func (b *textBuffer) RevealRange(r Range) {
	b.mu.Lock()
	defer b.mu.Unlock()

	row := r.Start.Row
	if row < b.topLine {
		b.topLine = row
	} else if row >= b.topLine+b.viewportHeight {
		b.topLine = row - b.viewportHeight + 1
	}
	if b.topLine < 0 {
		b.topLine = 0
	}
}

// Viewport returns the first visible line and the viewport height.
func (b *textBuffer) Viewport() (topLine, height int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.topLine, b.viewportHeight
}

// SetViewportHeight sets the number of visible lines.
func (b *textBuffer) SetViewportHeight(height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if height > 0 {
		b.viewportHeight = height
	}
}

// --- Mutation ---

func (b *textBuffer) ApplyEdits(edits []Edit, opts EditOptions) error {
	if len(edits) == 0 {
		return nil
	}

	b.mu.Lock()

	type offsetEdit struct {
		start, end int
		text       []rune
	}

	resolved := make([]offsetEdit, 0, len(edits))
	for _, e := range edits {
		clamped := b.clampRange(e.Range)
		if !clamped.Equal(e.Range) {
			b.mu.Unlock()
			return fmt.Errorf("ApplyEdits: %w: %+v", ErrInvalidPosition, e.Range)
		}
		resolved = append(resolved, offsetEdit{
			start: b.offsetAt(e.Range.Start),
			end:   b.offsetAt(e.Range.End),
			text:  []rune(e.Text),
		})
	}

	sort.Slice(resolved, func(i, j int) bool {
		if resolved[i].start != resolved[j].start {
			return resolved[i].start < resolved[j].start
		}
		return resolved[i].end < resolved[j].end
	})
	for i := 1; i < len(resolved); i++ {
		if resolved[i].start < resolved[i-1].end {
			b.mu.Unlock()
			return ErrOverlappingEdits
		}
	}

	selStart := b.offsetAt(b.selections[0].Start)
	selEnd := b.offsetAt(b.selections[0].End)

	content := []rune(b.contentLocked())

	// Apply back to front so earlier offsets stay valid.
	for i := len(resolved) - 1; i >= 0; i-- {
		e := resolved[i]
		updated := make([]rune, 0, len(content)-(e.end-e.start)+len(e.text))
		updated = append(updated, content[:e.start]...)
		updated = append(updated, e.text...)
		updated = append(updated, content[e.end:]...)
		content = updated
	}

	// Translate the selection through the applied edits.
	translate := func(off int) int {
		for _, e := range resolved {
			if e.end <= off {
				off += len(e.text) - (e.end - e.start)
			} else if e.start <= off {
				// Inside a replaced span: snap to the end of the new text.
				return e.start + len(e.text)
			} else {
				break
			}
		}
		return off
	}
	newSelStart := translate(selStart)
	newSelEnd := translate(selEnd)

	b.setLines(string(content))

	switch {
	case opts.SelectionAfter != nil:
		b.selections = []Range{b.clampRange(*opts.SelectionAfter)}
	case opts.PreserveSelection:
		b.selections = []Range{b.clampRange(Range{
			Start: b.positionAt(newSelStart),
			End:   b.positionAt(newSelEnd),
		})}
	default:
		b.clampSelections()
	}

	b.saveHistory()
	selection := b.selections[0]
	b.mu.Unlock()

	b.contentObs.notify(ContentChange{})
	b.selectionObs.notify(SelectionChange{Selection: selection, Reason: CursorProgrammatic})
	return nil
}

// --- History (snapshot implementation, one entry per undo boundary) ---

func (b *textBuffer) saveHistory() {
	current := historyEntry{content: b.contentLocked(), selection: b.selections[0]}

	// Truncate redo history after an undo.
	if b.historyPos < len(b.history)-1 {
		b.history = b.history[:b.historyPos+1]
	}

	if b.historyPos >= 0 && b.history[b.historyPos].content == current.content {
		b.history[b.historyPos].selection = current.selection
		return
	}

	b.history = append(b.history, current)
	b.historyPos = len(b.history) - 1

	if len(b.history) > b.maxHistory {
		b.history = b.history[len(b.history)-b.maxHistory:]
		b.historyPos = len(b.history) - 1
	}
}

func (b *textBuffer) Undo() error {
	b.mu.Lock()
	if b.historyPos <= 0 {
		b.mu.Unlock()
		return ErrNothingToUndo
	}

	b.historyPos--
	entry := b.history[b.historyPos]
	b.setLines(entry.content)
	b.selections = []Range{b.clampRange(entry.selection)}
	selection := b.selections[0]
	b.mu.Unlock()

	b.contentObs.notify(ContentChange{IsFlush: true})
	b.selectionObs.notify(SelectionChange{Selection: selection, Reason: CursorUndo})
	return nil
}

func (b *textBuffer) Redo() error {
	b.mu.Lock()
	if b.historyPos >= len(b.history)-1 {
		b.mu.Unlock()
		return ErrNothingToRedo
	}

	b.historyPos++
	entry := b.history[b.historyPos]
	b.setLines(entry.content)
	b.selections = []Range{b.clampRange(entry.selection)}
	selection := b.selections[0]
	b.mu.Unlock()

	b.contentObs.notify(ContentChange{IsFlush: true})
	b.selectionObs.notify(SelectionChange{Selection: selection, Reason: CursorRedo})
	return nil
}

// --- Notifications ---

func (b *textBuffer) OnContentChanged(fn func(ContentChange)) func() {
	return b.contentObs.subscribe(fn)
}

func (b *textBuffer) OnSelectionChanged(fn func(SelectionChange)) func() {
	return b.selectionObs.subscribe(fn)
}
