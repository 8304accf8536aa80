package core

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	// MatchesLimit caps how many matches are materialized per re-search.
	// Bulk operations above the cap switch to the whole-text path.
	MatchesLimit = 19999

	contentChangeDelay = 100 * time.Millisecond
	stateChangeDelay   = 240 * time.Millisecond

	defaultLargeBufferLines = 10000
)

// FindModelOption configures a FindModel.
type FindModelOption func(*FindModel)

// WithMoveCursorOnType controls whether a re-search triggered with cursor
// movement jumps to the next match (default true).
func WithMoveCursorOnType(move bool) FindModelOption {
	return func(m *FindModel) {
		m.moveCursorOnType = move
	}
}

// WithLargeBufferLines sets the line count above which state-change
// re-searches are debounced instead of run synchronously.
func WithLargeBufferLines(lines int) FindModelOption {
	return func(m *FindModel) {
		if lines > 0 {
			m.largeBufferLines = lines
		}
	}
}

// FindModel keeps the match set for a search pattern (and its swap
// pattern) synchronized with an editable buffer, and drives navigation,
// replace, replace-all and swap-all. All operations run to completion on
// the calling goroutine; the only asynchrony is timer-based debouncing of
// re-search.
type FindModel struct {
	mu     sync.Mutex
	buffer TextBuffer
	state  *FindState

	tracker matchTracker

	contentDelayer *delayer
	stateDelayer   *delayer

	guard       reentrancyGuard
	unsubscribe []func()
	disposed    bool

	moveCursorOnType bool
	largeBufferLines int

	// Compiled primary query of the last re-search; nil when the pattern
	// is empty or invalid ("no search data").
	currentQuery *CompiledQuery
}

// NewFindModel binds a find model to a buffer and a state object and runs
// an immediate synchronous re-search.
func NewFindModel(buffer TextBuffer, state *FindState, opts ...FindModelOption) *FindModel {
	m := &FindModel{
		buffer:           buffer,
		state:            state,
		contentDelayer:   newDelayer(contentChangeDelay),
		stateDelayer:     newDelayer(stateChangeDelay),
		moveCursorOnType: true,
		largeBufferLines: defaultLargeBufferLines,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.tracker.scopes = normalizeScope(buffer, state.SearchScope())
	m.tracker.setAnchor(buffer.Selection().Start)

	m.unsubscribe = append(m.unsubscribe,
		buffer.OnContentChanged(m.onContentChanged),
		buffer.OnSelectionChanged(m.onSelectionChanged),
		state.Subscribe(m.onStateChanged),
	)

	m.mu.Lock()
	m.research(false)
	m.mu.Unlock()

	return m
}

// Dispose cancels pending re-searches, releases all subscriptions and
// marks the model inert. Late timer callbacks and notifications are
// silently ignored afterwards.
func (m *FindModel) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return
	}
	m.disposed = true
	m.contentDelayer.Cancel()
	m.stateDelayer.Cancel()
	for _, unsub := range m.unsubscribe {
		unsub()
	}
	m.unsubscribe = nil
}

// --- Event handlers ---

func (m *FindModel) onContentChanged(change ContentChange) {
	// Our own edits must not re-trigger a re-search.
	if m.guard.isHeld() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}

	if change.IsFlush {
		m.tracker.reset()
	}
	m.tracker.setAnchor(m.buffer.Selection().Start)

	m.contentDelayer.Trigger(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.disposed {
			return
		}
		m.research(false)
	})
}

func (m *FindModel) onSelectionChanged(change SelectionChange) {
	// Programmatic moves (our own replace/navigation) keep the anchor.
	if change.Reason == CursorProgrammatic {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}
	m.tracker.setAnchor(change.Selection.Start)
}

func (m *FindModel) onStateChanged(change FindStateChange) {
	relevant := change.SearchString || change.IsReplaceRevealed ||
		change.IsRegex || change.WholeWord || change.MatchCase ||
		change.SearchScope || change.SwapString || change.WholeWordSwap
	if !relevant {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}

	if change.SearchScope {
		// A scope change re-resolves the scope; everything else reuses it.
		m.tracker.scopes = normalizeScope(m.buffer, m.state.SearchScope())
	}

	if m.buffer.LineCount() >= m.largeBufferLines {
		moveCursor := change.MoveCursor
		m.stateDelayer.Trigger(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.disposed {
				return
			}
			m.research(moveCursor)
		})
		return
	}
	m.research(change.MoveCursor)
}

// --- Re-search ---

// research recomputes both match lists over the resolved scope, replaces
// the tracked state atomically and reports (position, count) back.
func (m *FindModel) research(moveCursor bool) {
	query := m.state.SearchQuery()
	if query.IsEmpty() {
		m.currentQuery = nil
		m.tracker.setMatches(nil, nil, m.tracker.scopes, false)
		m.state.ChangeMatchInfo(0, 0)
		return
	}

	compiled, err := query.Compile()
	if err != nil {
		// A failed compile means no search data; leave the buffer alone.
		m.currentQuery = nil
		m.tracker.setMatches(nil, nil, m.tracker.scopes, false)
		m.state.ChangeMatchInfo(0, 0)
		return
	}
	m.currentQuery = compiled

	primary := m.buffer.FindMatches(query, m.tracker.scopes, false, MatchesLimit)

	var swap []Match
	if swapQuery := m.state.SwapQuery(); !swapQuery.IsEmpty() {
		swap = m.buffer.FindMatches(swapQuery, m.tracker.scopes, false, MatchesLimit)
	}

	capped := len(primary) >= MatchesLimit
	m.tracker.setMatches(primary, swap, m.tracker.scopes, capped)
	m.state.ChangeMatchInfo(m.tracker.position(), m.tracker.count())

	if moveCursor && m.moveCursorOnType {
		m.moveToNext()
	}
}

// --- Navigation ---

// MoveToNextMatch moves the selection to the next match after the caret,
// wrapping at the document boundary.
func (m *FindModel) MoveToNextMatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}
	m.moveToNext()
}

// MoveToPrevMatch moves the selection to the previous match before the
// caret, wrapping at the document boundary.
func (m *FindModel) MoveToPrevMatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}
	m.moveToPrev()
}

func (m *FindModel) moveToNext() {
	if m.tracker.count() == 0 {
		// Reveal the scope boundary so a restricted search is noticed.
		if m.tracker.scopes != nil {
			m.buffer.RevealRange(m.tracker.scopes[0])
		}
		return
	}

	caret := m.buffer.Selection().Start
	if !m.state.CanNavigateForward() {
		// Blocked at the forward boundary: refocus the nearest match
		// before the caret instead of doing nothing.
		if prev, ok := m.tracker.prevBefore(caret); ok {
			m.selectMatch(prev)
		}
		return
	}

	if !m.tracker.capped {
		searchStart := m.buffer.Selection().End
		for retry := 0; retry < 2; retry++ {
			candidate, ok := m.tracker.nextAfter(searchStart)
			if !ok {
				candidate, ok = m.tracker.first() // wrap around
			}
			if !ok {
				return
			}
			if retry == 0 && candidate.IsEmpty() && candidate.Start.Equal(searchStart) {
				// Stuck on a zero-width match: take one minimal step and retry.
				searchStart = m.stepForward(searchStart)
				continue
			}
			m.selectMatch(candidate)
			return
		}
		return
	}

	// Too many matches to cache fully: single-match search on demand.
	if match, ok := m.rawNextMatch(m.state.SearchQuery(), m.buffer.Selection().End, false, true); ok {
		m.selectMatch(match.Range)
	}
	// Otherwise there is exactly one match and the caret already sits on
	// it; leave the selection alone.
}

func (m *FindModel) moveToPrev() {
	if m.tracker.count() == 0 {
		if m.tracker.scopes != nil {
			m.buffer.RevealRange(m.tracker.scopes[0])
		}
		return
	}

	caret := m.buffer.Selection().Start
	if !m.state.CanNavigateBack() {
		// Blocked at the backward boundary: refocus the nearest match
		// after the caret.
		if next, ok := m.tracker.nextAfter(caret); ok {
			m.selectMatch(next)
		}
		return
	}

	if !m.tracker.capped {
		// prevBefore is strictly before the caret, so a zero-width match
		// under the caret can never be re-selected; no stuck recovery is
		// needed in this direction.
		candidate, ok := m.tracker.prevBefore(caret)
		if !ok {
			candidate, ok = m.tracker.last() // wrap around
		}
		if ok {
			m.selectMatch(candidate)
		}
		return
	}

	if match, ok := m.rawPrevMatch(m.state.SearchQuery(), caret, false, true); ok {
		m.selectMatch(match.Range)
	}
}

func (m *FindModel) selectMatch(r Range) {
	m.buffer.SetSelection(r, CursorProgrammatic)
	m.tracker.setAnchor(r.Start)

	position := m.tracker.indexOf(r)
	if position == 0 {
		position = m.tracker.position()
	}
	m.state.ChangeMatchInfo(position, m.tracker.count())
	m.buffer.RevealRange(r)
}

// stepForward advances a position by one minimal step: one column, or the
// start of the next line at end-of-line, wrapping at the document end.
// Line-anchored patterns always advance a full line.
func (m *FindModel) stepForward(pos Position) Position {
	lineAnchored := m.currentQuery != nil && m.currentQuery.HasLineAnchors()

	if !lineAnchored && pos.Col < m.buffer.LineRuneCount(pos.Row) {
		return Position{Row: pos.Row, Col: pos.Col + 1}
	}
	if pos.Row+1 < m.buffer.LineCount() {
		return Position{Row: pos.Row + 1, Col: 0}
	}
	return Position{}
}

// stepBackward is the mirror of stepForward.
func (m *FindModel) stepBackward(pos Position) Position {
	lineAnchored := m.currentQuery != nil && m.currentQuery.HasLineAnchors()

	if !lineAnchored && pos.Col > 0 {
		return Position{Row: pos.Row, Col: pos.Col - 1}
	}
	if pos.Row > 0 {
		return Position{Row: pos.Row - 1, Col: m.buffer.LineRuneCount(pos.Row - 1)}
	}
	lastRow := m.buffer.LineCount() - 1
	return Position{Row: lastRow, Col: m.buffer.LineRuneCount(lastRow)}
}

// scopeBounds returns the outermost bounds of the active scope, or the
// full document range.
func (m *FindModel) scopeBounds() Range {
	if m.tracker.scopes == nil {
		return m.buffer.FullRange()
	}
	return Range{
		Start: m.tracker.scopes[0].Start,
		End:   m.tracker.scopes[len(m.tracker.scopes)-1].End,
	}
}

func (m *FindModel) matchInScope(r Range) bool {
	if m.tracker.scopes == nil {
		return true
	}
	for _, scope := range m.tracker.scopes {
		if scope.ContainsRange(r) {
			return true
		}
	}
	return false
}

// rawNextMatch finds the next match from an anchor without the cached
// list: the anchor is clamped into the active scope, and a match escaping
// the scope is retried once from its far edge. With skipCurrent set, a
// zero-width match sitting exactly on the anchor advances the anchor one
// step instead of being returned; navigation needs this to make progress,
// while replace must be able to land on such a match.
func (m *FindModel) rawNextMatch(q SearchQuery, after Position, captures, skipCurrent bool) (Match, bool) {
	bounds := m.scopeBounds()
	if after.Before(bounds.Start) || after.After(bounds.End) {
		after = bounds.Start
	}

	wrapped := false
	stuckRecovered := false
	scopeRetried := false

	for range 4 {
		match, ok := m.buffer.FindNextMatch(q, after, captures)
		if !ok {
			if wrapped {
				return Match{}, false
			}
			wrapped = true
			after = bounds.Start
			continue
		}
		if skipCurrent && !stuckRecovered && match.Range.IsEmpty() && match.Range.Start.Equal(after) {
			stuckRecovered = true
			after = m.stepForward(after)
			continue
		}
		if !m.matchInScope(match.Range) {
			if scopeRetried {
				return Match{}, false
			}
			scopeRetried = true
			after = match.Range.End
			continue
		}
		return match, true
	}
	return Match{}, false
}

// rawPrevMatch is the backward mirror of rawNextMatch.
func (m *FindModel) rawPrevMatch(q SearchQuery, before Position, captures, skipCurrent bool) (Match, bool) {
	bounds := m.scopeBounds()
	if before.Before(bounds.Start) || before.After(bounds.End) {
		before = bounds.End
	}

	wrapped := false
	stuckRecovered := false
	scopeRetried := false

	for range 4 {
		match, ok := m.buffer.FindPrevMatch(q, before, captures)
		if !ok {
			if wrapped {
				return Match{}, false
			}
			wrapped = true
			before = bounds.End
			continue
		}
		if skipCurrent && !stuckRecovered && match.Range.IsEmpty() && match.Range.End.Equal(before) {
			stuckRecovered = true
			before = m.stepBackward(before)
			continue
		}
		if !m.matchInScope(match.Range) {
			if scopeRetried {
				return Match{}, false
			}
			scopeRetried = true
			before = match.Range.Start
			continue
		}
		return match, true
	}
	return Match{}, false
}

// --- Replace ---

// Replace replaces the match under the selection, or selects the next
// match when the selection is not exactly on one.
func (m *FindModel) Replace() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.tracker.count() == 0 {
		return nil
	}

	query := m.state.SearchQuery()
	sel := m.buffer.Selection()

	// Captures are needed this time: the replacement may reference them,
	// and a zero-width match at the caret must be replaceable.
	match, ok := m.rawNextMatch(query, sel.Start, true, false)
	if !ok {
		return nil
	}

	if !sel.Equal(match.Range) {
		// Not precisely on the match yet: replace disambiguates to select.
		m.selectMatch(match.Range)
		return nil
	}

	pattern := ParseReplacePattern(m.state.ReplaceString(), m.state.IsRegex())
	text := pattern.Build(match.Captures, m.state.PreserveCase())

	caretAfter := endOfInsertedText(match.Range.Start, text)
	err := m.withGuard(func() error {
		return m.buffer.ApplyEdits(
			[]Edit{{Range: match.Range, Text: text}},
			EditOptions{SelectionAfter: &Range{Start: caretAfter, End: caretAfter}},
		)
	})
	if err != nil {
		return err
	}

	m.tracker.setAnchor(caretAfter)
	m.research(true)
	return nil
}

// ReplaceAll replaces every match in the active scope in one undo
// boundary.
func (m *FindModel) ReplaceAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.tracker.count() == 0 {
		return nil
	}

	query := m.state.SearchQuery()
	pattern := ParseReplacePattern(m.state.ReplaceString(), m.state.IsRegex())

	var err error
	if m.tracker.scopes == nil && m.tracker.capped {
		err = m.largeReplaceAll(query, pattern)
	} else {
		err = m.regularReplaceAll(query, pattern)
	}
	if err != nil {
		return err
	}

	m.research(false)
	return nil
}

// largeReplaceAll avoids materializing every match: one engine-level pass
// over the whole document text, replaced as a single edit that preserves
// the selection's relative position.
func (m *FindModel) largeReplaceAll(query SearchQuery, pattern ReplacePattern) error {
	compiled, err := query.Compile()
	if err != nil {
		return nil // no search data
	}

	text := m.buffer.GetCurrentContent()

	var result string
	if pattern.IsStatic() && !m.state.PreserveCase() {
		result = compiled.Regexp().ReplaceAllLiteralString(text, pattern.StaticText())
	} else {
		preserveCase := m.state.PreserveCase()
		result = expandAllMatches(compiled.Regexp(), text, func(captures []string) string {
			return pattern.Build(captures, preserveCase)
		})
	}

	return m.withGuard(func() error {
		return m.buffer.ApplyEdits(
			[]Edit{{Range: m.buffer.FullRange(), Text: result}},
			EditOptions{PreserveSelection: true},
		)
	})
}

func (m *FindModel) regularReplaceAll(query SearchQuery, pattern ReplacePattern) error {
	static := pattern.IsStatic() && !m.state.PreserveCase()
	matches := m.buffer.FindMatches(query, m.tracker.scopes, !static, 0)
	if len(matches) == 0 {
		return nil
	}

	edits := make([]Edit, len(matches))
	for i, match := range matches {
		text := pattern.StaticText()
		if !static {
			text = pattern.Build(match.Captures, m.state.PreserveCase())
		}
		edits[i] = Edit{Range: match.Range, Text: text}
	}

	return m.withGuard(func() error {
		return m.buffer.ApplyEdits(edits, EditOptions{PreserveSelection: true})
	})
}

// --- Swap-all ---

// SwapAll exchanges every occurrence of the primary pattern with the swap
// pattern and vice versa in one undo boundary. Defined only for literal,
// case-sensitive patterns; a no-op unless both patterns have at least one
// match.
func (m *FindModel) SwapAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return nil
	}
	if m.state.IsRegex() || !m.state.MatchCase() {
		return nil
	}
	if m.tracker.count() == 0 || m.tracker.swapCount() == 0 {
		return nil
	}

	var err error
	if m.tracker.scopes == nil && m.tracker.capped {
		err = m.largeSwapAll()
	} else {
		err = m.regularSwapAll()
	}
	if err != nil {
		return err
	}

	m.research(false)
	return nil
}

// regularSwapAll enumerates both match sets over the identical normalized
// scope and applies them as one transaction: each occurrence becomes
// literally the other's text. Where the two sets overlap, the primary
// pattern wins.
func (m *FindModel) regularSwapAll() error {
	primary := m.buffer.FindMatches(m.state.SearchQuery(), m.tracker.scopes, false, 0)
	swap := m.buffer.FindMatches(m.state.SwapQuery(), m.tracker.scopes, false, 0)
	if len(primary) == 0 || len(swap) == 0 {
		return nil
	}

	edits := mergeSwapEdits(primary, m.state.SwapString(), swap, m.state.SearchString())

	return m.withGuard(func() error {
		return m.buffer.ApplyEdits(edits, EditOptions{PreserveSelection: true})
	})
}

// largeSwapAll performs the two-pattern exchange as a single combined
// alternation pass over the whole document text. The exchange semantics
// are identical to the regular path; it never degrades to a
// one-directional replace.
func (m *FindModel) largeSwapAll() error {
	primarySource := regexp.QuoteMeta(m.state.SearchString())
	if m.state.WholeWord() {
		primarySource = `\b(?:` + primarySource + `)\b`
	}
	swapSource := regexp.QuoteMeta(m.state.SwapString())
	if m.state.WholeWordSwap() {
		swapSource = `\b(?:` + swapSource + `)\b`
	}

	combined, err := regexp.Compile(`(?m)(` + primarySource + `)|(?:` + swapSource + `)`)
	if err != nil {
		return nil
	}

	searchText := m.state.SearchString()
	swapText := m.state.SwapString()

	text := m.buffer.GetCurrentContent()
	result := expandAllMatches(combined, text, func(captures []string) string {
		if captures[1] != "" {
			return swapText
		}
		return searchText
	})

	return m.withGuard(func() error {
		return m.buffer.ApplyEdits(
			[]Edit{{Range: m.buffer.FullRange(), Text: result}},
			EditOptions{PreserveSelection: true},
		)
	})
}

// mergeSwapEdits interleaves the two edit sets in document order. Both
// sets were computed against the pre-mutation document; a swap match
// overlapping a primary match is dropped, as is any match overlapping an
// already accepted edit.
func mergeSwapEdits(primary []Match, primaryReplacement string, swap []Match, swapReplacement string) []Edit {
	edits := make([]Edit, 0, len(primary)+len(swap))

	i, j := 0, 0
	var lastEnd Position
	accepted := false

	for i < len(primary) || j < len(swap) {
		takePrimary := j >= len(swap) ||
			(i < len(primary) && !swap[j].Range.Start.Before(primary[i].Range.Start))

		if !takePrimary && i < len(primary) && swap[j].Range.Overlaps(primary[i].Range) {
			j++
			continue
		}

		var r Range
		var text string
		if takePrimary {
			r, text = primary[i].Range, primaryReplacement
			i++
		} else {
			r, text = swap[j].Range, swapReplacement
			j++
		}

		if accepted && r.Start.Before(lastEnd) {
			continue
		}
		edits = append(edits, Edit{Range: r, Text: text})
		lastEnd = r.End
		accepted = true
	}
	return edits
}

// --- Select all ---

// SelectAllMatches selects every match as multi-selections, primary
// first. Above the cap the full match set is enumerated on demand.
func (m *FindModel) SelectAllMatches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.tracker.count() == 0 {
		return
	}

	ranges := m.tracker.primary
	if m.tracker.capped {
		matches := m.buffer.FindMatches(m.state.SearchQuery(), m.tracker.scopes, false, 0)
		ranges = matchRanges(matches)
	}
	if len(ranges) == 0 {
		return
	}
	m.buffer.SetSelections(ranges, CursorProgrammatic)
}

// Matches returns a snapshot of the tracked primary match ranges.
func (m *FindModel) Matches() []Range {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Range, len(m.tracker.primary))
	copy(out, m.tracker.primary)
	return out
}

// SwapMatches returns a snapshot of the tracked swap match ranges.
func (m *FindModel) SwapMatches() []Range {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Range, len(m.tracker.swap))
	copy(out, m.tracker.swap)
	return out
}

// --- Helpers ---

func (m *FindModel) withGuard(fn func() error) error {
	defer m.guard.acquire()()
	return fn()
}

// endOfInsertedText computes the position just after text inserted at
// start.
func endOfInsertedText(start Position, text string) Position {
	newlines := strings.Count(text, "\n")
	if newlines == 0 {
		return Position{Row: start.Row, Col: start.Col + len([]rune(text))}
	}
	lastLine := text[strings.LastIndexByte(text, '\n')+1:]
	return Position{Row: start.Row + newlines, Col: len([]rune(lastLine))}
}

// expandAllMatches rewrites every match of re in text using build, which
// receives the captured groups (index 0 = full match).
func expandAllMatches(re *regexp.Regexp, text string, build func(captures []string) string) string {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))
	prev := 0
	for _, loc := range locs {
		sb.WriteString(text[prev:loc[0]])
		captures := make([]string, len(loc)/2)
		for g := 0; g < len(loc)/2; g++ {
			if loc[2*g] >= 0 {
				captures[g] = text[loc[2*g]:loc[2*g+1]]
			}
		}
		sb.WriteString(build(captures))
		prev = loc[1]
	}
	sb.WriteString(text[prev:])
	return sb.String()
}
