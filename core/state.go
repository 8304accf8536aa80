package core

// FindState is the mutable, observable holder of the search, replace and
// swap inputs plus the reported match information. The find model
// subscribes once at construction and writes match counts back through
// ChangeMatchInfo.
type FindState struct {
	searchString  string
	replaceString string
	swapString    string

	isRegex       bool
	matchCase     bool
	wholeWord     bool
	wholeWordSwap bool
	preserveCase  bool

	isReplaceRevealed bool
	loop              bool

	searchScope Scope

	matchesCount         int
	currentMatchPosition int // 1-based, 0 = none

	observers observerSet[FindStateChange]
}

// FindStateChange describes which fields changed in one update.
type FindStateChange struct {
	SearchString      bool
	ReplaceString     bool
	SwapString        bool
	IsRegex           bool
	MatchCase         bool
	WholeWord         bool
	WholeWordSwap     bool
	PreserveCase      bool
	IsReplaceRevealed bool
	Loop              bool
	SearchScope       bool
	MatchInfo         bool

	// MoveCursor is set when the triggering update asked the model to
	// move the caret to the nearest match.
	MoveCursor bool
}

// FindStateUpdate is a partial update: nil fields are left untouched.
type FindStateUpdate struct {
	SearchString      *string
	ReplaceString     *string
	SwapString        *string
	IsRegex           *bool
	MatchCase         *bool
	WholeWord         *bool
	WholeWordSwap     *bool
	PreserveCase      *bool
	IsReplaceRevealed *bool
	Loop              *bool
	SearchScope       *Scope
}

// NewFindState creates a state with loop navigation enabled.
func NewFindState() *FindState {
	return &FindState{loop: true}
}

func (s *FindState) SearchString() string    { return s.searchString }
func (s *FindState) ReplaceString() string   { return s.replaceString }
func (s *FindState) SwapString() string      { return s.swapString }
func (s *FindState) IsRegex() bool           { return s.isRegex }
func (s *FindState) MatchCase() bool         { return s.matchCase }
func (s *FindState) WholeWord() bool         { return s.wholeWord }
func (s *FindState) WholeWordSwap() bool     { return s.wholeWordSwap }
func (s *FindState) PreserveCase() bool      { return s.preserveCase }
func (s *FindState) IsReplaceRevealed() bool { return s.isReplaceRevealed }
func (s *FindState) Loop() bool              { return s.loop }
func (s *FindState) SearchScope() Scope      { return s.searchScope }
func (s *FindState) MatchesCount() int       { return s.matchesCount }

// CurrentMatchPosition is 1-based; 0 means no current match.
func (s *FindState) CurrentMatchPosition() int { return s.currentMatchPosition }

// SearchQuery builds the primary pattern query from the current state.
func (s *FindState) SearchQuery() SearchQuery {
	return SearchQuery{
		Pattern:   s.searchString,
		IsRegex:   s.isRegex,
		MatchCase: s.matchCase,
		WholeWord: s.wholeWord,
	}
}

// SwapQuery builds the swap pattern query. The swap pattern is always a
// literal, case-sensitive match regardless of the primary flags; only the
// whole-word option is honoured independently.
func (s *FindState) SwapQuery() SearchQuery {
	return SearchQuery{
		Pattern:   s.swapString,
		IsRegex:   false,
		MatchCase: true,
		WholeWord: s.wholeWordSwap,
	}
}

// Change applies a partial update and notifies subscribers with a
// description of what changed. moveCursor asks the model to navigate to
// the nearest match as part of the triggered re-search.
func (s *FindState) Change(u FindStateUpdate, moveCursor bool) {
	var change FindStateChange
	change.MoveCursor = moveCursor
	changed := false

	if u.SearchString != nil && *u.SearchString != s.searchString {
		s.searchString = *u.SearchString
		change.SearchString = true
		changed = true
	}
	if u.ReplaceString != nil && *u.ReplaceString != s.replaceString {
		s.replaceString = *u.ReplaceString
		change.ReplaceString = true
		changed = true
	}
	if u.SwapString != nil && *u.SwapString != s.swapString {
		s.swapString = *u.SwapString
		change.SwapString = true
		changed = true
	}
	if u.IsRegex != nil && *u.IsRegex != s.isRegex {
		s.isRegex = *u.IsRegex
		change.IsRegex = true
		changed = true
	}
	if u.MatchCase != nil && *u.MatchCase != s.matchCase {
		s.matchCase = *u.MatchCase
		change.MatchCase = true
		changed = true
	}
	if u.WholeWord != nil && *u.WholeWord != s.wholeWord {
		s.wholeWord = *u.WholeWord
		change.WholeWord = true
		changed = true
	}
	if u.WholeWordSwap != nil && *u.WholeWordSwap != s.wholeWordSwap {
		s.wholeWordSwap = *u.WholeWordSwap
		change.WholeWordSwap = true
		changed = true
	}
	if u.PreserveCase != nil && *u.PreserveCase != s.preserveCase {
		s.preserveCase = *u.PreserveCase
		change.PreserveCase = true
		changed = true
	}
	if u.IsReplaceRevealed != nil && *u.IsReplaceRevealed != s.isReplaceRevealed {
		s.isReplaceRevealed = *u.IsReplaceRevealed
		change.IsReplaceRevealed = true
		changed = true
	}
	if u.Loop != nil && *u.Loop != s.loop {
		s.loop = *u.Loop
		change.Loop = true
		changed = true
	}
	if u.SearchScope != nil {
		s.searchScope = *u.SearchScope
		change.SearchScope = true
		changed = true
	}

	if changed {
		s.observers.notify(change)
	}
}

// ChangeMatchInfo reports the current match position and total count.
// The position is clamped into [0, count].
func (s *FindState) ChangeMatchInfo(position, count int) {
	if count < 0 {
		count = 0
	}
	if position < 0 {
		position = 0
	}
	if position > count {
		position = count
	}

	if s.matchesCount == count && s.currentMatchPosition == position {
		return
	}
	s.matchesCount = count
	s.currentMatchPosition = position
	s.observers.notify(FindStateChange{MatchInfo: true})
}

// Subscribe registers an observer; the returned function unsubscribes.
func (s *FindState) Subscribe(fn func(FindStateChange)) func() {
	return s.observers.subscribe(fn)
}

// CanNavigateForward reports whether next-match navigation may proceed
// past the last match (always true when looping).
func (s *FindState) CanNavigateForward() bool {
	return s.loop || s.currentMatchPosition < s.matchesCount
}

// CanNavigateBack reports whether previous-match navigation may proceed
// before the first match (always true when looping).
func (s *FindState) CanNavigateBack() bool {
	return s.loop || s.currentMatchPosition > 1
}
