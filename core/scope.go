package core

// ScopeKind discriminates the search scope variants.
type ScopeKind int

const (
	ScopeNone   ScopeKind = iota // Whole document
	ScopeSingle                  // One restricted range
	ScopeMulti                   // A set of restricted ranges
)

// Scope bounds a search to the whole document or to one or more explicit
// ranges. The zero value is the whole-document scope.
type Scope struct {
	kind   ScopeKind
	ranges []Range
}

// NoScope returns the whole-document scope.
func NoScope() Scope {
	return Scope{kind: ScopeNone}
}

// SingleScope restricts the search to one range.
func SingleScope(r Range) Scope {
	return Scope{kind: ScopeSingle, ranges: []Range{r}}
}

// MultiScope restricts the search to a set of ranges. An empty set is
// equivalent to NoScope.
func MultiScope(ranges []Range) Scope {
	if len(ranges) == 0 {
		return NoScope()
	}
	rs := make([]Range, len(ranges))
	copy(rs, ranges)
	return Scope{kind: ScopeMulti, ranges: rs}
}

// Kind returns the scope variant.
func (s Scope) Kind() ScopeKind {
	return s.kind
}

// IsNone reports whether the scope covers the whole document.
func (s Scope) IsNone() bool {
	return s.kind == ScopeNone
}

// Ranges returns the restricting ranges, or nil for the whole document.
func (s Scope) Ranges() []Range {
	if s.kind == ScopeNone {
		return nil
	}
	return s.ranges
}

// normalizeScope resolves a scope against the buffer into concrete search
// ranges. A nil result means the whole document.
//
// A scope range spanning multiple lines whose end column is 0 is shortened
// by one line and its end snapped to that line's rune count: a boundary
// landing exactly at a line start must not pull in the trailing empty line.
func normalizeScope(buffer TextBuffer, scope Scope) []Range {
	if scope.IsNone() {
		return nil
	}

	normalized := make([]Range, 0, len(scope.ranges))
	for _, r := range scope.ranges {
		if r.Start.Row != r.End.Row && r.End.Col == 0 {
			endRow := r.End.Row - 1
			r.End = Position{Row: endRow, Col: buffer.LineRuneCount(endRow)}
		}
		normalized = append(normalized, r)
	}
	return normalized
}
