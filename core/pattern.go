package core

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"
	"unicode"
)

// SearchQuery describes how a pattern should be matched against the
// buffer. The zero value matches nothing (empty pattern).
type SearchQuery struct {
	Pattern   string
	IsRegex   bool
	MatchCase bool
	WholeWord bool
}

// IsEmpty reports whether there is no pattern to search for.
func (q SearchQuery) IsEmpty() bool {
	return q.Pattern == ""
}

// CompiledQuery is an executable matcher produced from a SearchQuery.
type CompiledQuery struct {
	re             *regexp.Regexp
	hasLineAnchors bool
}

// Compile turns the query into an executable matcher. Literal patterns
// are quoted, case-insensitivity is expressed with (?i) and ^/$ always
// anchor to line boundaries via (?m).
func (q SearchQuery) Compile() (*CompiledQuery, error) {
	if q.IsEmpty() {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}

	source := q.Pattern
	hasLineAnchors := false
	if q.IsRegex {
		hasLineAnchors = containsAnchors(source)
		if _, err := regexp.Compile(source); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
	} else {
		source = regexp.QuoteMeta(source)
	}

	if q.WholeWord {
		source = `\b(?:` + source + `)\b`
	}

	flags := "(?m)"
	if !q.MatchCase {
		flags = "(?im)"
	}

	re, err := regexp.Compile(flags + source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	return &CompiledQuery{re: re, hasLineAnchors: hasLineAnchors}, nil
}

// Regexp exposes the underlying matcher.
func (c *CompiledQuery) Regexp() *regexp.Regexp {
	return c.re
}

// HasLineAnchors reports whether the original pattern used ^ or $.
// Navigation over stuck empty matches advances a full line in that case.
func (c *CompiledQuery) HasLineAnchors() bool {
	return c.hasLineAnchors
}

// containsAnchors reports whether the pattern contains a real ^ or $
// operator, as opposed to the characters appearing inside a character
// class or escaped. Invalid patterns are reported later by Compile.
func containsAnchors(source string) bool {
	re, err := syntax.Parse(source, syntax.Perl)
	if err != nil {
		return false
	}
	var walk func(*syntax.Regexp) bool
	walk = func(re *syntax.Regexp) bool {
		switch re.Op {
		case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText:
			return true
		}
		for _, sub := range re.Sub {
			if walk(sub) {
				return true
			}
		}
		return false
	}
	return walk(re)
}

// --- Replacement strings ---

type replacePieceKind int

const (
	pieceLiteral replacePieceKind = iota
	pieceCapture
)

type replacePiece struct {
	kind    replacePieceKind
	text    string
	capture int
}

// ReplacePattern is a parsed replacement string: literal runs interleaved
// with capture references. Build expands it against a concrete match.
type ReplacePattern struct {
	pieces []replacePiece
}

// ParseReplacePattern parses a user replacement string. Capture
// references ($0-$99, $$ for a literal dollar) and backslash escapes
// (\n, \t, \\) are only honoured when the search pattern is a regex;
// otherwise the whole string is a single literal.
func ParseReplacePattern(pattern string, isRegex bool) ReplacePattern {
	if !isRegex || pattern == "" {
		return ReplacePattern{pieces: []replacePiece{{kind: pieceLiteral, text: pattern}}}
	}

	var pieces []replacePiece
	var literal strings.Builder

	flushLiteral := func() {
		if literal.Len() > 0 {
			pieces = append(pieces, replacePiece{kind: pieceLiteral, text: literal.String()})
			literal.Reset()
		}
	}

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\\' && i+1 < len(runes) {
			switch runes[i+1] {
			case 'n':
				literal.WriteRune('\n')
				i++
				continue
			case 't':
				literal.WriteRune('\t')
				i++
				continue
			case '\\':
				literal.WriteRune('\\')
				i++
				continue
			}
		}

		if r == '$' && i+1 < len(runes) {
			next := runes[i+1]
			if next == '$' {
				literal.WriteRune('$')
				i++
				continue
			}
			if next >= '0' && next <= '9' {
				capture := int(next - '0')
				consumed := 1
				// Prefer a two-digit reference when present ($10-$99).
				if i+2 < len(runes) && runes[i+2] >= '0' && runes[i+2] <= '9' && capture > 0 {
					capture = capture*10 + int(runes[i+2]-'0')
					consumed = 2
				}
				flushLiteral()
				pieces = append(pieces, replacePiece{kind: pieceCapture, capture: capture})
				i += consumed
				continue
			}
		}

		literal.WriteRune(r)
	}
	flushLiteral()

	if pieces == nil {
		pieces = []replacePiece{{kind: pieceLiteral, text: ""}}
	}
	return ReplacePattern{pieces: pieces}
}

// IsStatic reports whether the replacement is the same for every match,
// enabling the constant-string fast path of replace-all.
func (p ReplacePattern) IsStatic() bool {
	for _, piece := range p.pieces {
		if piece.kind == pieceCapture {
			return false
		}
	}
	return true
}

// StaticText returns the constant replacement for a static pattern.
func (p ReplacePattern) StaticText() string {
	var b strings.Builder
	for _, piece := range p.pieces {
		b.WriteString(piece.text)
	}
	return b.String()
}

// Build expands the replacement against a concrete match. captures[0] is
// the full matched text, captures[n] the n-th group (empty when the group
// did not participate). With preserveCase the matched text's casing is
// mapped onto the result.
func (p ReplacePattern) Build(captures []string, preserveCase bool) string {
	var b strings.Builder
	for _, piece := range p.pieces {
		switch piece.kind {
		case pieceLiteral:
			b.WriteString(piece.text)
		case pieceCapture:
			if piece.capture < len(captures) {
				b.WriteString(captures[piece.capture])
			}
		}
	}

	result := b.String()
	if preserveCase && len(captures) > 0 {
		result = applyCasing(captures[0], result)
	}
	return result
}

// applyCasing maps the casing shape of matched onto replacement:
// all-upper, all-lower, or leading capital.
func applyCasing(matched, replacement string) string {
	if matched == "" || replacement == "" {
		return replacement
	}

	hasLetter := false
	allUpper := true
	allLower := true
	for _, r := range matched {
		if !unicode.IsLetter(r) {
			continue
		}
		hasLetter = true
		if unicode.IsUpper(r) {
			allLower = false
		} else {
			allUpper = false
		}
	}
	if !hasLetter {
		return replacement
	}

	switch {
	case allUpper:
		return strings.ToUpper(replacement)
	case allLower:
		return strings.ToLower(replacement)
	}

	// Mixed case: mirror a leading capital, otherwise leave it alone.
	first := []rune(matched)[0]
	if unicode.IsUpper(first) {
		out := []rune(replacement)
		out[0] = unicode.ToUpper(out[0])
		return string(out)
	}
	return replacement
}
