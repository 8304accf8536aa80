package highlighter

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Highlighter renders document lines with syntax colouring. Tokens are
// computed for the whole document at once so multi-line constructs keep
// their state, then cached per line until the next Tokenize call.
type Highlighter struct {
	lexer chroma.Lexer
	style *chroma.Style

	mu         sync.RWMutex
	lineTokens map[int][]chroma.Token
	styleCache map[chroma.TokenType]lipgloss.Style
}

// New creates a highlighter for the given language and colour theme, with
// fallbacks when either is unknown.
func New(language, theme string) *Highlighter {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	return &Highlighter{
		lexer:      chroma.Coalesce(lexer),
		style:      styles.Get(theme),
		lineTokens: make(map[int][]chroma.Token),
		styleCache: make(map[chroma.TokenType]lipgloss.Style),
	}
}

// Tokenize lexes the full document text and replaces the per-line token
// cache.
func (h *Highlighter) Tokenize(content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lineTokens = make(map[int][]chroma.Token)
	if content == "" {
		return
	}

	iterator, err := h.lexer.Tokenise(nil, content)
	if err != nil {
		return
	}

	row := 0
	h.lineTokens[row] = []chroma.Token{}
	for _, token := range iterator.Tokens() {
		value := token.Value
		for strings.Contains(value, "\n") {
			before, after, _ := strings.Cut(value, "\n")
			if before != "" {
				h.lineTokens[row] = append(h.lineTokens[row], chroma.Token{Type: token.Type, Value: before})
			}
			row++
			h.lineTokens[row] = []chroma.Token{}
			value = after
		}
		if value != "" {
			h.lineTokens[row] = append(h.lineTokens[row], chroma.Token{Type: token.Type, Value: value})
		}
	}
}

// StyledLine renders one document line with syntax colours. Lines without
// cached tokens come back as plain text.
func (h *Highlighter) StyledLine(row int, plain string) string {
	h.mu.RLock()
	tokens, ok := h.lineTokens[row]
	h.mu.RUnlock()
	if !ok || len(tokens) == 0 {
		return plain
	}

	var sb strings.Builder
	for _, token := range tokens {
		sb.WriteString(h.styleFor(token.Type).Render(token.Value))
	}
	return sb.String()
}

func (h *Highlighter) styleFor(tokenType chroma.TokenType) lipgloss.Style {
	h.mu.RLock()
	style, ok := h.styleCache[tokenType]
	h.mu.RUnlock()
	if ok {
		return style
	}

	entry := h.style.Get(tokenType)

	style = lipgloss.NewStyle()
	if entry.Colour.IsSet() {
		style = style.Foreground(lipgloss.Color(entry.Colour.String()))
	}
	if entry.Bold == chroma.Yes {
		style = style.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		style = style.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		style = style.Underline(true)
	}

	h.mu.Lock()
	h.styleCache[tokenType] = style
	h.mu.Unlock()

	return style
}
