package bubble_adapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ionut-t/gofind/adapter-bubbletea/highlighter"
	find "github.com/ionut-t/gofind/core"
)

type Theme struct {
	MatchStyle        lipgloss.Style
	CurrentMatchStyle lipgloss.Style
	SwapMatchStyle    lipgloss.Style
	StatusLineStyle   lipgloss.Style
	CounterStyle      lipgloss.Style
	FlagOnStyle       lipgloss.Style
	FlagOffStyle      lipgloss.Style
	InputLabelStyle   lipgloss.Style
	MessageStyle      lipgloss.Style
	ErrorStyle        lipgloss.Style
	LineNumberStyle   lipgloss.Style
	SelectionStyle    lipgloss.Style
}

var DefaultTheme = Theme{
	MatchStyle:        lipgloss.NewStyle().Background(lipgloss.Color("58")).Foreground(lipgloss.Color("255")),
	CurrentMatchStyle: lipgloss.NewStyle().Background(lipgloss.Color("208")).Foreground(lipgloss.Color("0")).Bold(true),
	SwapMatchStyle:    lipgloss.NewStyle().Background(lipgloss.Color("24")).Foreground(lipgloss.Color("255")),
	StatusLineStyle:   lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("255")),
	CounterStyle:      lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("214")),
	FlagOnStyle:       lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("34")).Bold(true),
	FlagOffStyle:      lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("240")),
	InputLabelStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true),
	MessageStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	ErrorStyle:        lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	LineNumberStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(4).Align(lipgloss.Right),
	SelectionStyle:    lipgloss.NewStyle().Background(lipgloss.Color("237")),
}

// focusField identifies which input row owns the keyboard.
type focusField int

const (
	focusSearch focusField = iota
	focusReplace
	focusSwap
)

type Model struct {
	buffer find.TextBuffer
	state  *find.FindState
	model  *find.FindModel

	viewport viewport.Model

	searchInput  textinput.Model
	replaceInput textinput.Model
	swapInput    textinput.Model
	focus        focusField

	width           int
	height          int
	showLineNumbers bool
	theme           Theme

	message string
	err     error

	syntax        *highlighter.Highlighter
	tokenizedText string
	isFocused     bool
}

type messageMsg string

type errMsg error

type clearMsg struct{}

// QuitMsg is emitted when the user closes the find panel.
type QuitMsg struct{}

func (m *Model) dispatchClearMsg() tea.Cmd {
	return tea.Tick(time.Second*3, func(time.Time) tea.Msg {
		return clearMsg{}
	})
}

func newInput(placeholder string, focused bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 256
	if focused {
		in.Focus()
	}
	return in
}

func New(width, height int) Model {
	buffer := find.NewTextBuffer()
	state := find.NewFindState()

	m := Model{
		buffer:          buffer,
		state:           state,
		model:           find.NewFindModel(buffer, state),
		viewport:        viewport.New(width, height-4),
		searchInput:     newInput("search", true),
		replaceInput:    newInput("replace", false),
		swapInput:       newInput("swap with", false),
		showLineNumbers: true,
		theme:           DefaultTheme,
	}
	m.SetSize(width, height)

	return m
}

// SetSize resizes the panel. Two rows go to the status and input lines.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(1, height-4)

	inputWidth := max(10, width/3-12)
	m.searchInput.Width = inputWidth
	m.replaceInput.Width = inputWidth
	m.swapInput.Width = inputWidth
}

// SetContent replaces the document text.
func (m *Model) SetContent(content []byte) {
	m.buffer.SetContent(content)
}

// GetCurrentContent returns the current document text.
func (m *Model) GetCurrentContent() string {
	return m.buffer.GetCurrentContent()
}

// GetBuffer returns the underlying text buffer.
func (m *Model) GetBuffer() find.TextBuffer {
	return m.buffer
}

// GetFindState returns the observable search state.
func (m *Model) GetFindState() *find.FindState {
	return m.state
}

// GetFindModel returns the underlying find model.
func (m *Model) GetFindModel() *find.FindModel {
	return m.model
}

// WithTheme sets a custom theme.
func (m *Model) WithTheme(theme Theme) {
	m.theme = theme
}

// SetLanguage enables syntax highlighting for the given language and
// chroma colour theme.
func (m *Model) SetLanguage(language, theme string) {
	m.syntax = highlighter.New(language, theme)
	m.tokenizedText = ""
}

// HideLineNumbers controls whether line numbers are rendered.
func (m *Model) HideLineNumbers(hide bool) {
	m.showLineNumbers = !hide
}

// Focus routes keyboard input to the panel.
func (m *Model) Focus() {
	m.isFocused = true
}

// Blur stops keyboard handling.
func (m *Model) Blur() {
	m.isFocused = false
}

// IsFocused reports whether the panel handles keys.
func (m *Model) IsFocused() bool {
	return m.isFocused
}

// Dispose releases the find model's subscriptions and timers.
func (m *Model) Dispose() {
	m.model.Dispose()
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.IsFocused() {
			break
		}

		handled, cmd := m.handleKey(msg)
		if !handled {
			// Unhandled keys edit the focused input field.
			switch m.focus {
			case focusSearch:
				m.searchInput, cmd = m.searchInput.Update(msg)
			case focusReplace:
				m.replaceInput, cmd = m.replaceInput.Update(msg)
			case focusSwap:
				m.swapInput, cmd = m.swapInput.Update(msg)
			}
		}
		cmds = append(cmds, cmd)

		m.syncState()
		m.syncViewport()

	case messageMsg:
		m.message = string(msg)
		m.err = nil
		cmds = append(cmds, m.dispatchClearMsg())

	case errMsg:
		m.message = ""
		m.err = msg
		cmds = append(cmds, m.dispatchClearMsg())

	case clearMsg:
		m.message = ""
		m.err = nil

	case QuitMsg:
		return m, tea.Quit
	}

	var viewportCmd tea.Cmd
	m.viewport, viewportCmd = m.viewport.Update(msg)
	cmds = append(cmds, viewportCmd)

	m.renderDocument()
	return m, tea.Batch(cmds...)
}

// handleKey dispatches the find panel's own key bindings; anything it does
// not claim falls through to the focused input field.
func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.cycleFocus(1)
		return true, nil

	case "shift+tab":
		m.cycleFocus(-1)
		return true, nil

	case "enter", "f3":
		m.model.MoveToNextMatch()
		return true, nil

	case "shift+enter", "shift+f3":
		m.model.MoveToPrevMatch()
		return true, nil

	case "alt+r":
		m.toggle(func(s *find.FindState) bool { return s.IsRegex() },
			func(v bool) find.FindStateUpdate { return find.FindStateUpdate{IsRegex: &v} })
		return true, nil

	case "alt+c":
		m.toggle(func(s *find.FindState) bool { return s.MatchCase() },
			func(v bool) find.FindStateUpdate { return find.FindStateUpdate{MatchCase: &v} })
		return true, nil

	case "alt+w":
		m.toggle(func(s *find.FindState) bool { return s.WholeWord() },
			func(v bool) find.FindStateUpdate { return find.FindStateUpdate{WholeWord: &v} })
		return true, nil

	case "alt+p":
		m.toggle(func(s *find.FindState) bool { return s.PreserveCase() },
			func(v bool) find.FindStateUpdate { return find.FindStateUpdate{PreserveCase: &v} })
		return true, nil

	case "alt+l":
		m.toggle(func(s *find.FindState) bool { return s.Loop() },
			func(v bool) find.FindStateUpdate { return find.FindStateUpdate{Loop: &v} })
		return true, nil

	case "ctrl+h":
		if err := m.model.Replace(); err != nil {
			return true, m.errCmd(err)
		}
		return true, nil

	case "ctrl+j":
		before := m.state.MatchesCount()
		if err := m.model.ReplaceAll(); err != nil {
			return true, m.errCmd(err)
		}
		return true, m.messageCmd(fmt.Sprintf("%d occurrences replaced", before))

	case "ctrl+s":
		if err := m.model.SwapAll(); err != nil {
			return true, m.errCmd(err)
		}
		return true, m.messageCmd("patterns swapped")

	case "ctrl+a":
		m.model.SelectAllMatches()
		return true, m.messageCmd(fmt.Sprintf("%d matches selected", m.state.MatchesCount()))

	case "ctrl+y":
		return true, m.yankSelection()

	case "ctrl+z":
		if err := m.buffer.Undo(); err != nil {
			return true, m.errCmd(err)
		}
		return true, nil

	case "ctrl+r":
		if err := m.buffer.Redo(); err != nil {
			return true, m.errCmd(err)
		}
		return true, nil

	case "esc":
		return true, func() tea.Msg { return QuitMsg{} }
	}

	return false, nil
}

func (m *Model) cycleFocus(dir int) {
	fields := 3
	m.focus = focusField((int(m.focus) + dir + fields) % fields)

	m.searchInput.Blur()
	m.replaceInput.Blur()
	m.swapInput.Blur()
	switch m.focus {
	case focusSearch:
		m.searchInput.Focus()
	case focusReplace:
		m.replaceInput.Focus()
	case focusSwap:
		m.swapInput.Focus()
	}
}

func (m *Model) toggle(get func(*find.FindState) bool, set func(bool) find.FindStateUpdate) {
	m.state.Change(set(!get(m.state)), true)
}

// syncState pushes the input field contents into the find state. The state
// ignores no-op updates, so calling this on every key is cheap.
func (m *Model) syncState() {
	search := m.searchInput.Value()
	replace := m.replaceInput.Value()
	swap := m.swapInput.Value()
	revealed := replace != ""

	m.state.Change(find.FindStateUpdate{
		SearchString:      &search,
		ReplaceString:     &replace,
		SwapString:        &swap,
		IsReplaceRevealed: &revealed,
	}, true)
}

// syncViewport scrolls the document view so the selection stays visible.
func (m *Model) syncViewport() {
	row := m.buffer.Selection().Start.Row
	if row < m.viewport.YOffset {
		m.viewport.SetYOffset(row)
	} else if row >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(row - m.viewport.Height + 1)
	}
}

func (m *Model) yankSelection() tea.Cmd {
	sel := m.buffer.Selection()
	if sel.IsEmpty() {
		return nil
	}
	text := m.buffer.TextIn(sel)
	if err := clipboard.WriteAll(text); err != nil {
		return m.errCmd(err)
	}
	return m.messageCmd(fmt.Sprintf("%d bytes yanked", len(text)))
}

func (m *Model) messageCmd(text string) tea.Cmd {
	return func() tea.Msg { return messageMsg(text) }
}

func (m *Model) errCmd(err error) tea.Cmd {
	return func() tea.Msg { return errMsg(err) }
}

func (m Model) View() string {
	content := m.viewport.View()
	statusLine := m.statusLine()
	inputLine := m.inputLine()

	commandLine := ""
	if m.message != "" {
		commandLine = m.theme.MessageStyle.Render(m.message)
	}
	if m.err != nil {
		commandLine = m.theme.ErrorStyle.Render(m.err.Error())
	}

	pad := m.width - lipgloss.Width(commandLine)
	if pad > 0 {
		commandLine += strings.Repeat(" ", pad)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		statusLine,
		inputLine,
		commandLine,
	)
}
