package main

import (
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	finder "github.com/ionut-t/gofind/adapter-bubbletea"
)

const sampleText = `package main

import "fmt"

func main() {
	greeting := "hello"
	farewell := "goodbye"
	fmt.Println(greeting, farewell)
	fmt.Println(greeting)
}
`

type model struct {
	finder finder.Model
}

func (m model) Init() tea.Cmd {
	return m.finder.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.finder.SetSize(msg.Width-4, msg.Height-2)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case finder.QuitMsg:
		return m, tea.Quit
	}

	finderModel, cmd := m.finder.Update(msg)
	m.finder = finderModel.(finder.Model)
	return m, cmd
}

func (m model) View() string {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Render(m.finder.View())
}

func main() {
	panel := finder.New(100, 30)
	panel.Focus()
	panel.SetLanguage("go", "catppuccin-mocha")

	content := []byte(sampleText)
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("read %s: %v", os.Args[1], err)
		}
		content = data
	}
	panel.SetContent(content)

	m := model{finder: panel}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("error running program: %v", err)
	}
}
